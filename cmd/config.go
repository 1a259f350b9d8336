package cmd

import (
	"strings"

	"github.com/pyneda/stapi/internal/cli"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const redacted = "********"

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := viper.AllSettings()
			if token := sessionToken(settings); token != "" {
				settings["session"].(map[string]any)["token"] = redacted
			}
			out, err := yaml.Marshal(settings)
			if err != nil {
				return err
			}
			if used := viper.ConfigFileUsed(); used != "" {
				log.Debug().Str("file", used).Msg("Effective configuration")
			}
			cli.Infof(cmd.OutOrStdout(), "%s", strings.TrimRight(string(out), "\n"))
			return nil
		},
	}
	cmd.AddCommand(newConfigDumpCmd())
	return cmd
}

func sessionToken(settings map[string]any) string {
	session, ok := settings["session"].(map[string]any)
	if !ok {
		return ""
	}
	token, _ := session["token"].(string)
	return token
}

// dumpSettings copies the effective settings without the session token.
func dumpSettings() (*viper.Viper, error) {
	settings := viper.AllSettings()
	if session, ok := settings["session"].(map[string]any); ok {
		delete(session, "token")
	}
	v := viper.New()
	if err := v.MergeConfigMap(settings); err != nil {
		return nil, err
	}
	return v, nil
}

func newConfigDumpCmd() *cobra.Command {
	var (
		output string
		force  bool
	)
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Write the effective configuration to a file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := dumpSettings()
			if err != nil {
				return err
			}
			write := v.SafeWriteConfigAs
			if force {
				write = v.WriteConfigAs
			}
			if err := write(output); err != nil {
				return err
			}
			log.Info().Str("file", output).Msg("Config file written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "config.yaml", "Destination file")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite the file if it exists")
	return cmd
}
