package cmd

import (
	"io"
	"os"

	"github.com/pyneda/stapi/cmd/apis"
	"github.com/pyneda/stapi/cmd/results"
	"github.com/pyneda/stapi/cmd/tests"
	"github.com/pyneda/stapi/internal/cli"
	"github.com/pyneda/stapi/internal/config"
	"github.com/pyneda/stapi/lib"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// annotationQuietConsole marks commands that own the terminal, such as the
// dashboard. Their logs only go to the log file.
const annotationQuietConsole = "stapi/quiet-console"

type rootOptions struct {
	cfgFile      string
	debugLogging bool
	prettyLogs   bool
	server       string
	format       string
	noColor      bool

	logCloser io.Closer
}

// NewRootCmd builds the full command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "stapi",
		Short: "Client for the API security testing dashboard",
		Long: `stapi talks to the API security testing backend: register the APIs you
want to check, run the security tests against them and review the results,
either from the command line or from the terminal dashboard.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       config.Version,
	}
	rootCmd.SetVersionTemplate("stapi version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (default is ./config.yaml or $HOME/.stapi/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&opts.debugLogging, "debug", false, "Use debug level logging")
	rootCmd.PersistentFlags().BoolVar(&opts.prettyLogs, "pretty", true, "Use pretty logging instead JSON")
	rootCmd.PersistentFlags().StringVar(&opts.server, "server", "", "Backend server URL (overrides api.server)")
	rootCmd.PersistentFlags().StringVarP(&opts.format, "format", "f", "", "Output format (json, yaml, table, text, pretty)")
	rootCmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "Disable coloured output")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := config.LoadConfig(opts.cfgFile); err != nil {
			return err
		}
		if opts.server != "" {
			viper.Set("api.server", opts.server)
		}
		if opts.format != "" {
			viper.Set("output.format", opts.format)
		}
		if opts.noColor {
			lib.DisableColors()
		}

		level := viper.GetString("logging.console.level")
		if opts.debugLogging {
			level = "debug"
		}
		pretty := opts.prettyLogs && viper.GetString("logging.console.format") == "pretty"
		var logFile string
		if viper.GetBool("logging.file.enabled") {
			logFile = viper.GetString("logging.file.path")
		}
		console := cmd.ErrOrStderr()
		if cmd.Annotations[annotationQuietConsole] == "true" {
			console = io.Discard
		}
		closer, err := lib.SetupLogging(lib.LogOptions{
			Level:    level,
			Pretty:   pretty,
			FilePath: logFile,
			Console:  console,
		})
		opts.logCloser = closer
		if err != nil {
			return err
		}

		env, err := cli.NewEnv()
		if err != nil {
			return err
		}
		cmd.SetContext(cli.WithEnv(cmd.Context(), env))
		return nil
	}
	rootCmd.PersistentPostRun = func(cmd *cobra.Command, args []string) {
		if opts.logCloser != nil {
			opts.logCloser.Close()
		}
	}

	rootCmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newRegisterCmd(),
		newWhoamiCmd(),
		newScanCmd(),
		newDashboardCmd(),
		newConfigCmd(),
		newVersionCmd(),
		apis.NewAPIsCmd(),
		tests.NewTestsCmd(),
		results.NewResultsCmd(),
	)
	return rootCmd
}

// Execute runs the root command. This is called by main.main().
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		rootCmd.PrintErrln("Error:", err)
		os.Exit(1)
	}
}
