package cmd

import (
	"fmt"
	"strings"

	"github.com/pyneda/stapi/internal/cli"
	"github.com/pyneda/stapi/lib"
	"github.com/pyneda/stapi/pkg/dashboard"
	"github.com/pyneda/stapi/pkg/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newScanCmd() *cobra.Command {
	var (
		name        string
		description string
		keep        bool
		failOnVuln  bool
	)

	cmd := &cobra.Command{
		Use:   "scan <url>",
		Short: "Register a URL as an API and run every test against it",
		Example: `  stapi scan https://api.example.com
  stapi scan https://api.example.com/v2 --name "Example v2" --keep=false`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(args[0])
			if name == "" {
				name = lib.GetHostFromURL(target)
			}

			desc := description
			if strings.TrimSpace(desc) == "" {
				desc = "Imported from " + target
			}

			form := dashboard.APIForm{Name: name, URL: target, Description: desc}
			api, err := form.ToAPI(env.Auth.CurrentUser())
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			created, err := env.Client.APIs.Create(ctx, api)
			if err != nil {
				return fmt.Errorf("registering API: %w", err)
			}
			log.Info().Int("id", created.ID).Str("url", created.URL).Msg("API registered")

			r := runner.New(env.Client.Tests, runner.Options{Strategy: runner.StrategyBatch})
			outcomes, runErr := r.Run(ctx, []int{created.ID})

			if !keep {
				if err := env.Client.APIs.Delete(ctx, created.ID); err != nil {
					log.Warn().Err(err).Int("id", created.ID).Msg("Could not delete scanned API")
				} else {
					log.Info().Int("id", created.ID).Msg("Scanned API deleted")
				}
			}
			if runErr != nil {
				return runErr
			}
			if err := cli.Print(cmd, env, outcomes); err != nil {
				return err
			}
			if failOnVuln && runner.HasVulnerable(outcomes) {
				return cli.ErrVulnerable
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "API name (defaults to the URL host)")
	cmd.Flags().StringVar(&description, "description", "", "API description (defaults to \"Imported from <url>\")")
	cmd.Flags().BoolVar(&keep, "keep", true, "Keep the API registered after the scan")
	cmd.Flags().BoolVar(&failOnVuln, "fail-on-vulnerable", false, "Exit with an error when a vulnerability is found")
	return cmd
}
