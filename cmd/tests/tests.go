// Package tests holds the "stapi tests" command group.
package tests

import (
	"errors"

	"github.com/pyneda/stapi/internal/cli"
	"github.com/pyneda/stapi/pkg/runner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func NewTestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tests",
		Short: "List security tests and run them against APIs",
	}
	cmd.AddCommand(newListCmd(), newRunCmd())
	return cmd
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the available security tests",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			items, err := env.Client.Tests.List(cmd.Context())
			if err != nil {
				return err
			}
			return cli.Print(cmd, env, items)
		},
	}
}

func newRunCmd() *cobra.Command {
	var (
		apiIDs      []int
		testIDs     []int
		strategy    string
		concurrency int
		failOnVuln  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run security tests against one or more APIs",
		Long: `Run security tests against one or more APIs.

The batch strategy asks the backend to run every test in a single call per
API. The parallel strategy runs each test on its own, several at a time.
Selecting tests with --test always runs them one by one.`,
		Example: `  stapi tests run --api 1
  stapi tests run --api 1,2 --strategy parallel --concurrency 8
  stapi tests run --api 3 --test 2 --fail-on-vulnerable`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(apiIDs) == 0 {
				return errors.New("at least one --api is required")
			}
			if !cmd.Flags().Changed("strategy") {
				strategy = viper.GetString("tests.strategy")
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = viper.GetInt("tests.concurrency")
			}
			parsed, err := runner.ParseStrategy(strategy)
			if err != nil {
				return err
			}

			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			r := runner.New(env.Client.Tests, runner.Options{
				Strategy:    parsed,
				Concurrency: concurrency,
				TestIDs:     testIDs,
			})
			log.Info().Ints("apis", apiIDs).Str("strategy", string(parsed)).Msg("Running tests")
			outcomes, err := r.Run(cmd.Context(), apiIDs)
			if err != nil {
				return err
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
	cmd.Flags().IntSliceVar(&apiIDs, "api", nil, "API id to test (repeatable)")
	cmd.Flags().IntSliceVar(&testIDs, "test", nil, "Only run these test ids")
	cmd.Flags().StringVar(&strategy, "strategy", string(runner.StrategyBatch), "Run strategy: batch or parallel")
	cmd.Flags().IntVar(&concurrency, "concurrency", runner.DefaultConcurrency, "Concurrent test runs for the parallel strategy")
	cmd.Flags().BoolVar(&failOnVuln, "fail-on-vulnerable", false, "Exit with an error when a vulnerability is found")
	return cmd
}
