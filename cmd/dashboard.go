package cmd

import (
	"github.com/pyneda/stapi/internal/cli"
	"github.com/pyneda/stapi/pkg/tui"
	"github.com/spf13/cobra"
)

func newDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"ui"},
		Short:   "Open the interactive terminal dashboard",
		Args:    cobra.NoArgs,
		Annotations: map[string]string{
			annotationQuietConsole: "true",
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			return tui.Run(cmd.Context(), tui.NewClientBackend(env.Client, env.Auth))
		},
	}
}
