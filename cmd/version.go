package cmd

import (
	"runtime"

	"github.com/pyneda/stapi/internal/cli"
	"github.com/pyneda/stapi/internal/config"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cli.Infof(cmd.OutOrStdout(), "stapi %s (%s, %s/%s)", config.Version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
