// Package apis holds the "stapi apis" command group.
package apis

import (
	"github.com/spf13/cobra"
)

// NewAPIsCmd builds the apis command group.
func NewAPIsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apis",
		Aliases: []string{"api"},
		Short:   "Manage the APIs registered for testing",
	}
	cmd.AddCommand(
		newListCmd(),
		newGetCmd(),
		newCreateCmd(),
		newUpdateCmd(),
		newDeleteCmd(),
		newImportCmd(),
	)
	return cmd
}
