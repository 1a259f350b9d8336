package apis

import (
	"errors"
	"fmt"

	"github.com/pyneda/stapi/internal/cli"
	"github.com/pyneda/stapi/pkg/dashboard"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered APIs",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			items, err := env.Client.APIs.List(cmd.Context())
			if err != nil {
				return err
			}
			return cli.Print(cmd, env, items)
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cli.ParseID(args[0])
			if err != nil {
				return err
			}
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			api, err := env.Client.APIs.Get(cmd.Context(), id)
			if err != nil {
				return err
			}
			return cli.PrintOne(cmd, env, *api)
		},
	}
}

func newCreateCmd() *cobra.Command {
	var form dashboard.APIForm

	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Register a new API",
		Example: `  stapi apis create --name Payments --url https://pay.example.com --description "billing"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			api, err := form.ToAPI(env.Auth.CurrentUser())
			if err != nil {
				return err
			}
			created, err := env.Client.APIs.Create(cmd.Context(), api)
			if err != nil {
				return err
			}
			log.Info().Int("id", created.ID).Str("name", created.Name).Msg("API created")
			return cli.PrintOne(cmd, env, *created)
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "API name")
	cmd.Flags().StringVar(&form.URL, "url", "", "API base URL")
	cmd.Flags().StringVar(&form.Description, "description", "", "API description")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("url")
	return cmd
}

func newUpdateCmd() *cobra.Command {
	var name, url, description string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change an API",
		Long:  `Change an API. Only the given fields are modified.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := cli.ParseID(args[0])
			if err != nil {
				return err
			}
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			current, err := env.Client.APIs.Get(ctx, id)
			if err != nil {
				return err
			}

			form := dashboard.EditForm(*current)
			if cmd.Flags().Changed("name") {
				form.Name = name
			}
			if cmd.Flags().Changed("url") {
				form.URL = url
			}
			if cmd.Flags().Changed("description") {
				form.Description = description
			}
			api, err := form.ToAPI(env.Auth.CurrentUser())
			if err != nil {
				return err
			}
			updated, err := env.Client.APIs.Update(ctx, id, api)
			if err != nil {
				return err
			}
			log.Info().Int("id", updated.ID).Msg("API updated")
			return cli.PrintOne(cmd, env, *updated)
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "API name")
	cmd.Flags().StringVar(&url, "url", "", "API base URL")
	cmd.Flags().StringVar(&description, "description", "", "API description")
	return cmd
}

func newDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>...",
		Aliases: []string{"rm"},
		Short:   "Delete one or more APIs",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := cli.ParseIDs(args)
			if err != nil {
				return err
			}
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			var errs []error
			for _, id := range ids {
				if err := env.Client.APIs.Delete(cmd.Context(), id); err != nil {
					log.Error().Err(err).Int("id", id).Msg("Failed to delete API")
					errs = append(errs, fmt.Errorf("API %d: %w", id, err))
					continue
				}
				cli.Infof(cmd.OutOrStdout(), "Deleted API %d", id)
			}
			return errors.Join(errs...)
		},
	}
}
