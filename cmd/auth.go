package cmd

import (
	"errors"
	"strings"

	"github.com/pyneda/stapi/internal/cli"
	passwords "github.com/pyneda/stapi/lib/auth"
	"github.com/pyneda/stapi/pkg/auth"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newLoginCmd() *cobra.Command {
	var form auth.LoginForm

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Example: `  stapi login --username alice
  stapi login --email alice@example.com --password "$STAPI_PASSWORD"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.FromCommand(cmd)
			if err != nil {
				return err
			}
			if form.Username == "" && form.Email == "" {
				return errors.New("provide --username or --email")
			}
			if form.Password == "" {
				form.Password, err = passwords.PromptPassword(cmd.ErrOrStderr(), "Password: ")
				if err != nil {
					return err
				}
			}
			if err := form.Validate(); err != nil {
				return err
			}

			user, err := env.Auth.Login(cmd.Context(), form.Credentials())
			if err != nil {
				return err
			}
			log.Info().Str("username", user.Username).Msg("Logged in")
			cli.Infof(cmd.OutOrStdout(), "Logged in as %s", user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "Username")
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "Email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Password (prompted when omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.FromCommand(cmd)
			if err != nil {
				return err
			}
			if err := env.Auth.Restore(cmd.Context()); err != nil {
				if errors.Is(err, auth.ErrNotAuthenticated) {
					cli.Infof(cmd.OutOrStdout(), "Not logged in")
					return nil
				}
				log.Warn().Err(err).Msg("Could not verify the stored session")
			}
			if err := env.Auth.Logout(cmd.Context()); err != nil {
				log.Warn().Err(err).Msg("Server logout failed")
			}
			cli.Infof(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newRegisterCmd() *cobra.Command {
	var form auth.RegisterForm

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.FromCommand(cmd)
			if err != nil {
				return err
			}
			if form.Password == "" {
				if form.Password, err = passwords.PromptPassword(cmd.ErrOrStderr(), "Password: "); err != nil {
					return err
				}
			}
			if form.ConfirmPassword == "" {
				if form.ConfirmPassword, err = passwords.PromptPassword(cmd.ErrOrStderr(), "Confirm password: "); err != nil {
					return err
				}
			}
			if err := env.Auth.Register(cmd.Context(), form); err != nil {
				return err
			}
			cli.Infof(cmd.OutOrStdout(), "Account %s created, run \"stapi login\" to log in", strings.TrimSpace(form.Username))
			return nil
		},
	}
	cmd.Flags().StringVarP(&form.Username, "username", "u", "", "Username")
	cmd.Flags().StringVar(&form.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&form.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVarP(&form.Email, "email", "e", "", "Email")
	cmd.Flags().StringVarP(&form.Password, "password", "p", "", "Password (prompted when omitted)")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm-password", "", "Password confirmation (prompted when omitted)")
	return cmd
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			return cli.PrintOne(cmd, env, *env.Auth.CurrentUser())
		},
	}
}
