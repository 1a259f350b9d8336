// Package cli holds what the commands share: the backend client, the auth
// state and the output format, built once per invocation from the config.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pyneda/stapi/lib"
	"github.com/pyneda/stapi/pkg/auth"
	"github.com/pyneda/stapi/pkg/client"
	"github.com/pyneda/stapi/pkg/session"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ErrVulnerable is returned by test runs started with --fail-on-vulnerable
// when a result came back Vulnerable.
var ErrVulnerable = errors.New("vulnerabilities found")

type Env struct {
	Client *client.Client
	Auth   *auth.Manager
	Store  session.Store
	Format lib.FormatType
}

// NewEnv builds the environment from the loaded configuration. A configured
// session.token replaces the session file.
func NewEnv() (*Env, error) {
	format, err := lib.ParseFormatType(viper.GetString("output.format"))
	if err != nil {
		return nil, err
	}

	var store session.Store
	if token := viper.GetString("session.token"); token != "" {
		store = session.NewMemoryStore(&session.Session{Token: token})
	} else {
		path, err := homedir.Expand(viper.GetString("session.path"))
		if err != nil {
			return nil, fmt.Errorf("resolving session path: %w", err)
		}
		store = session.NewFileStore(path)
	}

	server := viper.GetString("api.server")
	manager := auth.NewManager(store, server)
	c, err := client.New(client.Options{
		Server:            server,
		Prefix:            viper.GetString("api.prefix"),
		Timeout:           viper.GetDuration("api.timeout"),
		AuthScheme:        viper.GetString("api.auth_scheme"),
		UserAgent:         viper.GetString("api.user_agent"),
		Tokens:            manager,
		RequestsPerSecond: viper.GetFloat64("api.rate_limit.requests_per_second"),
		Burst:             viper.GetInt("api.rate_limit.burst"),
	})
	if err != nil {
		return nil, err
	}
	manager.Use(c.Users)

	return &Env{Client: c, Auth: manager, Store: store, Format: format}, nil
}

type envKey struct{}

func WithEnv(ctx context.Context, env *Env) context.Context {
	return context.WithValue(ctx, envKey{}, env)
}

// FromCommand returns the environment attached by the root command, building
// one when the command runs on its own.
func FromCommand(cmd *cobra.Command) (*Env, error) {
	if ctx := cmd.Context(); ctx != nil {
		if env, ok := ctx.Value(envKey{}).(*Env); ok {
			return env, nil
		}
	}
	return NewEnv()
}

// LoggedIn restores the stored session and fails when there is none.
func LoggedIn(cmd *cobra.Command) (*Env, error) {
	env, err := FromCommand(cmd)
	if err != nil {
		return nil, err
	}
	if err := env.Auth.Restore(cmd.Context()); err != nil {
		if errors.Is(err, auth.ErrNotAuthenticated) {
			return nil, auth.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("restoring session: %w", err)
	}
	return env, nil
}

// Print writes items in the configured format.
func Print[T lib.Formattable](cmd *cobra.Command, env *Env, items []T) error {
	return lib.WriteOutput(cmd.OutOrStdout(), items, env.Format)
}

func PrintOne[T lib.Formattable](cmd *cobra.Command, env *Env, item T) error {
	return lib.WriteSingleOutput(cmd.OutOrStdout(), item, env.Format)
}

// Infof prints a human readable line to the command output.
func Infof(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, format+"\n", args...)
}
