package apis

import (
	"fmt"
	"net/http"

	"github.com/pyneda/stapi/internal/cli"
	"github.com/pyneda/stapi/lib"
	"github.com/pyneda/stapi/pkg/client"
	"github.com/pyneda/stapi/pkg/dashboard"
	"github.com/pyneda/stapi/pkg/openapi"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)


func newImportCmd() *cobra.Command {
	var (
		baseURL      string
		perOperation bool
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "import <file|url>",
		Short: "Register APIs from an OpenAPI 3 or Swagger 2 document",
		Example: `  stapi apis import openapi.yaml
  stapi apis import https://petstore.swagger.io/v2/swagger.json --per-operation
  stapi apis import spec.json --base-url https://staging.example.com --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source := args[0]
			ctx := cmd.Context()
			httpClient := &http.Client{Timeout: viper.GetDuration("api.timeout")}

			content, err := openapi.Load(ctx, source, httpClient)
			if err != nil {
				return err
			}
			doc, err := openapi.Parse(content)
			if err != nil {
				return fmt.Errorf("parsing %s: %w", source, err)
			}
			derived, err := doc.APIs(openapi.ImportOptions{Source: source, BaseURL: baseURL, PerOperation: perOperation})
			if err != nil {
				return err
			}
			log.Info().Str("title", doc.Title()).Str("version", doc.Version()).Int("apis", len(derived)).Msg("Parsed API definition")

			if dryRun {
				env, err := cli.FromCommand(cmd)
				if err != nil {
					return err
				}
				return cli.Print(cmd, env, derived)
			}

			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			owner := env.Auth.CurrentUser()
			created := make([]client.API, 0, len(derived))
			for _, item := range derived {
				form := dashboard.APIForm{
					Name:        lib.Truncate(item.Name, dashboard.MaxNameLength),
					URL:         item.URL,
					Description: item.Description,
				}
				api, err := form.ToAPI(owner)
				if err != nil {
					log.Warn().Err(err).Str("name", item.Name).Msg("Skipping API")
					continue
				}
				saved, err := env.Client.APIs.Create(ctx, api)
				if err != nil {
					return fmt.Errorf("creating %q: %w", api.Name, err)
				}
				created = append(created, *saved)
			}
			log.Info().Int("created", len(created)).Msg("Import finished")
			return cli.Print(cmd, env, created)
		},
	}
	cmd.Flags().StringVar(&baseURL, "base-url", "", "Base URL for documents whose servers are relative")
	cmd.Flags().BoolVar(&perOperation, "per-operation", false, "Register one API per path and method")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the derived APIs without creating them")
	return cmd
}
