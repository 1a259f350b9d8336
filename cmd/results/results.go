// Package results holds the "stapi results" command group.
package results

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pyneda/stapi/internal/cli"
	"github.com/pyneda/stapi/lib"
	"github.com/pyneda/stapi/pkg/client"
	"github.com/pyneda/stapi/pkg/dashboard"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "results",
		Short: "Review stored test results",
	}
	cmd.AddCommand(newListCmd(), newSummaryCmd(), newAPICmd())
	return cmd
}

type listOptions struct {
	statuses []string
	apiID    int
	testID   int
	apiName  string
	testName string
	search   string
	since    string
	until    string
	sort     string
	order    string
	latest   bool
	output   string
}

func (o listOptions) filter() (dashboard.ResultFilter, error) {
	f := dashboard.ResultFilter{
		APIID:    o.apiID,
		TestID:   o.testID,
		APIName:  o.apiName,
		TestName: o.testName,
		Search:   o.search,
	}
	for _, s := range o.statuses {
		status := client.ParseStatus(s)
		if !status.Valid() {
			return f, fmt.Errorf("unknown status %q, use Vulnerable, Error or Safe", s)
		}
		f.Statuses = append(f.Statuses, status)
	}
	var err error
	if f.Since, err = parseTime(o.since, false); err != nil {
		return f, fmt.Errorf("invalid --since: %w", err)
	}
	if f.Until, err = parseTime(o.until, true); err != nil {
		return f, fmt.Errorf("invalid --until: %w", err)
	}
	return f, nil
}

func (o listOptions) sortOrder() (dashboard.ResultSort, error) {
	field, err := dashboard.ParseSortField(o.sort)
	if err != nil {
		return dashboard.ResultSort{}, err
	}
	switch strings.ToLower(o.order) {
	case "", "desc":
		return dashboard.ResultSort{Field: field}, nil
	case "asc":
		return dashboard.ResultSort{Field: field, Ascending: true}, nil
	}
	return dashboard.ResultSort{}, fmt.Errorf("unknown order %q, use asc or desc", o.order)
}

const dateLayout = "2006-01-02"

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04", dateLayout}

// parseTime accepts RFC 3339 timestamps or plain dates. Empty means unset.
// With endOfDay a plain date stands for the last instant of that day.
func parseTime(s string, endOfDay bool) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if endOfDay && layout == dateLayout {
			t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("%q is not a date or RFC 3339 timestamp", s)
}

// listResolved fetches stored results with their tests and APIs filled in.
// The backend sends both as ids; names stay unresolved if the lookups fail.
func listResolved(ctx context.Context, c *client.Client) ([]client.Result, error) {
	results, err := c.Results.List(ctx)
	if err != nil {
		return nil, err
	}
	apis, err := c.APIs.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not load APIs to name results")
	}
	tests, err := c.Tests.List(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Could not load tests to name results")
	}
	return dashboard.ResolveRefs(results, apis, tests), nil
}

func newListCmd() *cobra.Command {
	var opts listOptions

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List test results",
		Example: `  stapi results list --status vulnerable --api 3
  stapi results list --search sql --sort test --order asc
  stapi results list --latest --format json --output reports/`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := opts.filter()
			if err != nil {
				return err
			}
			order, err := opts.sortOrder()
			if err != nil {
				return err
			}
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			all, err := listResolved(cmd.Context(), env.Client)
			if err != nil {
				return err
			}
			if opts.latest {
				all = dashboard.Latest(all)
			}
			items := dashboard.ApplyResults(all, filter, order)
			log.Debug().Int("total", len(all)).Int("shown", len(items)).Msg("Filtered results")

			if opts.output == "" {
				return cli.Print(cmd, env, items)
			}
			path := exportPath(opts.output, env.Format, time.Now())
			if err := lib.FormatOutputToFile(items, env.Format, path); err != nil {
				return err
			}
			cli.Infof(cmd.OutOrStdout(), "Wrote %d results to %s", len(items), path)
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&opts.statuses, "status", nil, "Only show these statuses (Vulnerable, Error, Safe)")
	cmd.Flags().IntVar(&opts.apiID, "api", 0, "Only show results for this API id")
	cmd.Flags().IntVar(&opts.testID, "test", 0, "Only show results for this test id")
	cmd.Flags().StringVar(&opts.apiName, "api-name", "", "Only show APIs whose name contains this text")
	cmd.Flags().StringVar(&opts.testName, "test-name", "", "Only show tests whose name contains this text")
	cmd.Flags().StringVar(&opts.search, "search", "", "Search test, API and detail text")
	cmd.Flags().StringVar(&opts.since, "since", "", "Only show results executed at or after this time")
	cmd.Flags().StringVar(&opts.until, "until", "", "Only show results executed at or before this time")
	cmd.Flags().StringVar(&opts.sort, "sort", string(dashboard.SortExecutedAt), "Sort by executed_at, status, test, api or id")
	cmd.Flags().StringVar(&opts.order, "order", "desc", "Sort order: asc or desc")
	cmd.Flags().BoolVar(&opts.latest, "latest", false, "Only keep the newest result per API and test")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write the results to this file or directory")
	return cmd
}

// exportPath returns output itself, or a generated file name inside it when
// output is an existing directory or ends with a separator.
func exportPath(output string, format lib.FormatType, now time.Time) string {
	isDir := strings.HasSuffix(output, "/") || strings.HasSuffix(output, string(os.PathSeparator))
	if info, err := os.Stat(output); err == nil && info.IsDir() {
		isDir = true
	}
	if !isDir {
		return output
	}
	name := lib.Slugify("results " + now.Format("2006-01-02 15:04:05"))
	return filepath.Join(output, name+format.FileExtension())
}

func newSummaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Count results per API and status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := cli.LoggedIn(cmd)
			if err != nil {
				return err
			}
			all, err := listResolved(cmd.Context(), env.Client)
			if err != nil {
				return err
			}
			summary := dashboard.Summarize(all)
			if err := cli.Print(cmd, env, summary.ByAPI); err != nil {
				return err
			}
			if env.Format == lib.JSON || env.Format == lib.YAML {
				return nil
			}
			parts := make([]string, 0, len(client.Statuses))
			for _, status := range client.Statuses {
				parts = append(parts, fmt.Sprintf("%s: %d", status, summary.ByStatus[status]))
			}
			cli.Infof(cmd.OutOrStdout(), "Total: %d (%s)", summary.Total, strings.Join(parts, ", "))
			return nil
		},
	}
}

func newAPICmd() *cobra.Command {
	return &cobra.Command{
		Use:   "api <id>",
		Short: "Show the results recorded for one API",
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
			items, err := env.Client.Results.ForAPI(cmd.Context(), id)
			if err != nil {
				return err
			}
			return cli.Print(cmd, env, items)
		},
	}
}
