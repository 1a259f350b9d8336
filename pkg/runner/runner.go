// Package runner triggers test runs for one or more APIs.
package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pyneda/stapi/lib"
	"github.com/pyneda/stapi/pkg/client"
	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
)

type Strategy string

const (
	// StrategyBatch asks the backend to run every test in one call per API.
	StrategyBatch Strategy = "batch"
	// StrategyParallel runs tests one by one with bounded concurrency.
	StrategyParallel Strategy = "parallel"

	DefaultConcurrency = 4
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyBatch:
		return StrategyBatch, nil
	case StrategyParallel:
		return StrategyParallel, nil
	}
	return "", fmt.Errorf("unknown strategy %q, use %q or %q", s, StrategyBatch, StrategyParallel)
}

// Service is the part of the backend used to run tests.
type Service interface {
	List(ctx context.Context) ([]client.Test, error)
	RunAll(ctx context.Context, apiID int) ([]client.RunResult, error)
	Run(ctx context.Context, apiID, testID int) (*client.RunResult, error)
}

type Options struct {
	Strategy    Strategy
	Concurrency int
	// TestIDs restricts the run to these tests, each run individually.
	TestIDs []int
}

// Outcome is the result of one test against one API. Err is set when the run
// itself failed.
type Outcome struct {
	APIID    int           `json:"api_id" yaml:"api_id"`
	TestID   int           `json:"test_id" yaml:"test_id"`
	TestName string        `json:"test_name" yaml:"test_name"`
	Status   client.Status `json:"status" yaml:"status"`
	Detail   string        `json:"detail" yaml:"detail"`
	Err      error         `json:"-" yaml:"-"`
}

func (o Outcome) Failed() bool {
	return o.Err != nil
}

func (o Outcome) TableHeaders() []string {
	return []string{"API", "Test ID", "Test", "Status", "Detail"}
}

func (o Outcome) TableRow() []string {
	return []string{strconv.Itoa(o.APIID), strconv.Itoa(o.TestID), o.TestName, string(o.Status), lib.Truncate(o.Detail, 80)}
}

func (o Outcome) String() string {
	return fmt.Sprintf("API %d, test %d (%s): %s %s", o.APIID, o.TestID, o.TestName, o.Status, o.Detail)
}

func (o Outcome) Pretty() string {
	return fmt.Sprintf("%s %d  %s %s\n  %s %s\n  %s %s\n",
		lib.Label("API:"), o.APIID,
		lib.Label("Test:"), o.TestName,
		lib.Label("Status:"), lib.ColorizeStatus(string(o.Status)),
		lib.Label("Detail:"), o.Detail,
	)
}

// HasVulnerable reports whether any outcome found a vulnerability.
func HasVulnerable(outcomes []Outcome) bool {
	for _, o := range outcomes {
		if o.Status == client.StatusVulnerable {
			return true
		}
	}
	return false
}

type Runner struct {
	tests Service
	opts  Options
}

func New(tests Service, opts Options) *Runner {
	if opts.Strategy == "" {
		opts.Strategy = StrategyBatch
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Runner{tests: tests, opts: opts}
}

// Run executes the configured tests against every API and returns the outcomes
// ordered by API id then test id.
func (r *Runner) Run(ctx context.Context, apiIDs []int) ([]Outcome, error) {
	if len(apiIDs) == 0 {
		return nil, errors.New("no API selected")
	}
	for _, id := range apiIDs {
		if id <= 0 {
			return nil, fmt.Errorf("invalid API id: %d", id)
		}
	}

	tests, err := r.tests.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tests: %w", err)
	}
	names := make(map[int]string, len(tests))
	for _, t := range tests {
		names[t.ID] = t.Name
	}

	selected := tests
	if len(r.opts.TestIDs) > 0 {
		selected = selected[:0:0]
		for _, id := range r.opts.TestIDs {
			name, ok := names[id]
			if !ok {
				return nil, fmt.Errorf("unknown test id: %d", id)
			}
			selected = append(selected, client.Test{ID: id, Name: name})
		}
	}

	var outcomes []Outcome
	if r.opts.Strategy == StrategyBatch && len(r.opts.TestIDs) == 0 {
		outcomes, err = r.runBatch(ctx, uniq(apiIDs), names)
	} else {
		outcomes, err = r.runParallel(ctx, uniq(apiIDs), selected)
	}
	if err != nil {
		return nil, err
	}

	sort.SliceStable(outcomes, func(i, j int) bool {
		if outcomes[i].APIID != outcomes[j].APIID {
			return outcomes[i].APIID < outcomes[j].APIID
		}
		return outcomes[i].TestID < outcomes[j].TestID
	})
	return outcomes, nil
}

func (r *Runner) runBatch(ctx context.Context, apiIDs []int, names map[int]string) ([]Outcome, error) {
	var outcomes []Outcome
	for _, apiID := range apiIDs {
		results, err := r.tests.RunAll(ctx, apiID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			log.Error().Err(err).Int("api", apiID).Msg("Failed to run tests")
			outcomes = append(outcomes, Outcome{
				APIID:  apiID,
				Status: client.StatusError,
				Detail: fmt.Sprintf("failed to run tests for API ID: %d", apiID),
				Err:    err,
			})
			continue
		}
		for _, res := range results {
			outcomes = append(outcomes, Outcome{
				APIID:    apiID,
				TestID:   res.TestID,
				TestName: names[res.TestID],
				Status:   res.Status,
				Detail:   res.Detail,
			})
		}
		log.Info().Int("api", apiID).Int("results", len(results)).Msg("Ran all tests")
	}
	return outcomes, nil
}

func (r *Runner) runParallel(ctx context.Context, apiIDs []int, tests []client.Test) ([]Outcome, error) {
	p := pool.NewWithResults[Outcome]().WithMaxGoroutines(r.opts.Concurrency)
	for _, apiID := range apiIDs {
		for _, test := range tests {
			apiID, test := apiID, test
			p.Go(func() Outcome {
				return r.runOne(ctx, apiID, test)
			})
		}
	}
	outcomes := p.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (r *Runner) runOne(ctx context.Context, apiID int, test client.Test) Outcome {
	outcome := Outcome{APIID: apiID, TestID: test.ID, TestName: test.Name}
	res, err := r.tests.Run(ctx, apiID, test.ID)
	if err != nil {
		log.Error().Err(err).Int("api", apiID).Int("test", test.ID).Msg("Failed to run test")
		outcome.Status = client.StatusError
		outcome.Detail = fmt.Sprintf("failed to run test ID: %d", test.ID)
		outcome.Err = err
		return outcome
	}
	outcome.Status = res.Status
	outcome.Detail = res.Detail
	log.Debug().Int("api", apiID).Int("test", test.ID).Str("status", string(res.Status)).Msg("Test finished")
	return outcome
}

func uniq(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
