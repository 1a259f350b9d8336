package dashboard

import (
	"errors"

	"github.com/pyneda/stapi/pkg/client"
)

const (
	NotRun      = "Not Run"
	NoDetail    = "-"
	noAPIPicked = 0
)

// ErrNoAPISelected is returned when running tests before choosing an API.
var ErrNoAPISelected = errors.New("select an API first")

// TestRow is one line of the tests table.
type TestRow struct {
	Test   client.Test
	Status string
	Detail string
}

// TestBoard tracks the tests, the API they run against and the latest run
// result per test.
type TestBoard struct {
	tests   []client.Test
	apiID   int
	results []client.RunResult
}

func NewTestBoard(tests []client.Test) *TestBoard {
	return &TestBoard{tests: append([]client.Test(nil), tests...)}
}

func (b *TestBoard) SetTests(tests []client.Test) {
	b.tests = append([]client.Test(nil), tests...)
}

func (b *TestBoard) Tests() []client.Test {
	return append([]client.Test(nil), b.tests...)
}

// SelectAPI picks the target API and forgets results from the previous one.
func (b *TestBoard) SelectAPI(id int) {
	b.apiID = id
	b.results = nil
}

func (b *TestBoard) SelectedAPI() int {
	return b.apiID
}

// CanRun returns ErrNoAPISelected until an API is selected.
func (b *TestBoard) CanRun() error {
	if b.apiID == noAPIPicked {
		return ErrNoAPISelected
	}
	return nil
}

func (b *TestBoard) ApplyRunAll(results []client.RunResult) {
	b.results = append([]client.RunResult(nil), results...)
}

// ApplyRun records a single test run, replacing an earlier result for the test.
func (b *TestBoard) ApplyRun(result client.RunResult) {
	for i := range b.results {
		if b.results[i].TestID == result.TestID {
			b.results[i] = result
			return
		}
	}
	b.results = append(b.results, result)
}

func (b *TestBoard) Result(testID int) (client.RunResult, bool) {
	for _, r := range b.results {
		if r.TestID == testID {
			return r, true
		}
	}
	return client.RunResult{}, false
}

func (b *TestBoard) Rows() []TestRow {
	rows := make([]TestRow, 0, len(b.tests))
	for _, t := range b.tests {
		row := TestRow{Test: t, Status: NotRun, Detail: NoDetail}
		if r, ok := b.Result(t.ID); ok {
			row.Status = string(r.Status)
			if r.Detail != "" {
				row.Detail = r.Detail
			}
		}
		rows = append(rows, row)
	}
	return rows
}
