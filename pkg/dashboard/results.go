package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pyneda/stapi/pkg/client"
)

type SortField string

const (
	SortExecutedAt SortField = "executed_at"
	SortStatus     SortField = "status"
	SortTest       SortField = "test"
	SortAPI        SortField = "api"
	SortID         SortField = "id"
)

// SortFields lists the accepted sort fields in cycling order.
var SortFields = []SortField{SortExecutedAt, SortStatus, SortTest, SortAPI, SortID}

func ParseSortField(s string) (SortField, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return SortExecutedAt, nil
	}
	for _, f := range SortFields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown sort field %q", s)
}

// ResultFilter narrows a result list. Zero values match everything.
type ResultFilter struct {
	Statuses []client.Status
	APIID    int
	TestID   int
	APIName  string
	TestName string
	Search   string
	Since    time.Time
	Until    time.Time
}

func (f ResultFilter) Match(r client.Result) bool {
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if f.APIID != 0 && r.API.ID != f.APIID {
		return false
	}
	if f.TestID != 0 && r.Test.ID != f.TestID {
		return false
	}
	if f.APIName != "" && !containsFold(r.API.Name, f.APIName) {
		return false
	}
	if f.TestName != "" && !containsFold(r.Test.Name, f.TestName) {
		return false
	}
	if f.Search != "" &&
		!containsFold(r.TestLabel(), f.Search) &&
		!containsFold(r.APILabel(), f.Search) &&
		!containsFold(r.Detail, f.Search) {
		return false
	}
	if !f.Since.IsZero() && r.ExecutedAt.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && r.ExecutedAt.After(f.Until) {
		return false
	}
	return true
}

// ResolveRefs returns a copy of results where tests and APIs sent as bare ids
// are replaced by the matching objects. Unknown ids stay as they are.
func ResolveRefs(results []client.Result, apis []client.API, tests []client.Test) []client.Result {
	apiByID := make(map[int]client.API, len(apis))
	for _, a := range apis {
		apiByID[a.ID] = a
	}
	testByID := make(map[int]client.Test, len(tests))
	for _, t := range tests {
		testByID[t.ID] = t
	}

	out := make([]client.Result, len(results))
	for i, r := range results {
		if r.API.Name == "" {
			if a, ok := apiByID[r.API.ID]; ok {
				r.API = a
			}
		}
		if r.Test.Name == "" {
			if t, ok := testByID[r.Test.ID]; ok {
				r.Test = t
			}
		}
		out[i] = r
	}
	return out
}

// ResultSort orders results. The zero value sorts newest first.
type ResultSort struct {
	Field     SortField
	Ascending bool
}

// ApplyResults filters then sorts a copy of results. Ties keep their input order.
func ApplyResults(results []client.Result, filter ResultFilter, order ResultSort) []client.Result {
	out := make([]client.Result, 0, len(results))
	for _, r := range results {
		if filter.Match(r) {
			out = append(out, r)
		}
	}

	less := lessFunc(order.Field)
	sort.SliceStable(out, func(i, j int) bool {
		if order.Ascending {
			return less(out[i], out[j])
		}
		return less(out[j], out[i])
	})
	return out
}

func lessFunc(field SortField) func(a, b client.Result) bool {
	switch field {
	case SortStatus:
		return func(a, b client.Result) bool { return a.Status.Severity() < b.Status.Severity() }
	case SortTest:
		return func(a, b client.Result) bool {
			return strings.ToLower(a.TestLabel()) < strings.ToLower(b.TestLabel())
		}
	case SortAPI:
		return func(a, b client.Result) bool {
			return strings.ToLower(a.APILabel()) < strings.ToLower(b.APILabel())
		}
	case SortID:
		return func(a, b client.Result) bool { return a.ID < b.ID }
	}
	return func(a, b client.Result) bool { return a.ExecutedAt.Before(b.ExecutedAt) }
}

type resultKey struct {
	api  int
	test int
}

// Latest keeps the most recent result for every API and test pair, in the
// order the pairs first appear.
func Latest(results []client.Result) []client.Result {
	index := make(map[resultKey]int)
	var out []client.Result
	for _, r := range results {
		key := resultKey{api: r.API.ID, test: r.Test.ID}
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, r)
			continue
		}
		if r.ExecutedAt.After(out[i].ExecutedAt) || (r.ExecutedAt.Equal(out[i].ExecutedAt) && r.ID > out[i].ID) {
			out[i] = r
		}
	}
	return out
}

// APISummary counts results per status for one API.
type APISummary struct {
	APIID      int    `json:"api_id" yaml:"api_id"`
	APIName    string `json:"api_name" yaml:"api_name"`
	Total      int    `json:"total" yaml:"total"`
	Vulnerable int    `json:"vulnerable" yaml:"vulnerable"`
	Errors     int    `json:"errors" yaml:"errors"`
	Safe       int    `json:"safe" yaml:"safe"`
	Other      int    `json:"other" yaml:"other"`
}

func (s *APISummary) add(status client.Status) {
	s.Total++
	switch status {
	case client.StatusVulnerable:
		s.Vulnerable++
	case client.StatusError:
		s.Errors++
	case client.StatusSafe:
		s.Safe++
	default:
		s.Other++
	}
}

func (s APISummary) TableHeaders() []string {
	return []string{"API ID", "API", "Total", "Vulnerable", "Error", "Safe", "Other"}
}

func (s APISummary) TableRow() []string {
	return []string{
		fmt.Sprint(s.APIID), s.APIName, fmt.Sprint(s.Total),
		fmt.Sprint(s.Vulnerable), fmt.Sprint(s.Errors), fmt.Sprint(s.Safe), fmt.Sprint(s.Other),
	}
}

func (s APISummary) String() string {
	return fmt.Sprintf("%s: %d results (%d vulnerable, %d error, %d safe)", s.APIName, s.Total, s.Vulnerable, s.Errors, s.Safe)
}

func (s APISummary) Pretty() string {
	return s.String() + "\n"
}

// Summary aggregates a result list.
type Summary struct {
	Total    int
	ByStatus map[client.Status]int
	ByAPI    []APISummary
}

// Summarize counts results by status and by API, APIs ordered by name.
func Summarize(results []client.Result) Summary {
	summary := Summary{ByStatus: make(map[client.Status]int)}
	perAPI := make(map[int]*APISummary)
	for _, r := range results {
		summary.Total++
		summary.ByStatus[r.Status]++
		s, ok := perAPI[r.API.ID]
		if !ok {
			s = &APISummary{APIID: r.API.ID, APIName: r.APILabel()}
			perAPI[r.API.ID] = s
		}
		s.add(r.Status)
	}
	for _, s := range perAPI {
		summary.ByAPI = append(summary.ByAPI, *s)
	}
	sort.Slice(summary.ByAPI, func(i, j int) bool {
		if summary.ByAPI[i].APIName != summary.ByAPI[j].APIName {
			return summary.ByAPI[i].APIName < summary.ByAPI[j].APIName
		}
		return summary.ByAPI[i].APIID < summary.ByAPI[j].APIID
	})
	return summary
}

func containsStatus(list []client.Status, s client.Status) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
