package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pyneda/stapi/lib"
)

// Status is the outcome of running one test against one API.
type Status string

const (
	StatusVulnerable Status = "Vulnerable"
	StatusError      Status = "Error"
	StatusSafe       Status = "Safe"
)

// Statuses lists the known statuses from most to least severe.
var Statuses = []Status{StatusVulnerable, StatusError, StatusSafe}

// ParseStatus matches s case-insensitively against the known statuses. Unknown
// values are returned unchanged.
func ParseStatus(s string) Status {
	trimmed := strings.TrimSpace(s)
	for _, known := range Statuses {
		if strings.EqualFold(trimmed, string(known)) {
			return known
		}
	}
	return Status(trimmed)
}

func (s Status) Valid() bool {
	switch s {
	case StatusVulnerable, StatusError, StatusSafe:
		return true
	}
	return false
}

// Severity orders statuses for sorting: Vulnerable > Error > Safe > unknown.
func (s Status) Severity() int {
	switch s {
	case StatusVulnerable:
		return 3
	case StatusError:
		return 2
	case StatusSafe:
		return 1
	}
	return 0
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}

// API is an external endpoint registered for testing.
type API struct {
	ID          int        `json:"id,omitempty" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	URL         string     `json:"url" yaml:"url"`
	Description string     `json:"description" yaml:"description"`
	AddedBy     int        `json:"added_by,omitempty" yaml:"added_by"`
	AddedAt     *time.Time `json:"added_at,omitempty" yaml:"added_at,omitempty"`
}

func (a API) TableHeaders() []string {
	return []string{"ID", "Name", "URL", "Description"}
}

func (a API) TableRow() []string {
	return []string{strconv.Itoa(a.ID), a.Name, a.URL, lib.Truncate(a.Description, 60)}
}

func (a API) String() string {
	return fmt.Sprintf("ID: %d, Name: %s, URL: %s", a.ID, a.Name, a.URL)
}

func (a API) Pretty() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d\n", lib.Label("ID:"), a.ID)
	fmt.Fprintf(&b, "%s %s\n", lib.Label("Name:"), a.Name)
	fmt.Fprintf(&b, "%s %s\n", lib.Label("URL:"), a.URL)
	fmt.Fprintf(&b, "%s %s\n", lib.Label("Description:"), a.Description)
	if a.AddedBy != 0 {
		fmt.Fprintf(&b, "%s %d\n", lib.Label("Added by:"), a.AddedBy)
	}
	if a.AddedAt != nil {
		fmt.Fprintf(&b, "%s %s\n", lib.Label("Added at:"), a.AddedAt.Format(time.RFC3339))
	}
	return b.String()
}

// Test is a named security check the backend can run against an API.
type Test struct {
	ID           int    `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description" yaml:"description"`
	TestFunction string `json:"test_function,omitempty" yaml:"test_function,omitempty"`
}

func (t Test) TableHeaders() []string {
	return []string{"ID", "Name", "Description"}
}

func (t Test) TableRow() []string {
	return []string{strconv.Itoa(t.ID), t.Name, lib.Truncate(t.Description, 80)}
}

func (t Test) String() string {
	return fmt.Sprintf("ID: %d, Name: %s", t.ID, t.Name)
}

func (t Test) Pretty() string {
	return fmt.Sprintf("%s %d\n%s %s\n%s %s\n",
		lib.Label("ID:"), t.ID,
		lib.Label("Name:"), t.Name,
		lib.Label("Description:"), t.Description,
	)
}

// Result is the stored outcome of one test run.
type Result struct {
	ID         int       `json:"id" yaml:"id"`
	Test       Test      `json:"test" yaml:"test"`
	API        API       `json:"api" yaml:"api"`
	Status     Status    `json:"status" yaml:"status"`
	Detail     string    `json:"detail" yaml:"detail"`
	ExecutedAt time.Time `json:"executed_at" yaml:"executed_at"`
}

// UnmarshalJSON accepts test and api either as nested objects or as bare ids.
func (r *Result) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID         int             `json:"id"`
		Test       json.RawMessage `json:"test"`
		API        json.RawMessage `json:"api"`
		Status     Status          `json:"status"`
		Detail     string          `json:"detail"`
		ExecutedAt *time.Time      `json:"executed_at"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	r.ID = aux.ID
	r.Status = aux.Status
	r.Detail = aux.Detail
	r.ExecutedAt = time.Time{}
	if aux.ExecutedAt != nil {
		r.ExecutedAt = *aux.ExecutedAt
	}
	r.Test = Test{}
	if err := decodeRef(aux.Test, &r.Test, &r.Test.ID); err != nil {
		return fmt.Errorf("decoding result test: %w", err)
	}
	r.API = API{}
	if err := decodeRef(aux.API, &r.API, &r.API.ID); err != nil {
		return fmt.Errorf("decoding result api: %w", err)
	}
	return nil
}

func decodeRef(raw json.RawMessage, obj any, id *int) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] == '{' {
		return json.Unmarshal(raw, obj)
	}
	return json.Unmarshal(raw, id)
}

// TestLabel is the test name, or its id when the backend only sent a reference.
func (r Result) TestLabel() string {
	if r.Test.Name != "" {
		return r.Test.Name
	}
	return fmt.Sprintf("#%d", r.Test.ID)
}

// APILabel is the API name, or its id when the backend only sent a reference.
func (r Result) APILabel() string {
	if r.API.Name != "" {
		return r.API.Name
	}
	return fmt.Sprintf("#%d", r.API.ID)
}

func (r Result) executedLabel() string {
	if r.ExecutedAt.IsZero() {
		return "-"
	}
	return r.ExecutedAt.Format(time.RFC3339)
}

func (r Result) TableHeaders() []string {
	return []string{"ID", "Test Name", "API Name", "Status", "Details", "Executed"}
}

func (r Result) TableRow() []string {
	return []string{
		strconv.Itoa(r.ID),
		r.TestLabel(),
		r.APILabel(),
		string(r.Status),
		lib.Truncate(r.Detail, 60),
		r.executedLabel(),
	}
}

func (r Result) String() string {
	return fmt.Sprintf("ID: %d, Test: %s, API: %s, Status: %s", r.ID, r.TestLabel(), r.APILabel(), r.Status)
}

func (r Result) Pretty() string {
	return fmt.Sprintf("%s %d\n%s %s\n%s %s\n%s %s\n%s %s\n%s %s\n",
		lib.Label("ID:"), r.ID,
		lib.Label("Test:"), r.TestLabel(),
		lib.Label("API:"), r.APILabel(),
		lib.Label("Status:"), lib.ColorizeStatus(string(r.Status)),
		lib.Label("Detail:"), r.Detail,
		lib.Label("Executed at:"), r.executedLabel(),
	)
}

// RunResult is what the backend returns right after running a test.
type RunResult struct {
	TestID int    `json:"testId" yaml:"test_id"`
	Status Status `json:"status" yaml:"status"`
	Detail string `json:"detail" yaml:"detail"`
}

func (r RunResult) TableHeaders() []string {
	return []string{"Test ID", "Status", "Detail"}
}

func (r RunResult) TableRow() []string {
	return []string{strconv.Itoa(r.TestID), string(r.Status), lib.Truncate(r.Detail, 80)}
}

func (r RunResult) String() string {
	return fmt.Sprintf("Test: %d, Status: %s", r.TestID, r.Status)
}

func (r RunResult) Pretty() string {
	return fmt.Sprintf("%s %d\n%s %s\n%s %s\n",
		lib.Label("Test ID:"), r.TestID,
		lib.Label("Status:"), lib.ColorizeStatus(string(r.Status)),
		lib.Label("Detail:"), r.Detail,
	)
}

// APIResult is one row of the per-API results view, keyed by test name.
type APIResult struct {
	Test   string `json:"test" yaml:"test"`
	Status Status `json:"status" yaml:"status"`
	Detail string `json:"detail" yaml:"detail"`
}

func (r APIResult) TableHeaders() []string {
	return []string{"Test", "Status", "Detail"}
}

func (r APIResult) TableRow() []string {
	return []string{r.Test, string(r.Status), lib.Truncate(r.Detail, 80)}
}

func (r APIResult) String() string {
	return fmt.Sprintf("Test: %s, Status: %s", r.Test, r.Status)
}

func (r APIResult) Pretty() string {
	return fmt.Sprintf("%s %s\n%s %s\n%s %s\n",
		lib.Label("Test:"), r.Test,
		lib.Label("Status:"), lib.ColorizeStatus(string(r.Status)),
		lib.Label("Detail:"), r.Detail,
	)
}

// User is the authenticated account as reported by the backend.
type User struct {
	PK        int    `json:"pk" yaml:"pk"`
	Username  string `json:"username" yaml:"username"`
	Email     string `json:"email" yaml:"email"`
	FirstName string `json:"first_name" yaml:"first_name"`
	LastName  string `json:"last_name" yaml:"last_name"`
}

func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u User) TableHeaders() []string {
	return []string{"PK", "Username", "Email", "Name"}
}

func (u User) TableRow() []string {
	return []string{strconv.Itoa(u.PK), u.Username, u.Email, u.FullName()}
}

func (u User) String() string {
	return fmt.Sprintf("%s <%s>", u.Username, u.Email)
}

func (u User) Pretty() string {
	return fmt.Sprintf("%s %d\n%s %s\n%s %s\n%s %s\n",
		lib.Label("PK:"), u.PK,
		lib.Label("Username:"), u.Username,
		lib.Label("Email:"), u.Email,
		lib.Label("Name:"), u.FullName(),
	)
}

// Credentials identify a user on login. Either Username or Email is set.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

// Registration is the payload of the registration endpoint.
type Registration struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	Password1 string `json:"password1"`
	Password2 string `json:"password2"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}
