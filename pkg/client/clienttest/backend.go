// Package clienttest provides an in-memory fake of the security-testing backend
// for tests of packages built on the client.
package clienttest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pyneda/stapi/pkg/client"
)

const (
	DefaultSafeDetail = "No vulnerabilities detected."
	invalidLogin      = "Unable to log in with provided credentials."
)

type account struct {
	user     client.User
	password string
}

// Backend is a fake backend speaking the REST contract of the real service.
type Backend struct {
	Server *httptest.Server

	mu        sync.Mutex
	accounts  map[string]*account
	tokens    map[string]int
	apis      []client.API
	tests     []client.Test
	results   []client.Result
	outcomes  map[int]client.RunResult
	failRuns  map[int]bool
	nextUser  int
	nextAPI   int
	nextToken int
	nextRes   int
	requests  []string
	now       func() time.Time
	// nested makes result listings embed tests and APIs instead of ids.
	nested bool
}

// New starts a fake backend that is closed when the test ends.
func New(t testing.TB) *Backend {
	t.Helper()
	b := &Backend{
		accounts: make(map[string]*account),
		tokens:   make(map[string]int),
		outcomes: make(map[int]client.RunResult),
		failRuns: make(map[int]bool),
		now:      time.Now,
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the server root.
func (b *Backend) URL() string {
	return b.Server.URL
}

// Client returns a client pointed at the fake backend using tokens.
func (b *Backend) Client(t testing.TB, tokens client.TokenSource) *client.Client {
	t.Helper()
	c, err := client.New(client.Options{Server: b.URL(), Tokens: tokens})
	if err != nil {
		t.Fatalf("creating client: %v", err)
	}
	return c
}

// NestResults makes the results listing embed full test and API objects, the
// shape older deployments serve, instead of bare ids.
func (b *Backend) NestResults() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nested = true
}

func (b *Backend) AddUser(username, email, password string) client.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextUser++
	u := client.User{PK: b.nextUser, Username: username, Email: email}
	b.accounts[username] = &account{user: u, password: password}
	return u
}

// IssueToken returns a valid token for an existing user.
func (b *Backend) IssueToken(username string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	acc, ok := b.accounts[username]
	if !ok {
		return ""
	}
	return b.issueTokenLocked(acc.user.PK)
}

func (b *Backend) issueTokenLocked(pk int) string {
	b.nextToken++
	token := fmt.Sprintf("token-%d", b.nextToken)
	b.tokens[token] = pk
	return token
}

func (b *Backend) AddAPI(api client.API) client.API {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextAPI++
	api.ID = b.nextAPI
	b.apis = append(b.apis, api)
	return api
}

func (b *Backend) AddTest(name, description string) client.Test {
	b.mu.Lock()
	defer b.mu.Unlock()
	test := client.Test{ID: len(b.tests) + 1, Name: name, Description: description}
	b.tests = append(b.tests, test)
	return test
}

// SetOutcome fixes the result returned when testID runs. Unset tests are Safe.
func (b *Backend) SetOutcome(testID int, status client.Status, detail string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.outcomes[testID] = client.RunResult{TestID: testID, Status: status, Detail: detail}
}

// FailRun makes single runs of testID answer with a server error.
func (b *Backend) FailRun(testID int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failRuns[testID] = true
}

func (b *Backend) APIs() []client.API {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]client.API(nil), b.apis...)
}

func (b *Backend) Results() []client.Result {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]client.Result(nil), b.results...)
}

// Requests lists "METHOD path" for every request received so far.
func (b *Backend) Requests() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.requests...)
}

// TokenValid reports whether token is still accepted.
func (b *Backend) TokenValid(token string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tokens[token]
	return ok
}

func (b *Backend) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/{$}", b.login)
	mux.HandleFunc("POST /api/auth/logout/{$}", b.authed(b.logout))
	mux.HandleFunc("GET /api/auth/user/{$}", b.authed(b.currentUser))
	mux.HandleFunc("POST /api/auth/registration/{$}", b.register)
	mux.HandleFunc("GET /api/apis/{$}", b.authed(b.listAPIs))
	mux.HandleFunc("POST /api/apis/{$}", b.authed(b.createAPI))
	mux.HandleFunc("GET /api/apis/{id}/{$}", b.authed(b.getAPI))
	mux.HandleFunc("PUT /api/apis/{id}/{$}", b.authed(b.updateAPI))
	mux.HandleFunc("DELETE /api/apis/{id}/{$}", b.authed(b.deleteAPI))
	mux.HandleFunc("GET /api/tests/{$}", b.authed(b.listTests))
	mux.HandleFunc("GET /api/results/{$}", b.authed(b.listResults))
	mux.HandleFunc("POST /run-tests/{api}/{$}", b.authed(b.runAll))
	mux.HandleFunc("POST /run-test/{api}/{test}/{$}", b.authed(b.runOne))
	mux.HandleFunc("GET /view-results/{api}/{$}", b.authed(b.viewResults))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, r.Method+" "+r.URL.Path)
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, user client.User)

func (b *Backend) authed(next authedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Token ")
		if !ok {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Authentication credentials were not provided."})
			return
		}
		b.mu.Lock()
		pk, valid := b.tokens[token]
		var user client.User
		for _, acc := range b.accounts {
			if acc.user.PK == pk {
				user = acc.user
			}
		}
		b.mu.Unlock()
		if !valid {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Invalid token."})
			return
		}
		next(w, r, user)
	}
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var creds client.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "JSON parse error"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, acc := range b.accounts {
		matches := (creds.Username != "" && acc.user.Username == creds.Username) ||
			(creds.Email != "" && acc.user.Email == creds.Email)
		if matches && acc.password == creds.Password {
			writeJSON(w, http.StatusOK, map[string]any{"key": b.issueTokenLocked(acc.user.PK)})
			return
		}
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"non_field_errors": []string{invalidLogin}})
}

func (b *Backend) logout(w http.ResponseWriter, r *http.Request, _ client.User) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Token ")
	b.mu.Lock()
	delete(b.tokens, token)
	b.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"detail": "Successfully logged out."})
}

func (b *Backend) currentUser(w http.ResponseWriter, _ *http.Request, user client.User) {
	writeJSON(w, http.StatusOK, user)
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var reg client.Registration
	if err := json.NewDecoder(r.Body).Decode(&reg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "JSON parse error"})
		return
	}
	if reg.Password1 != reg.Password2 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"non_field_errors": []string{"The two password fields didn't match."}})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.accounts[reg.Username]; exists {
		writeJSON(w, http.StatusBadRequest, map[string]any{"username": []string{"A user with that username already exists."}})
		return
	}
	b.nextUser++
	b.accounts[reg.Username] = &account{
		user: client.User{
			PK:        b.nextUser,
			Username:  reg.Username,
			Email:     reg.Email,
			FirstName: reg.FirstName,
			LastName:  reg.LastName,
		},
		password: reg.Password1,
	}
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) listAPIs(w http.ResponseWriter, _ *http.Request, _ client.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeData(w, http.StatusOK, append([]client.API{}, b.apis...))
}

func (b *Backend) createAPI(w http.ResponseWriter, r *http.Request, user client.User) {
	var api client.API
	if err := json.NewDecoder(r.Body).Decode(&api); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "JSON parse error"})
		return
	}
	if api.Name == "" || api.URL == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"name": []string{"This field is required."}})
		return
	}
	if api.AddedBy == 0 {
		api.AddedBy = user.PK
	}
	b.mu.Lock()
	b.nextAPI++
	api.ID = b.nextAPI
	now := b.now().UTC()
	api.AddedAt = &now
	b.apis = append(b.apis, api)
	b.mu.Unlock()
	writeJSON(w, http.StatusCreated, api)
}

func (b *Backend) findAPILocked(r *http.Request, key string) (int, bool) {
	id, err := strconv.Atoi(r.PathValue(key))
	if err != nil {
		return -1, false
	}
	for i, api := range b.apis {
		if api.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (b *Backend) getAPI(w http.ResponseWriter, r *http.Request, _ client.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.findAPILocked(r, "id")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	writeData(w, http.StatusOK, b.apis[idx])
}

func (b *Backend) updateAPI(w http.ResponseWriter, r *http.Request, _ client.User) {
	var api client.API
	if err := json.NewDecoder(r.Body).Decode(&api); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"detail": "JSON parse error"})
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.findAPILocked(r, "id")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	api.ID = b.apis[idx].ID
	api.AddedAt = b.apis[idx].AddedAt
	b.apis[idx] = api
	writeJSON(w, http.StatusOK, api)
}

func (b *Backend) deleteAPI(w http.ResponseWriter, r *http.Request, _ client.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.findAPILocked(r, "id")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	b.apis = append(b.apis[:idx], b.apis[idx+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) listTests(w http.ResponseWriter, _ *http.Request, _ client.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	writeData(w, http.StatusOK, append([]client.Test{}, b.tests...))
}

// resultRecord is a stored result as the model serializer renders it, with
// foreign keys as ids.
type resultRecord struct {
	ID         int           `json:"id"`
	Test       int           `json:"test"`
	API        int           `json:"api"`
	Status     client.Status `json:"status"`
	Detail     string        `json:"detail"`
	ExecutedAt time.Time     `json:"executed_at"`
	ExecutedBy int           `json:"executed_by"`
}

func (b *Backend) listResults(w http.ResponseWriter, _ *http.Request, user client.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.nested {
		writeData(w, http.StatusOK, append([]client.Result{}, b.results...))
		return
	}
	records := make([]resultRecord, 0, len(b.results))
	for _, res := range b.results {
		records = append(records, resultRecord{
			ID:         res.ID,
			Test:       res.Test.ID,
			API:        res.API.ID,
			Status:     res.Status,
			Detail:     res.Detail,
			ExecutedAt: res.ExecutedAt,
			ExecutedBy: user.PK,
		})
	}
	writeData(w, http.StatusOK, records)
}

// runLocked executes a fake run and stores its result.
func (b *Backend) runLocked(api client.API, test client.Test) client.RunResult {
	outcome, ok := b.outcomes[test.ID]
	if !ok {
		outcome = client.RunResult{TestID: test.ID, Status: client.StatusSafe, Detail: DefaultSafeDetail}
	}
	b.nextRes++
	b.results = append(b.results, client.Result{
		ID:         b.nextRes,
		Test:       test,
		API:        api,
		Status:     outcome.Status,
		Detail:     outcome.Detail,
		ExecutedAt: b.now().UTC(),
	})
	return outcome
}

func (b *Backend) runAll(w http.ResponseWriter, r *http.Request, _ client.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.findAPILocked(r, "api")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	results := make([]client.RunResult, 0, len(b.tests))
	for _, test := range b.tests {
		results = append(results, b.runLocked(b.apis[idx], test))
	}
	writeData(w, http.StatusOK, results)
}

func (b *Backend) runOne(w http.ResponseWriter, r *http.Request, _ client.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	idx, ok := b.findAPILocked(r, "api")
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
		return
	}
	testID, _ := strconv.Atoi(r.PathValue("test"))
	if b.failRuns[testID] {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"message": "test crashed"})
		return
	}
	for _, test := range b.tests {
		if test.ID == testID {
			writeData(w, http.StatusOK, b.runLocked(b.apis[idx], test))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
}

func (b *Backend) viewResults(w http.ResponseWriter, r *http.Request, _ client.User) {
	b.mu.Lock()
	defer b.mu.Unlock()
	apiID, _ := strconv.Atoi(r.PathValue("api"))
	rows := []client.APIResult{}
	for _, res := range b.results {
		if res.API.ID == apiID {
			rows = append(rows, client.APIResult{Test: res.Test.Name, Status: res.Status, Detail: res.Detail})
		}
	}
	writeData(w, http.StatusOK, rows)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"data": data, "message": nil})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
