package tui

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pyneda/stapi/pkg/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	mu        sync.Mutex
	apis      []client.API
	tests     []client.Test
	results   []client.Result
	outcomes  map[int]client.RunResult
	user      *client.User
	nextID    int
	failLoad  bool
	failSave  bool
	deleted   []int
	runAllFor []int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		apis: []client.API{
			{ID: 1, Name: "Shop", URL: "https://shop.example.com", Description: "store front"},
			{ID: 2, Name: "Bank", URL: "https://bank.example.com"},
		},
		tests: []client.Test{
			{ID: 1, Name: "SQL Injection", Description: "sqli"},
			{ID: 2, Name: "Auth bypass", Description: "auth"},
		},
		results: []client.Result{
			{ID: 1, Test: client.Test{ID: 1}, API: client.API{ID: 1}, Status: client.StatusSafe, Detail: "clean", ExecutedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
			{ID: 2, Test: client.Test{ID: 2}, API: client.API{ID: 2}, Status: client.StatusVulnerable, Detail: "token reuse", ExecutedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		},
		outcomes: map[int]client.RunResult{
			1: {TestID: 1, Status: client.StatusVulnerable, Detail: "payload accepted"},
			2: {TestID: 2, Status: client.StatusSafe, Detail: "ok"},
		},
		user:   &client.User{PK: 7, Username: "alice"},
		nextID: 3,
	}
}

func (f *fakeBackend) ListAPIs(context.Context) ([]client.API, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoad {
		return nil, errors.New("boom")
	}
	return append([]client.API(nil), f.apis...), nil
}

func (f *fakeBackend) CreateAPI(_ context.Context, api client.API) (*client.API, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failSave {
		return nil, errors.New("Server responded with an error")
	}
	api.ID = f.nextID
	f.nextID++
	f.apis = append(f.apis, api)
	return &api, nil
}

func (f *fakeBackend) UpdateAPI(_ context.Context, id int, api client.API) (*client.API, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.apis {
		if f.apis[i].ID == id {
			api.ID = id
			f.apis[i] = api
			return &api, nil
		}
	}
	return nil, errors.New("Not found.")
}

func (f *fakeBackend) DeleteAPI(_ context.Context, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	for i := range f.apis {
		if f.apis[i].ID == id {
			f.apis = append(f.apis[:i], f.apis[i+1:]...)
			return nil
		}
	}
	return errors.New("Not found.")
}

func (f *fakeBackend) ListTests(context.Context) ([]client.Test, error) {
	return f.tests, nil
}

func (f *fakeBackend) RunAll(_ context.Context, apiID int) ([]client.RunResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runAllFor = append(f.runAllFor, apiID)
	return []client.RunResult{f.outcomes[1], f.outcomes[2]}, nil
}

func (f *fakeBackend) RunTest(_ context.Context, _ int, testID int) (*client.RunResult, error) {
	r := f.outcomes[testID]
	return &r, nil
}

func (f *fakeBackend) ListResults(context.Context) ([]client.Result, error) {
	return f.results, nil
}

func (f *fakeBackend) CurrentUser() *client.User {
	return f.user
}

// send feeds msg to the model and runs the resulting commands until none are
// left, ignoring quit.
func send(t *testing.T, m tea.Model, msg tea.Msg) tea.Model {
	t.Helper()
	m, cmd := m.Update(msg)
	return drain(t, m, cmd)
}

func drain(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == nil {
			continue
		}
		switch msg := next().(type) {
		case nil, tea.QuitMsg:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			var more tea.Cmd
			m, more = m.Update(msg)
			queue = append(queue, more)
		}
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "shift+tab":
		return tea.KeyMsg{Type: tea.KeyShiftTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func started(t *testing.T, backend Backend) tea.Model {
	t.Helper()
	var m tea.Model = New(context.Background(), backend)
	m = send(t, m, tea.WindowSizeMsg{Width: 160, Height: 40})
	return drain(t, m, m.Init())
}

func TestLoadingState(t *testing.T) {
	m := New(context.Background(), newFakeBackend())
	assert.Contains(t, m.View(), "Loading...")
}

func TestAPIsPageListsAPIs(t *testing.T) {
	m := started(t, newFakeBackend())
	view := m.View()
	assert.Contains(t, view, "Shop")
	assert.Contains(t, view, "https://bank.example.com")
	assert.Contains(t, view, "store front")
}

func TestLoadFailureShowsStatus(t *testing.T) {
	backend := newFakeBackend()
	backend.failLoad = true
	m := started(t, backend)
	assert.Contains(t, m.(Model).Status(), "Failed to load APIs")
}

func TestCreateAPI(t *testing.T) {
	backend := newFakeBackend()
	m := started(t, backend)

	m = send(t, m, key("n"))
	assert.Contains(t, m.View(), "Add API")

	m = send(t, m, key("Payments"))
	m = send(t, m, key("enter"))
	m = send(t, m, key("https://pay.example.com"))
	m = send(t, m, key("enter"))
	m = send(t, m, key("billing q"))
	m = send(t, m, key("enter"))

	root := m.(Model)
	assert.Equal(t, "API created successfully", root.Status())
	require.Len(t, backend.apis, 3)
	assert.Equal(t, "Payments", backend.apis[2].Name)
	assert.Equal(t, 7, backend.apis[2].AddedBy)
	assert.Equal(t, "billing q", backend.apis[2].Description)
	assert.Contains(t, m.View(), "https://pay.example.com")
	assert.NotContains(t, m.View(), "Add API")
}

func TestCreateAPIValidation(t *testing.T) {
	backend := newFakeBackend()
	m := started(t, backend)

	m = send(t, m, key("n"))
	m = send(t, m, key("Broken"))
	m = send(t, m, key("enter"))
	m = send(t, m, key("not a url"))
	m = send(t, m, key("enter"))
	m = send(t, m, key("enter"))

	assert.Contains(t, m.(Model).Status(), "Failed to save API")
	assert.Contains(t, m.View(), "Add API", "form stays open")
	assert.Len(t, backend.apis, 2)

	m = send(t, m, key("esc"))
	assert.NotContains(t, m.View(), "Add API")
}

func TestCreateAPIServerError(t *testing.T) {
	backend := newFakeBackend()
	backend.failSave = true
	m := started(t, backend)

	m = send(t, m, key("n"))
	m = send(t, m, key("X"))
	m = send(t, m, key("tab"))
	m = send(t, m, key("https://x.example.com"))
	m = send(t, m, key("tab"))
	m = send(t, m, key("x"))
	m = send(t, m, key("enter"))

	assert.Equal(t, "Failed to save API: Server responded with an error", m.(Model).Status())
}

func TestCreateAPIRequiresDescription(t *testing.T) {
	backend := newFakeBackend()
	m := started(t, backend)

	m = send(t, m, key("n"))
	m = send(t, m, key("Quiet"))
	m = send(t, m, key("tab"))
	m = send(t, m, key("https://quiet.example.com"))
	m = send(t, m, key("tab"))
	m = send(t, m, key("enter"))

	assert.Contains(t, m.(Model).Status(), "Description is required")
	assert.Contains(t, m.View(), "Add API", "form stays open")
	assert.Len(t, backend.apis, 2)
}

func TestEditAPI(t *testing.T) {
	backend := newFakeBackend()
	m := started(t, backend)

	m = send(t, m, key("e"))
	assert.Contains(t, m.View(), "Edit API")
	m = send(t, m, key(" v2"))
	m = send(t, m, key("enter"))
	m = send(t, m, key("enter"))
	m = send(t, m, key("enter"))

	assert.Equal(t, "API updated successfully", m.(Model).Status())
	assert.Equal(t, "Shop v2", backend.apis[0].Name)
	assert.Contains(t, m.View(), "Shop v2")
}

func TestDeleteAPI(t *testing.T) {
	backend := newFakeBackend()
	m := started(t, backend)

	m = send(t, m, key("down"))
	m = send(t, m, key("d"))

	assert.Equal(t, "API deleted successfully", m.(Model).Status())
	assert.Equal(t, []int{2}, backend.deleted)
	assert.NotContains(t, m.View(), "Bank")
}

func TestPageSwitching(t *testing.T) {
	m := started(t, newFakeBackend())
	assert.Equal(t, PageAPIs, m.(Model).Page())

	m = send(t, m, key("tab"))
	assert.Equal(t, PageTests, m.(Model).Page())
	m = send(t, m, key("tab"))
	assert.Equal(t, PageResults, m.(Model).Page())
	m = send(t, m, key("tab"))
	assert.Equal(t, PageAPIs, m.(Model).Page())
	m = send(t, m, key("shift+tab"))
	assert.Equal(t, PageResults, m.(Model).Page())
}

func TestQuit(t *testing.T) {
	m := started(t, newFakeBackend())
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	m = send(t, m, key("n"))
	_, cmd = m.Update(key("q"))
	if cmd != nil {
		assert.NotEqual(t, tea.QuitMsg{}, cmd())
	}
	_, cmd = m.Update(key("ctrl+c"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTestsPage(t *testing.T) {
	backend := newFakeBackend()
	m := started(t, backend)
	m = send(t, m, key("tab"))

	view := m.View()
	assert.Contains(t, view, "No API selected")
	assert.Contains(t, view, "Not Run")

	m = send(t, m, key("a"))
	assert.Equal(t, "Select an API first", m.(Model).Status())

	m = send(t, m, key("]"))
	assert.Contains(t, m.View(), "API: Shop")
	m = send(t, m, key("]"))
	assert.Contains(t, m.View(), "API: Bank")
	m = send(t, m, key("["))
	assert.Contains(t, m.View(), "API: Shop")

	m = send(t, m, key("a"))
	assert.Equal(t, []int{1}, backend.runAllFor)
	view = m.View()
	assert.Contains(t, view, "Vulnerable")
	assert.Contains(t, view, "payload accepted")
	assert.NotContains(t, view, "Not Run")

	m = send(t, m, key("]"))
	assert.Contains(t, m.View(), "Not Run", "switching API resets results")

	m = send(t, m, key("enter"))
	view = m.View()
	assert.Contains(t, view, "payload accepted")
	assert.Contains(t, view, "Not Run")
}

func TestResultsPage(t *testing.T) {
	m := started(t, newFakeBackend())
	m = send(t, m, key("shift+tab"))
	require.Equal(t, PageResults, m.(Model).Page())

	view := m.View()
	assert.Contains(t, view, "token reuse")
	assert.Contains(t, view, "clean")
	assert.Contains(t, view, "Status: All")
	assert.Contains(t, view, "SQL Injection")
	assert.Contains(t, view, "Bank")
	assert.NotContains(t, view, "#1")

	m = send(t, m, key("s"))
	view = m.View()
	assert.Contains(t, view, "Status: Vulnerable")
	assert.Contains(t, view, "token reuse")
	assert.NotContains(t, view, "clean")

	m = send(t, m, key("s"))
	assert.Contains(t, m.View(), "No results")
	m = send(t, m, key("s"))
	m = send(t, m, key("s"))
	assert.Contains(t, m.View(), "Status: All")

	m = send(t, m, key("o"))
	assert.Contains(t, m.View(), "Sort: status")

	m = send(t, m, key("/"))
	m = send(t, m, key("shop"))
	m = send(t, m, key("enter"))
	view = m.View()
	assert.Contains(t, view, "clean")
	assert.NotContains(t, view, "token reuse")
	assert.Equal(t, PageResults, m.(Model).Page())

	visible := m.(Model).results.Visible()
	require.Len(t, visible, 1)
	assert.True(t, strings.EqualFold(visible[0].API.Name, "shop"))
}
