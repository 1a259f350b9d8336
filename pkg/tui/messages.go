package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pyneda/stapi/pkg/client"
)

type apisLoadedMsg struct {
	apis []client.API
	err  error
}

type apiSavedMsg struct {
	api     *client.API
	created bool
	err     error
}

type apiDeletedMsg struct {
	id  int
	err error
}

type testsLoadedMsg struct {
	tests []client.Test
	err   error
}

type runAllMsg struct {
	apiID   int
	results []client.RunResult
	err     error
}

type runOneMsg struct {
	apiID  int
	testID int
	result *client.RunResult
	err    error
}

type resultsLoadedMsg struct {
	results []client.Result
	err     error
}

// statusMsg sets the status line.
type statusMsg struct {
	text string
	err  bool
}

func loadAPIs(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		apis, err := b.ListAPIs(ctx)
		return apisLoadedMsg{apis: apis, err: err}
	}
}

func saveAPI(ctx context.Context, b Backend, api client.API) tea.Cmd {
	return func() tea.Msg {
		if api.ID != 0 {
			saved, err := b.UpdateAPI(ctx, api.ID, api)
			return apiSavedMsg{api: saved, err: err}
		}
		saved, err := b.CreateAPI(ctx, api)
		return apiSavedMsg{api: saved, created: true, err: err}
	}
}

func deleteAPI(ctx context.Context, b Backend, id int) tea.Cmd {
	return func() tea.Msg {
		return apiDeletedMsg{id: id, err: b.DeleteAPI(ctx, id)}
	}
}

func loadTests(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		tests, err := b.ListTests(ctx)
		return testsLoadedMsg{tests: tests, err: err}
	}
}

func runAll(ctx context.Context, b Backend, apiID int) tea.Cmd {
	return func() tea.Msg {
		results, err := b.RunAll(ctx, apiID)
		return runAllMsg{apiID: apiID, results: results, err: err}
	}
}

func runOne(ctx context.Context, b Backend, apiID, testID int) tea.Cmd {
	return func() tea.Msg {
		result, err := b.RunTest(ctx, apiID, testID)
		return runOneMsg{apiID: apiID, testID: testID, result: result, err: err}
	}
}

func loadResults(ctx context.Context, b Backend) tea.Cmd {
	return func() tea.Msg {
		results, err := b.ListResults(ctx)
		return resultsLoadedMsg{results: results, err: err}
	}
}

func setStatus(text string, isErr bool) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{text: text, err: isErr}
	}
}
