package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type Page int

const (
	PageAPIs Page = iota
	PageTests
	PageResults
	pageCount
)

var pageTitles = [pageCount]string{"APIs", "Tests", "Results"}

func (p Page) String() string {
	return pageTitles[p]
}

// Model is the root dashboard model.
type Model struct {
	ctx     context.Context
	backend Backend
	styles  Styles

	page    Page
	apis    APIsPageModel
	tests   TestsPageModel
	results ResultsPageModel

	status    string
	statusErr bool
	width     int
	height    int
}

func New(ctx context.Context, backend Backend) Model {
	styles := DefaultStyles()
	return Model{
		ctx:     ctx,
		backend: backend,
		styles:  styles,
		apis:    NewAPIsPageModel(ctx, backend, styles),
		tests:   NewTestsPageModel(ctx, backend, styles),
		results: NewResultsPageModel(ctx, backend, styles),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadAPIs(m.ctx, m.backend),
		loadTests(m.ctx, m.backend),
		loadResults(m.ctx, m.backend),
	)
}

func (m Model) Page() Page {
	return m.page
}

func (m Model) Status() string {
	return m.status
}

func (m Model) capturing() bool {
	switch m.page {
	case PageAPIs:
		return m.apis.Capturing()
	case PageResults:
		return m.results.Capturing()
	}
	return false
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.apis.SetSize(msg.Width, msg.Height)
		m.tests.SetSize(msg.Width, msg.Height)
		m.results.SetSize(msg.Width, msg.Height)
		return m, nil

	case statusMsg:
		m.status = msg.text
		m.statusErr = msg.err
		return m, nil

	case apisLoadedMsg, apiSavedMsg, apiDeletedMsg:
		m.apis, cmd = m.apis.Update(msg)
		m.tests.SetAPIs(m.apis.APIs())
		m.results.SetLookup(m.apis.APIs(), m.tests.Tests())
		return m, cmd

	case testsLoadedMsg, runAllMsg, runOneMsg:
		m.tests, cmd = m.tests.Update(msg)
		m.results.SetLookup(m.apis.APIs(), m.tests.Tests())
		return m, cmd

	case resultsLoadedMsg:
		m.results, cmd = m.results.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if !m.capturing() {
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "tab":
				m.page = (m.page + 1) % pageCount
				return m, nil
			case "shift+tab":
				m.page = (m.page + pageCount - 1) % pageCount
				return m, nil
			}
		}
	}

	switch m.page {
	case PageAPIs:
		m.apis, cmd = m.apis.Update(msg)
	case PageTests:
		m.tests, cmd = m.tests.Update(msg)
	case PageResults:
		m.results, cmd = m.results.Update(msg)
	}
	return m, cmd
}

func (m Model) View() string {
	var sb strings.Builder

	tabs := make([]string, 0, pageCount)
	for p := Page(0); p < pageCount; p++ {
		style := m.styles.Tab
		if p == m.page {
			style = m.styles.ActiveTab
		}
		tabs = append(tabs, style.Render(p.String()))
	}
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, m.styles.Header.Render("API Security Testing"), " ", strings.Join(tabs, "")))
	sb.WriteString("\n\n")

	switch m.page {
	case PageAPIs:
		sb.WriteString(m.apis.View())
	case PageTests:
		sb.WriteString(m.tests.View())
	case PageResults:
		sb.WriteString(m.results.View())
	}
	sb.WriteString("\n\n")

	if m.status != "" {
		style := m.styles.Success
		if m.statusErr {
			style = m.styles.Error
		}
		sb.WriteString(style.Render(m.status))
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Help.Render("tab/shift+tab switch page • q quit"))
	return sb.String()
}

// Run starts the dashboard on the terminal.
func Run(ctx context.Context, backend Backend, opts ...tea.ProgramOption) error {
	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	_, err := tea.NewProgram(New(ctx, backend), opts...).Run()
	return err
}
