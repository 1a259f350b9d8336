package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pyneda/stapi/lib"
	"github.com/pyneda/stapi/pkg/client"
	"github.com/pyneda/stapi/pkg/dashboard"
)

// TestsPageModel runs tests against the selected API.
type TestsPageModel struct {
	ctx     context.Context
	backend Backend
	styles  Styles
	table   table.Model
	board   *dashboard.TestBoard
	apis    []client.API
	apiIdx  int
	running int
	loading bool
}

func NewTestsPageModel(ctx context.Context, backend Backend, styles Styles) TestsPageModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 24},
			{Title: "Description", Width: 36},
			{Title: "Status", Width: 12},
			{Title: "Detail", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
		table.WithStyles(styles.Table),
	)
	return TestsPageModel{
		ctx:     ctx,
		backend: backend,
		styles:  styles,
		table:   t,
		board:   dashboard.NewTestBoard(nil),
		apiIdx:  -1,
		loading: true,
	}
}

func (m *TestsPageModel) SetSize(_, h int) {
	if h > 7 {
		m.table.SetHeight(h - 7)
	}
}

// SetAPIs updates the choice of APIs, keeping the selection when it still exists.
func (m *TestsPageModel) SetAPIs(apis []client.API) {
	current := m.board.SelectedAPI()
	m.apis = append([]client.API(nil), apis...)
	m.apiIdx = -1
	for i, api := range m.apis {
		if api.ID == current {
			m.apiIdx = i
		}
	}
	if m.apiIdx == -1 && current != 0 {
		m.board.SelectAPI(0)
		m.refreshRows()
	}
}

func (m TestsPageModel) Tests() []client.Test {
	return m.board.Tests()
}

func (m TestsPageModel) selectedAPI() (client.API, bool) {
	if m.apiIdx < 0 || m.apiIdx >= len(m.apis) {
		return client.API{}, false
	}
	return m.apis[m.apiIdx], true
}

func (m *TestsPageModel) cycle(delta int) {
	if len(m.apis) == 0 {
		return
	}
	if m.apiIdx < 0 {
		m.apiIdx = 0
		if delta < 0 {
			m.apiIdx = len(m.apis) - 1
		}
	} else {
		m.apiIdx = (m.apiIdx + delta + len(m.apis)) % len(m.apis)
	}
	m.board.SelectAPI(m.apis[m.apiIdx].ID)
	m.refreshRows()
}

func (m *TestsPageModel) refreshRows() {
	rows := m.board.Rows()
	out := make([]table.Row, 0, len(rows))
	for _, r := range rows {
		out = append(out, table.Row{r.Test.Name, lib.Truncate(r.Test.Description, 36), r.Status, lib.Truncate(r.Detail, 40)})
	}
	m.table.SetRows(out)
	if m.table.Cursor() >= len(out) || m.table.Cursor() < 0 {
		m.table.SetCursor(0)
	}
}

func (m TestsPageModel) Update(msg tea.Msg) (TestsPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case testsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m, setStatus("Failed to load tests: "+msg.err.Error(), true)
		}
		m.board.SetTests(msg.tests)
		m.refreshRows()
		return m, nil

	case runAllMsg:
		m.running--
		if msg.apiID != m.board.SelectedAPI() {
			return m, nil
		}
		if msg.err != nil {
			return m, setStatus("Failed to run tests: "+msg.err.Error(), true)
		}
		m.board.ApplyRunAll(msg.results)
		m.refreshRows()
		return m, tea.Batch(setStatus(fmt.Sprintf("Ran %d tests", len(msg.results)), false), loadResults(m.ctx, m.backend))

	case runOneMsg:
		m.running--
		if msg.apiID != m.board.SelectedAPI() {
			return m, nil
		}
		if msg.err != nil {
			return m, setStatus(fmt.Sprintf("Failed to run test ID: %d: %s", msg.testID, msg.err), true)
		}
		m.board.ApplyRun(*msg.result)
		m.refreshRows()
		return m, tea.Batch(setStatus("Test finished: "+string(msg.result.Status), false), loadResults(m.ctx, m.backend))

	case tea.KeyMsg:
		switch msg.String() {
		case "]":
			m.cycle(1)
			return m, nil
		case "[":
			m.cycle(-1)
			return m, nil
		case "a":
			if err := m.board.CanRun(); err != nil {
				return m, setStatus("Select an API first", true)
			}
			m.running++
			return m, runAll(m.ctx, m.backend, m.board.SelectedAPI())
		case "enter":
			if err := m.board.CanRun(); err != nil {
				return m, setStatus("Select an API first", true)
			}
			tests := m.board.Tests()
			i := m.table.Cursor()
			if i < 0 || i >= len(tests) {
				return m, nil
			}
			m.running++
			return m, runOne(m.ctx, m.backend, m.board.SelectedAPI(), tests[i].ID)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m TestsPageModel) View() string {
	if m.loading {
		return "Loading..."
	}
	var sb strings.Builder
	if api, ok := m.selectedAPI(); ok {
		sb.WriteString(m.styles.Title.Render(fmt.Sprintf("API: %s (%s)", api.Name, api.URL)))
	} else {
		sb.WriteString(m.styles.Muted.Render("No API selected, use [ and ] to pick one"))
	}
	sb.WriteString("\n")
	if m.running > 0 {
		sb.WriteString(m.styles.Muted.Render("Running..."))
		sb.WriteString("\n")
	}
	sb.WriteString(m.table.View())
	sb.WriteString("\n")
	sb.WriteString(m.styles.Help.Render("[ ] select API • a run all • enter run selected"))
	return sb.String()
}
