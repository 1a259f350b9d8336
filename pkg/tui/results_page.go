package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pyneda/stapi/lib"
	"github.com/pyneda/stapi/pkg/client"
	"github.com/pyneda/stapi/pkg/dashboard"
)

// statusFilters is the cycle of the s key. The empty status means all.
var statusFilters = []client.Status{"", client.StatusVulnerable, client.StatusError, client.StatusSafe}

// ResultsPageModel shows stored results with client-side filtering and sorting.
type ResultsPageModel struct {
	ctx       context.Context
	backend   Backend
	styles    Styles
	table     table.Model
	search    textinput.Model
	searching bool
	results   []client.Result
	visible   []client.Result
	apis      []client.API
	tests     []client.Test
	statusIdx int
	sortIdx   int
	loading   bool
}

func NewResultsPageModel(ctx context.Context, backend Backend, styles Styles) ResultsPageModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Test", Width: 24},
			{Title: "API", Width: 20},
			{Title: "Status", Width: 12},
			{Title: "Detail", Width: 40},
			{Title: "Executed", Width: 20},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
		table.WithStyles(styles.Table),
	)
	search := textinput.New()
	search.Placeholder = "Search test, API or detail..."
	search.CharLimit = 100
	search.Width = 40
	_ = search.Cursor.SetMode(cursor.CursorStatic)

	return ResultsPageModel{
		ctx:     ctx,
		backend: backend,
		styles:  styles,
		table:   t,
		search:  search,
		loading: true,
	}
}

func (m *ResultsPageModel) SetSize(_, h int) {
	if h > 7 {
		m.table.SetHeight(h - 7)
	}
}

// SetLookup supplies the APIs and tests used to name results that only
// reference them by id.
func (m *ResultsPageModel) SetLookup(apis []client.API, tests []client.Test) {
	m.apis = apis
	m.tests = tests
	m.apply()
}

func (m ResultsPageModel) Capturing() bool {
	return m.searching
}

func (m ResultsPageModel) filter() dashboard.ResultFilter {
	f := dashboard.ResultFilter{Search: strings.TrimSpace(m.search.Value())}
	if status := statusFilters[m.statusIdx]; status != "" {
		f.Statuses = []client.Status{status}
	}
	return f
}

func (m ResultsPageModel) order() dashboard.ResultSort {
	field := dashboard.SortFields[m.sortIdx]
	// names read best A to Z, the rest newest or most severe first
	ascending := field == dashboard.SortTest || field == dashboard.SortAPI
	return dashboard.ResultSort{Field: field, Ascending: ascending}
}

func (m *ResultsPageModel) apply() {
	resolved := dashboard.ResolveRefs(m.results, m.apis, m.tests)
	m.visible = dashboard.ApplyResults(resolved, m.filter(), m.order())
	rows := make([]table.Row, 0, len(m.visible))
	for _, r := range m.visible {
		executed := "-"
		if !r.ExecutedAt.IsZero() {
			executed = r.ExecutedAt.Local().Format(time.DateTime)
		}
		rows = append(rows, table.Row{r.TestLabel(), r.APILabel(), string(r.Status), lib.Truncate(r.Detail, 40), executed})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) || m.table.Cursor() < 0 {
		m.table.SetCursor(0)
	}
}

// Visible returns the results currently shown.
func (m ResultsPageModel) Visible() []client.Result {
	return append([]client.Result(nil), m.visible...)
}

func (m ResultsPageModel) Update(msg tea.Msg) (ResultsPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case resultsLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m, setStatus("Failed to load results: "+msg.err.Error(), true)
		}
		m.results = msg.results
		m.apply()
		return m, nil

	case tea.KeyMsg:
		if m.searching {
			switch msg.String() {
			case "enter", "esc":
				m.searching = false
				m.search.Blur()
				m.apply()
				return m, nil
			}
			var cmd tea.Cmd
			m.search, cmd = m.search.Update(msg)
			m.apply()
			return m, cmd
		}
		switch msg.String() {
		case "s":
			m.statusIdx = (m.statusIdx + 1) % len(statusFilters)
			m.apply()
			return m, nil
		case "o":
			m.sortIdx = (m.sortIdx + 1) % len(dashboard.SortFields)
			m.apply()
			return m, nil
		case "/":
			m.searching = true
			m.search.Focus()
			return m, nil
		case "r":
			m.loading = true
			return m, loadResults(m.ctx, m.backend)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m ResultsPageModel) View() string {
	if m.loading {
		return "Loading..."
	}
	var sb strings.Builder
	status := "All"
	if s := statusFilters[m.statusIdx]; s != "" {
		status = string(s)
	}
	sb.WriteString(m.styles.Muted.Render("Status: " + status + "  Sort: " + string(dashboard.SortFields[m.sortIdx])))
	sb.WriteString("\n")
	if m.searching || m.search.Value() != "" {
		sb.WriteString(m.search.View())
		sb.WriteString("\n")
	}
	if len(m.visible) == 0 {
		sb.WriteString(m.styles.Muted.Render("No results"))
	} else {
		sb.WriteString(m.table.View())
	}
	sb.WriteString("\n")
	sb.WriteString(m.styles.Help.Render("s status • o sort • / search • r refresh"))
	return sb.String()
}
