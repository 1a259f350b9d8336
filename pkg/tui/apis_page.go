package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pyneda/stapi/lib"
	"github.com/pyneda/stapi/pkg/client"
	"github.com/pyneda/stapi/pkg/dashboard"
)

const (
	msgAPICreated   = "API created successfully"
	msgAPIUpdated   = "API updated successfully"
	msgAPIDeleted   = "API deleted successfully"
	msgSaveFailed   = "Failed to save API"
	msgDeleteFailed = "Failed to delete API"
	msgLoadFailed   = "Failed to load APIs"
	msgNoneSelected = "No API selected"
)

// APIsPageModel lists the registered APIs and hosts the API form.
type APIsPageModel struct {
	ctx     context.Context
	backend Backend
	styles  Styles
	table   table.Model
	list    *dashboard.APIList
	form    *apiForm
	loading bool
	width   int
	height  int
}

func NewAPIsPageModel(ctx context.Context, backend Backend, styles Styles) APIsPageModel {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Name", Width: 24},
			{Title: "URL", Width: 40},
			{Title: "Description", Width: 40},
		}),
		table.WithFocused(true),
		table.WithHeight(12),
		table.WithStyles(styles.Table),
	)
	return APIsPageModel{
		ctx:     ctx,
		backend: backend,
		styles:  styles,
		table:   t,
		list:    dashboard.NewAPIList(nil),
		loading: true,
	}
}

func (m *APIsPageModel) SetSize(w, h int) {
	m.width = w
	m.height = h
	if h > 6 {
		m.table.SetHeight(h - 6)
	}
}

// Capturing reports whether keys go to a text input.
func (m APIsPageModel) Capturing() bool {
	return m.form != nil
}

func (m APIsPageModel) APIs() []client.API {
	return m.list.Items()
}

func (m APIsPageModel) selected() (client.API, bool) {
	items := m.list.Items()
	i := m.table.Cursor()
	if i < 0 || i >= len(items) {
		return client.API{}, false
	}
	return items[i], true
}

func (m *APIsPageModel) refreshRows() {
	items := m.list.Items()
	rows := make([]table.Row, 0, len(items))
	for _, api := range items {
		rows = append(rows, table.Row{api.Name, api.URL, lib.Truncate(api.Description, 40)})
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(len(rows) - 1)
	}
	if m.table.Cursor() < 0 {
		m.table.SetCursor(0)
	}
}

func (m APIsPageModel) Update(msg tea.Msg) (APIsPageModel, tea.Cmd) {
	switch msg := msg.(type) {
	case apisLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m, setStatus(msgLoadFailed+": "+msg.err.Error(), true)
		}
		m.list.Reset(msg.apis)
		m.refreshRows()
		return m, nil

	case apiSavedMsg:
		if m.form != nil {
			m.form.saving = false
		}
		if msg.err != nil {
			return m, setStatus(msgSaveFailed+": "+msg.err.Error(), true)
		}
		m.form = nil
		if msg.created {
			m.list.Add(*msg.api)
			m.refreshRows()
			return m, setStatus(msgAPICreated, false)
		}
		return m, tea.Batch(setStatus(msgAPIUpdated, false), loadAPIs(m.ctx, m.backend))

	case apiDeletedMsg:
		if msg.err != nil {
			return m, setStatus(msgDeleteFailed+": "+msg.err.Error(), true)
		}
		m.list.Remove(msg.id)
		m.refreshRows()
		return m, setStatus(msgAPIDeleted, false)

	case tea.KeyMsg:
		if m.form != nil {
			return m.updateForm(msg)
		}
		switch msg.String() {
		case "n":
			m.form = newAPIForm(dashboard.APIForm{})
			return m, nil
		case "e":
			api, ok := m.selected()
			if !ok {
				return m, setStatus(msgNoneSelected, true)
			}
			m.form = newAPIForm(dashboard.EditForm(api))
			return m, nil
		case "d":
			api, ok := m.selected()
			if !ok {
				return m, setStatus(msgNoneSelected, true)
			}
			return m, deleteAPI(m.ctx, m.backend, api.ID)
		case "r":
			m.loading = true
			return m, loadAPIs(m.ctx, m.backend)
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m APIsPageModel) updateForm(msg tea.KeyMsg) (APIsPageModel, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.form = nil
		return m, nil
	case "tab", "down":
		m.form.move(1)
		return m, nil
	case "shift+tab", "up":
		m.form.move(-1)
		return m, nil
	case "enter":
		if !m.form.lastField() {
			m.form.move(1)
			return m, nil
		}
		if m.form.saving {
			return m, nil
		}
		api, err := m.form.value().ToAPI(m.backend.CurrentUser())
		if err != nil {
			return m, setStatus(msgSaveFailed+": "+err.Error(), true)
		}
		m.form.saving = true
		return m, saveAPI(m.ctx, m.backend, api)
	}
	return m, m.form.update(msg)
}

func (m APIsPageModel) View() string {
	if m.form != nil {
		return m.form.view(m.styles)
	}
	if m.loading {
		return "Loading..."
	}
	var sb strings.Builder
	if m.list.Len() == 0 {
		sb.WriteString(m.styles.Muted.Render("No APIs registered yet. Press n to add one."))
		sb.WriteString("\n")
	} else {
		sb.WriteString(m.table.View())
		sb.WriteString("\n")
	}
	sb.WriteString(m.styles.Help.Render("n new • e edit • d delete • r refresh"))
	return sb.String()
}
