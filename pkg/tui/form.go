package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pyneda/stapi/pkg/dashboard"
)

const (
	fieldName = iota
	fieldURL
	fieldDescription
	fieldCount
)

var fieldLabels = [fieldCount]string{"Name", "URL", "Description"}

// apiForm is the create/edit dialog of the APIs page.
type apiForm struct {
	id     int
	inputs [fieldCount]textinput.Model
	focus  int
	saving bool
}

func newInput(placeholder string, limit int) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = limit
	ti.Width = 50
	ti.Prompt = "> "
	_ = ti.Cursor.SetMode(cursor.CursorStatic)
	return ti
}

func newAPIForm(initial dashboard.APIForm) *apiForm {
	f := &apiForm{id: initial.ID}
	f.inputs[fieldName] = newInput("Payments API", dashboard.MaxNameLength)
	f.inputs[fieldURL] = newInput("https://api.example.com", 2048)
	f.inputs[fieldDescription] = newInput("What the API does", 500)
	f.inputs[fieldName].SetValue(initial.Name)
	f.inputs[fieldURL].SetValue(initial.URL)
	f.inputs[fieldDescription].SetValue(initial.Description)
	f.inputs[fieldName].Focus()
	return f
}

func (f *apiForm) value() dashboard.APIForm {
	return dashboard.APIForm{
		ID:          f.id,
		Name:        strings.TrimSpace(f.inputs[fieldName].Value()),
		URL:         strings.TrimSpace(f.inputs[fieldURL].Value()),
		Description: strings.TrimSpace(f.inputs[fieldDescription].Value()),
	}
}

func (f *apiForm) lastField() bool {
	return f.focus == fieldCount-1
}

func (f *apiForm) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + fieldCount) % fieldCount
	f.inputs[f.focus].Focus()
}

func (f *apiForm) update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return cmd
}

func (f *apiForm) view(s Styles) string {
	var sb strings.Builder
	title := "Add API"
	if f.id != 0 {
		title = "Edit API"
	}
	sb.WriteString(s.Title.Render(title))
	sb.WriteString("\n")
	for i := range f.inputs {
		label := s.Label.Render(fieldLabels[i])
		if i == f.focus {
			label = s.Label.Inherit(s.Focused).Render(fieldLabels[i])
		}
		sb.WriteString(label + f.inputs[i].View() + "\n")
	}
	if f.saving {
		sb.WriteString(s.Muted.Render("Saving...") + "\n")
	}
	sb.WriteString(s.Help.Render("enter next/save • tab/shift+tab move • esc cancel"))
	return sb.String()
}
