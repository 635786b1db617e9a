// Package detail renders one record full-screen as labeled fields.
package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/communisafe/communisafe/internal/keys"
	"github.com/communisafe/communisafe/internal/theme"
)

// BackMsg is sent when the user leaves the detail view.
type BackMsg struct{}

// Field is one labeled value in a record detail.
type Field struct {
	Label string
	Value string

	// Tag styles the value with a domain color when non-nil.
	Tag func(value string) lipgloss.Style
}

// Record is the displayable form of one domain record.
type Record struct {
	Title  string
	Fields []Field
}

// Model is the record detail view component.
type Model struct {
	keys     *keys.KeyMap
	viewport viewport.Model
	record   *Record
	width    int
	height   int
}

// New creates a new detail view model.
func New(k *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width-4, height-4)
	return Model{
		keys:     k,
		viewport: vp,
		width:    width,
		height:   height,
	}
}

// SetRecord replaces the displayed record and rewinds the viewport.
func (m *Model) SetRecord(r Record) {
	m.record = &r
	m.viewport.SetContent(m.renderRecord())
	m.viewport.GotoTop()
}

// Clear drops the displayed record.
func (m *Model) Clear() {
	m.record = nil
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return m, func() tea.Msg { return BackMsg{} }
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail panel.
func (m Model) View() string {
	if m.record == nil {
		return theme.DetailPanelStyle.
			Width(m.width - 4).
			Render(theme.HelpStyle.Render("Nothing selected."))
	}
	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Height(m.height - 4).
		Render(m.viewport.View())
}

// renderRecord lays the record out as a title plus aligned label/value
// rows, wrapping long values to the panel width.
func (m Model) renderRecord() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)
	labelStyle := lipgloss.NewStyle().
		Foreground(theme.ColorGray).
		Width(14)

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.record.Title))
	b.WriteString("\n")

	wrapWidth := m.width - 24
	if wrapWidth < 20 {
		wrapWidth = 20
	}
	valueStyle := lipgloss.NewStyle().Width(wrapWidth)

	for _, f := range m.record.Fields {
		if f.Value == "" {
			continue
		}
		value := f.Value
		if f.Tag != nil {
			value = f.Tag(f.Value).Render(f.Value)
		} else {
			value = valueStyle.Render(value)
		}
		row := lipgloss.JoinHorizontal(
			lipgloss.Top,
			labelStyle.Render(f.Label),
			value,
		)
		b.WriteString(row)
		b.WriteString("\n")
	}

	return b.String()
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width - 4
	m.viewport.Height = height - 4
	if m.record != nil {
		m.viewport.SetContent(m.renderRecord())
	}
}

// FormatCoords renders a lat/lng pair for display, empty when unset.
func FormatCoords(lat, lng float64) string {
	if lat == 0 && lng == 0 {
		return ""
	}
	return fmt.Sprintf("%.5f, %.5f", lat, lng)
}
