// Package command hosts the colon prompt for actions without a dedicated
// key, such as logout and account approvals.
package command

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/communisafe/communisafe/internal/theme"
)

// CommandMsg is emitted when the user executes a command.
type CommandMsg string

// CancelMsg is emitted when the user dismisses the prompt.
type CancelMsg struct{}

// knownCommands lists the canonical command spellings, in display order.
// Aliases ("sync", "approvals") stay accepted but are not suggested.
var knownCommands = []string{
	"refresh",
	"sensors",
	"pending users",
	"clear notifications",
	"logout",
	"quit",
}

// Model is the command prompt view.
type Model struct {
	input  textinput.Model
	width  int
	height int
}

// New creates a new command prompt model.
func New(width, height int) Model {
	ti := textinput.New()
	ti.Placeholder = "refresh, logout, clear notifications, pending users..."
	ti.Prompt = ": "
	ti.Focus()
	ti.Width = width - 6

	return Model{
		input:  ti,
		width:  width,
		height: height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages for the command prompt.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			cmd := strings.TrimSpace(m.input.Value())
			m.input.Reset()
			if cmd != "" {
				return m, func() tea.Msg {
					return CommandMsg(cmd)
				}
			}
			return m, nil

		case "esc":
			m.input.Reset()
			return m, func() tea.Msg {
				return CancelMsg{}
			}

		case "tab":
			if c := m.completions(); len(c) > 0 {
				m.input.SetValue(c[0])
				m.input.CursorEnd()
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// completions returns the known commands matching the typed prefix, all of
// them when nothing is typed yet.
func (m Model) completions() []string {
	typed := strings.ToLower(strings.TrimSpace(m.input.Value()))
	if typed == "" {
		return knownCommands
	}
	var matched []string
	for _, c := range knownCommands {
		if strings.HasPrefix(c, typed) {
			matched = append(matched, c)
		}
	}
	return matched
}

// View renders the command prompt.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := titleStyle.Render("Command")
	input := m.input.View()

	parts := []string{title, input}
	if c := m.completions(); len(c) > 0 {
		parts = append(parts, theme.HelpStyle.Render(strings.Join(c, "  ")))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return theme.DetailPanelStyle.
		Width(m.width - 4).
		Render(content)
}

// SetSize updates the command prompt dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = width - 6
}

// Focus gives keyboard focus to the text input.
func (m *Model) Focus() tea.Cmd {
	return m.input.Focus()
}
