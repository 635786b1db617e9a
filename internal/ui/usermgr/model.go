// Package usermgr is the pending-account approval queue for admins.
package usermgr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/communisafe/communisafe/internal/api"
	"github.com/communisafe/communisafe/internal/keys"
	"github.com/communisafe/communisafe/internal/model"
	"github.com/communisafe/communisafe/internal/theme"
)

// CloseMsg is sent when the user leaves the approval queue.
type CloseMsg struct{}

// usersLoadedMsg carries the pending accounts fetch result.
type usersLoadedMsg struct {
	users []model.User
	err   error
}

// statusSetMsg carries the outcome of an approve/reject call.
type statusSetMsg struct {
	err error
}

// Model is the pending-account queue component.
type Model struct {
	client  *api.Client
	keys    *keys.KeyMap
	users   []model.User
	cursor  int
	loadErr error
	actErr  error
	width   int
	height  int
}

// New creates the approval queue model.
func New(client *api.Client, k *keys.KeyMap, width, height int) Model {
	return Model{
		client: client,
		keys:   k,
		width:  width,
		height: height,
	}
}

// Init fetches the pending accounts.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Update handles messages for the approval queue.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case usersLoadedMsg:
		m.loadErr = msg.err
		if msg.err == nil {
			m.users = msg.users
			if m.cursor >= len(m.users) {
				m.cursor = len(m.users) - 1
			}
			if m.cursor < 0 {
				m.cursor = 0
			}
		}
		return m, nil

	case statusSetMsg:
		m.actErr = msg.err
		return m, m.load()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return CloseMsg{} }

		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.users)-1 {
				m.cursor++
			}
			return m, nil

		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil

		case key.Matches(msg, m.keys.Refresh):
			return m, m.load()

		case key.Matches(msg, m.keys.Approve):
			return m, m.setStatus(model.AccountActive)

		case key.Matches(msg, m.keys.Reject):
			return m, m.setStatus(model.AccountRejected)
		}
	}
	return m, nil
}

// load fetches the pending accounts.
func (m Model) load() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		users, err := client.ListPendingUsers(ctx)
		return usersLoadedMsg{users: users, err: err}
	}
}

// setStatus approves or rejects the focused account, keeping its
// requested role.
func (m Model) setStatus(status string) tea.Cmd {
	if m.cursor < 0 || m.cursor >= len(m.users) {
		return nil
	}
	user := m.users[m.cursor]
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		err := client.SetUserStatus(ctx, user.ID, status, user.Role)
		return statusSetMsg{err: err}
	}
}

// View renders the approval queue.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Pending Accounts"))
	b.WriteString("\n")

	if m.loadErr != nil {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render("load failed: " + m.loadErr.Error()))
		b.WriteString("\n")
	}
	if m.actErr != nil {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render("action failed: " + m.actErr.Error()))
		b.WriteString("\n")
	}

	if len(m.users) == 0 {
		b.WriteString(theme.HelpStyle.Render("No accounts awaiting approval."))
		return theme.DetailPanelStyle.Width(m.width - 4).Render(b.String())
	}

	for i, u := range m.users {
		line := fmt.Sprintf("%s  %s", u.Name, u.Email)
		role := theme.RoleStyle(string(u.Role)).Render(string(u.Role))
		if i == m.cursor {
			b.WriteString(theme.SelectedItemStyle.Render(line + " " + role))
		} else {
			b.WriteString(theme.ListItemStyle.Render(line + " " + role))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(theme.HelpStyle.Render("p approve | x reject | r refresh | esc back"))

	return theme.DetailPanelStyle.Width(m.width - 4).Render(b.String())
}

// SetSize updates the queue dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}
