// Package login hosts the sign-in and registration forms shown before a
// session exists.
package login

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/communisafe/communisafe/internal/api"
	"github.com/communisafe/communisafe/internal/model"
	"github.com/communisafe/communisafe/internal/theme"
)

// SubmitMsg is dispatched when the login form completes.
type SubmitMsg struct {
	Email    string
	Password string
}

// SignupMsg is dispatched when the registration form completes.
type SignupMsg struct {
	Draft api.SignupDraft
}

// RequestCodeMsg asks the backend to email a signup verification code.
type RequestCodeMsg struct {
	Email string
}

// mode selects which form is active.
type mode int

const (
	modeLogin mode = iota
	modeSignup
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	email    string
	password string

	name       string
	username   string
	role       string
	contact    string
	address    string
	code       string
	employeeID string
}

// Model is the Bubble Tea model for the login screen.
type Model struct {
	form    *huh.Form
	fb      *formBindings
	mode    mode
	errText string
	width   int
	height  int
}

// New creates a login model showing the sign-in form.
func New(width, height int) Model {
	m := Model{
		fb:     &formBindings{role: string(model.RoleResident)},
		width:  width,
		height: height,
	}
	m.form = m.buildLoginForm()
	return m
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return m.form.Init()
}

// SetError shows a failure message above the form, used when the backend
// rejects the credentials or the account is not active.
func (m *Model) SetError(text string) tea.Cmd {
	m.errText = text
	m.mode = modeLogin
	m.fb.password = ""
	m.form = m.buildLoginForm()
	return m.form.Init()
}

// SetStatus shows an informational line above the active form without
// rebuilding it.
func (m *Model) SetStatus(text string) {
	m.errText = text
}

// Update handles messages for the login screen.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+e" && m.mode == modeSignup {
		email := m.fb.email
		if strings.TrimSpace(email) == "" {
			m.errText = "enter your email first, then request a code"
			return m, nil
		}
		return m, func() tea.Msg { return RequestCodeMsg{Email: email} }
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "ctrl+s" {
		// Toggle between sign-in and registration.
		if m.mode == modeLogin {
			m.mode = modeSignup
			m.form = m.buildSignupForm()
		} else {
			m.mode = modeLogin
			m.form = m.buildLoginForm()
		}
		m.errText = ""
		return m, m.form.Init()
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, tea.Quit
	}

	return m, cmd
}

// View renders the login screen.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	title := "CommuniSafe — Sign In"
	if m.mode == modeSignup {
		title = "CommuniSafe — Register"
	}

	parts := []string{titleStyle.Render(title)}
	if m.errText != "" {
		errStyle := lipgloss.NewStyle().Foreground(theme.ColorRed).MarginBottom(1)
		parts = append(parts, errStyle.Render(m.errText))
	}
	hints := "ctrl+s switch sign-in/register | esc quit"
	if m.mode == modeSignup {
		hints = "ctrl+e email me a code | " + hints
	}
	parts = append(parts, m.form.View(), theme.HelpStyle.Render(hints))

	content := lipgloss.JoinVertical(lipgloss.Left, parts...)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the login screen dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m *Model) buildLoginForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Email").
			Value(&m.fb.email).
			Validate(validateRequired("Email")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(validateRequired("Password")),
	)).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m *Model) buildSignupForm() *huh.Form {
	return huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Full Name").
			Value(&m.fb.name).
			Validate(validateRequired("Full Name")),
		huh.NewInput().
			Title("Username").
			Value(&m.fb.username).
			Validate(validateRequired("Username")),
		huh.NewInput().
			Title("Email").
			Value(&m.fb.email).
			Validate(validateRequired("Email")),
		huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(&m.fb.password).
			Validate(validatePassword),
		huh.NewSelect[string]().
			Title("Role").
			Options(
				huh.NewOption("Resident", string(model.RoleResident)),
				huh.NewOption("Security Personnel", string(model.RoleSecurity)),
				huh.NewOption("Community Official", string(model.RoleOfficial)),
			).
			Value(&m.fb.role),
		huh.NewInput().
			Title("Contact Number").
			Placeholder("9171234567").
			Value(&m.fb.contact).
			Validate(validateContact),
		huh.NewInput().
			Title("Address").
			Value(&m.fb.address).
			Validate(validateRequired("Address")),
		huh.NewInput().
			Title("Verification Code").
			Placeholder("emailed code").
			Value(&m.fb.code).
			Validate(validateRequired("Verification Code")),
		huh.NewInput().
			Title("Employee ID").
			Placeholder("officials and security only").
			Value(&m.fb.employeeID),
	)).WithWidth(m.formWidth()).WithHeight(m.formHeight())
}

func (m Model) handleSubmit() tea.Cmd {
	if m.mode == modeLogin {
		email, password := m.fb.email, m.fb.password
		return func() tea.Msg {
			return SubmitMsg{Email: email, Password: password}
		}
	}

	draft := api.SignupDraft{
		Name:             m.fb.name,
		Username:         m.fb.username,
		Email:            m.fb.email,
		Password:         m.fb.password,
		Role:             model.Role(m.fb.role),
		ContactNumber:    "+63" + strings.TrimPrefix(m.fb.contact, "+63"),
		Address:          m.fb.address,
		VerificationCode: m.fb.code,
		EmployeeID:       m.fb.employeeID,
	}
	return func() tea.Msg { return SignupMsg{Draft: draft} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 80 {
		w = 80
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 6
	if h < 10 {
		h = 10
	}
	return h
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validatePassword(s string) error {
	if len(s) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	return nil
}

// validateContact accepts a ten-digit local number, with or without the
// +63 country prefix.
func validateContact(s string) error {
	s = strings.TrimPrefix(strings.TrimSpace(s), "+63")
	if len(s) != 10 {
		return fmt.Errorf("contact number must be 10 digits")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return fmt.Errorf("contact number must contain only digits")
		}
	}
	return nil
}
