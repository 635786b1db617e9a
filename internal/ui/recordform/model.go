// Package recordform hosts the huh-based create/edit forms for every
// record type: announcements, flood reports, incidents, and visitor
// requests.
package recordform

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/communisafe/communisafe/internal/api"
	"github.com/communisafe/communisafe/internal/model"
	"github.com/communisafe/communisafe/internal/theme"
)

// AnnouncementSubmitMsg is dispatched when an announcement form completes.
// EditID is empty for a create.
type AnnouncementSubmitMsg struct {
	Draft  api.AnnouncementDraft
	EditID string
}

// FloodReportSubmitMsg is dispatched when a flood report form completes.
type FloodReportSubmitMsg struct {
	Draft api.FloodReportDraft
}

// IncidentSubmitMsg is dispatched when an incident form completes.
type IncidentSubmitMsg struct {
	Draft api.IncidentDraft
}

// VisitorSubmitMsg is dispatched when a visitor request form completes.
type VisitorSubmitMsg struct {
	Draft api.VisitorDraft
}

// CancelMsg is dispatched when the user cancels the active form.
type CancelMsg struct{}

// formKind selects which submit message the active form produces.
type formKind int

const (
	formNone formKind = iota
	formAnnouncement
	formFloodReport
	formIncident
	formVisitor
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	title       string
	description string
	category    string
	location    string
	date        string
	timeOfDay   string
	contact     string

	severity string
	lat      string
	lng      string

	name         string
	incidentType string

	purpose string
	arrival string
	address string
}

// Model is the Bubble Tea model for the record forms.
type Model struct {
	form   *huh.Form
	fb     *formBindings
	kind   formKind
	editID string
	width  int
	height int
}

// New creates a new record form model.
func New(width, height int) Model {
	return Model{
		fb:     &formBindings{},
		width:  width,
		height: height,
	}
}

// Title returns the heading of the active form.
func (m Model) Title() string {
	switch m.kind {
	case formAnnouncement:
		if m.editID != "" {
			return "Edit Announcement"
		}
		return "New Announcement"
	case formFloodReport:
		return "New Flood Report"
	case formIncident:
		return "Report Incident"
	case formVisitor:
		return "New Visitor Request"
	default:
		return ""
	}
}

// StartAnnouncement initializes the announcement form. A non-nil existing
// record switches the form into edit mode with its values pre-filled.
func (m *Model) StartAnnouncement(existing *model.Announcement) tea.Cmd {
	*m.fb = formBindings{category: model.CategoryCommunity}
	m.kind = formAnnouncement
	m.editID = ""

	if existing != nil {
		m.editID = existing.ID
		m.fb.title = existing.Title
		m.fb.description = existing.Description
		m.fb.category = existing.Category
		m.fb.location = existing.Location
		m.fb.contact = existing.Contact
		m.fb.timeOfDay = existing.Time
		if !existing.Date.IsZero() {
			m.fb.date = existing.Date.Format("2006-01-02")
		}
	}

	catOpts := make([]huh.Option[string], len(model.AnnouncementCategories))
	for i, c := range model.AnnouncementCategories {
		catOpts[i] = huh.NewOption(c, c)
	}

	m.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Title").
			Placeholder("What is happening?").
			Value(&m.fb.title).
			Validate(validateRequired("Title")),
		huh.NewText().
			Title("Description").
			Value(&m.fb.description).
			Validate(validateRequired("Description")),
		huh.NewSelect[string]().
			Title("Category").
			Options(catOpts...).
			Value(&m.fb.category),
		huh.NewInput().
			Title("Location").
			Placeholder("Optional").
			Value(&m.fb.location),
		huh.NewInput().
			Title("Date").
			Placeholder("YYYY-MM-DD (optional)").
			Value(&m.fb.date).
			Validate(validateOptionalDate),
		huh.NewInput().
			Title("Time").
			Placeholder("HH:MM (optional)").
			Value(&m.fb.timeOfDay),
		huh.NewInput().
			Title("Contact").
			Placeholder("Optional").
			Value(&m.fb.contact),
	)).WithWidth(m.formWidth()).WithHeight(m.formHeight())

	return m.form.Init()
}

// StartFloodReport initializes the flood report form. The severity is
// pre-filled from the latest sensor reading and the location from reverse
// geocoding, both editable.
func (m *Model) StartFloodReport(location, severity string, lat, lng float64) tea.Cmd {
	*m.fb = formBindings{
		location: location,
		severity: severity,
	}
	if lat != 0 || lng != 0 {
		m.fb.lat = fmt.Sprintf("%f", lat)
		m.fb.lng = fmt.Sprintf("%f", lng)
	}
	m.kind = formFloodReport
	m.editID = ""

	m.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Location").
			Value(&m.fb.location).
			Validate(validateRequired("Location")),
		huh.NewSelect[string]().
			Title("Severity").
			Options(
				huh.NewOption("High", model.SeverityHigh),
				huh.NewOption("Medium", model.SeverityMedium),
				huh.NewOption("Low", model.SeverityLow),
				huh.NewOption("None", model.SeverityNone),
			).
			Value(&m.fb.severity),
		huh.NewText().
			Title("Description").
			Value(&m.fb.description).
			Validate(validateRequired("Description")),
		huh.NewInput().
			Title("Contact").
			Placeholder("Optional").
			Value(&m.fb.contact),
		huh.NewInput().
			Title("Latitude").
			Placeholder("Optional").
			Value(&m.fb.lat),
		huh.NewInput().
			Title("Longitude").
			Placeholder("Optional").
			Value(&m.fb.lng),
	)).WithWidth(m.formWidth()).WithHeight(m.formHeight())

	return m.form.Init()
}

// StartIncident initializes the incident report form, pre-filling the
// reporter identity from the session.
func (m *Model) StartIncident(reporterName, contact string) tea.Cmd {
	*m.fb = formBindings{
		name:    reporterName,
		contact: contact,
		date:    time.Now().Format("2006-01-02"),
	}
	m.kind = formIncident
	m.editID = ""

	m.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Your Name").
			Value(&m.fb.name).
			Validate(validateRequired("Name")),
		huh.NewInput().
			Title("Contact Number").
			Value(&m.fb.contact).
			Validate(validateRequired("Contact Number")),
		huh.NewInput().
			Title("Type").
			Placeholder("Theft, Accident, Disturbance...").
			Value(&m.fb.incidentType).
			Validate(validateRequired("Type")),
		huh.NewInput().
			Title("Location").
			Value(&m.fb.location).
			Validate(validateRequired("Location")),
		huh.NewText().
			Title("Description").
			Value(&m.fb.description).
			Validate(validateRequired("Description")),
		huh.NewInput().
			Title("Date").
			Placeholder("YYYY-MM-DD").
			Value(&m.fb.date).
			Validate(validateOptionalDate),
		huh.NewInput().
			Title("Latitude").
			Placeholder("Optional").
			Value(&m.fb.lat),
		huh.NewInput().
			Title("Longitude").
			Placeholder("Optional").
			Value(&m.fb.lng),
	)).WithWidth(m.formWidth()).WithHeight(m.formHeight())

	return m.form.Init()
}

// StartVisitor initializes the visitor request form.
func (m *Model) StartVisitor() tea.Cmd {
	*m.fb = formBindings{arrival: model.ArrivalModes[0]}
	m.kind = formVisitor
	m.editID = ""

	arrivalOpts := make([]huh.Option[string], len(model.ArrivalModes))
	for i, mode := range model.ArrivalModes {
		arrivalOpts[i] = huh.NewOption(mode, mode)
	}

	m.form = huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Visitor Name").
			Value(&m.fb.name).
			Validate(validateRequired("Visitor Name")),
		huh.NewInput().
			Title("Contact").
			Value(&m.fb.contact).
			Validate(validateRequired("Contact")),
		huh.NewInput().
			Title("Address to Visit").
			Value(&m.fb.address).
			Validate(validateRequired("Address")),
		huh.NewInput().
			Title("Purpose").
			Value(&m.fb.purpose).
			Validate(validateRequired("Purpose")),
		huh.NewInput().
			Title("Date of Visit").
			Placeholder("YYYY-MM-DDTHH:MM").
			Value(&m.fb.date).
			Validate(validateRequiredDateTime),
		huh.NewSelect[string]().
			Title("Mode of Arrival").
			Options(arrivalOpts...).
			Value(&m.fb.arrival),
	)).WithWidth(m.formWidth()).WithHeight(m.formHeight())

	return m.form.Init()
}

// Update handles messages for the active form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.handleSubmit()
	}
	if m.form.State == huh.StateAborted {
		return m, func() tea.Msg { return CancelMsg{} }
	}

	return m, cmd
}

// View renders the active form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	content := titleStyle.Render(m.Title()) + "\n" + m.form.View()

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(content)
}

// SetSize updates the form dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func (m Model) handleSubmit() tea.Cmd {
	switch m.kind {
	case formAnnouncement:
		draft := api.AnnouncementDraft{
			Title:       m.fb.title,
			Description: m.fb.description,
			Category:    m.fb.category,
			Location:    m.fb.location,
			Date:        m.fb.date,
			Time:        m.fb.timeOfDay,
			Contact:     m.fb.contact,
		}
		editID := m.editID
		return func() tea.Msg {
			return AnnouncementSubmitMsg{Draft: draft, EditID: editID}
		}

	case formFloodReport:
		draft := api.FloodReportDraft{
			Location:    m.fb.location,
			Severity:    m.fb.severity,
			Description: m.fb.description,
			Contact:     m.fb.contact,
			Lat:         parseCoord(m.fb.lat),
			Lng:         parseCoord(m.fb.lng),
			Timestamp:   time.Now().Format(time.RFC3339),
		}
		return func() tea.Msg { return FloodReportSubmitMsg{Draft: draft} }

	case formIncident:
		draft := api.IncidentDraft{
			Name:          m.fb.name,
			ContactNumber: m.fb.contact,
			Date:          m.fb.date,
			Type:          m.fb.incidentType,
			Location:      m.fb.location,
			Description:   m.fb.description,
			Latitude:      parseCoord(m.fb.lat),
			Longitude:     parseCoord(m.fb.lng),
		}
		return func() tea.Msg { return IncidentSubmitMsg{Draft: draft} }

	case formVisitor:
		draft := api.VisitorDraft{
			FullName:      m.fb.name,
			Contact:       m.fb.contact,
			Address:       m.fb.address,
			Purpose:       m.fb.purpose,
			DateOfVisit:   m.fb.date,
			ModeOfArrival: m.fb.arrival,
		}
		return func() tea.Msg { return VisitorSubmitMsg{Draft: draft} }
	}

	return func() tea.Msg { return CancelMsg{} }
}

func (m Model) formWidth() int {
	w := m.width - 4
	if w < 40 {
		w = 40
	}
	if w > 100 {
		w = 100
	}
	return w
}

func (m Model) formHeight() int {
	h := m.height - 4
	if h < 10 {
		h = 10
	}
	return h
}

func parseCoord(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	var f float64
	if _, err := fmt.Sscanf(s, "%f", &f); err != nil {
		return 0
	}
	return f
}

func validateRequired(fieldName string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", fieldName)
		}
		return nil
	}
}

func validateOptionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	_, err := time.Parse("2006-01-02", s)
	if err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

func validateRequiredDateTime(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return fmt.Errorf("Date of Visit is required")
	}
	_, err := time.Parse("2006-01-02T15:04", s)
	if err != nil {
		return fmt.Errorf("invalid format, use YYYY-MM-DDTHH:MM")
	}
	return nil
}
