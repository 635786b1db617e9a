package app

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/communisafe/communisafe/internal/feed"
	"github.com/communisafe/communisafe/internal/model"
	"github.com/communisafe/communisafe/internal/theme"
	"github.com/communisafe/communisafe/internal/ui/detail"
)

// Row describers for the feed lists. Each returns the main line text and
// the short colored tag.

func describeAnnouncement(item feed.Item) (string, string) {
	a, ok := item.(model.Announcement)
	if !ok {
		return "", ""
	}
	return a.Title, a.Category
}

func describeNotification(item feed.Item) (string, string) {
	n, ok := item.(model.Notification)
	if !ok {
		return "", ""
	}
	marker := "●"
	if n.Read {
		marker = " "
	}
	return fmt.Sprintf("%s %s", marker, n.Title), string(n.Type)
}

func describeFlood(item feed.Item) (string, string) {
	f, ok := item.(model.FloodAlert)
	if !ok {
		return "", ""
	}
	return f.Location, f.Severity
}

func describeIncident(item feed.Item) (string, string) {
	i, ok := item.(model.Incident)
	if !ok {
		return "", ""
	}
	return fmt.Sprintf("%s — %s", i.Type, i.Location), i.Status
}

func describeVisitor(item feed.Item) (string, string) {
	v, ok := item.(model.VisitorRequest)
	if !ok {
		return "", ""
	}
	return v.FullName, v.Status
}

// findItem looks a record up by id in a collection snapshot.
func findItem[T feed.Item](col *feed.Collection[T], id string) (T, bool) {
	for _, item := range col.Snapshot() {
		if item.Key() == id {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// openDetail resolves the selected id on the active tab into a detail
// record.
func (m Model) openDetail(id string) (tea.Model, tea.Cmd) {
	if m.feeds == nil {
		return m, nil
	}
	m.detailID = id

	switch m.tabIndex {
	case tabAnnouncements:
		if a, ok := findItem(m.feeds.Announcements.Collection(), id); ok {
			m.detailView.SetRecord(announcementRecord(a))
		}
	case tabNotifications:
		if n, ok := findItem(m.feeds.Notifications.Collection(), id); ok {
			m.detailView.SetRecord(notificationRecord(n))
			// Opening a notification marks it read, matching the list
			// count to what the user has seen.
			if !n.Read {
				return m, m.markNotificationRead(id)
			}
		}
	case tabFloods:
		if f, ok := findItem(m.feeds.Floods.Collection(), id); ok {
			m.detailView.SetRecord(floodRecord(f))
		}
	case tabIncidents:
		if i, ok := findItem(m.feeds.Incidents.Collection(), id); ok {
			m.detailView.SetRecord(incidentRecord(i))
		}
	case tabVisitors:
		if v, ok := findItem(m.feeds.Visitors.Collection(), id); ok {
			m.detailView.SetRecord(visitorRecord(v))
		}
	}
	return m, nil
}

func announcementRecord(a model.Announcement) detail.Record {
	return detail.Record{
		Title: a.Title,
		Fields: []detail.Field{
			{Label: "Category", Value: a.Category, Tag: theme.CategoryStyle},
			{Label: "Description", Value: a.Description},
			{Label: "Location", Value: a.Location},
			{Label: "When", Value: formatDate(a.Date, a.Time)},
			{Label: "Contact", Value: a.Contact},
			{Label: "Posted", Value: formatTime(a.CreatedAt)},
		},
	}
}

func notificationRecord(n model.Notification) detail.Record {
	return detail.Record{
		Title: n.Title,
		Fields: []detail.Field{
			{Label: "Type", Value: string(n.Type)},
			{Label: "Message", Value: n.Body},
			{Label: "Received", Value: formatTime(n.CreatedAt)},
		},
	}
}

func floodRecord(f model.FloodAlert) detail.Record {
	return detail.Record{
		Title: "Flood — " + f.Location,
		Fields: []detail.Field{
			{Label: "Severity", Value: f.Severity, Tag: theme.SeverityStyle},
			{Label: "Description", Value: f.Description},
			{Label: "Contact", Value: f.Contact},
			{Label: "Coordinates", Value: detail.FormatCoords(f.Lat, f.Lng)},
			{Label: "Reported", Value: formatTime(f.Timestamp)},
		},
	}
}

func incidentRecord(i model.Incident) detail.Record {
	return detail.Record{
		Title: i.Type,
		Fields: []detail.Field{
			{Label: "Status", Value: i.Status, Tag: theme.StatusStyle},
			{Label: "Location", Value: i.Location},
			{Label: "Description", Value: i.Description},
			{Label: "Reporter", Value: i.ReporterName},
			{Label: "Contact", Value: i.ContactNumber},
			{Label: "Coordinates", Value: detail.FormatCoords(i.Latitude, i.Longitude)},
			{Label: "Photos", Value: joinNonEmpty(i.Photos)},
			{Label: "Reported", Value: formatTime(i.CreatedAt)},
		},
	}
}

func visitorRecord(v model.VisitorRequest) detail.Record {
	return detail.Record{
		Title: "Visitor — " + v.FullName,
		Fields: []detail.Field{
			{Label: "Status", Value: v.Status, Tag: theme.StatusStyle},
			{Label: "Resident", Value: v.Resident},
			{Label: "Purpose", Value: v.Purpose},
			{Label: "Address", Value: v.Address},
			{Label: "Visit Date", Value: formatTime(v.DateOfVisit)},
			{Label: "Arrival", Value: v.ModeOfArrival},
			{Label: "Contact", Value: v.Contact},
		},
	}
}

// detailHints returns the role-aware actions for the open record.
func (m Model) detailHints() string {
	base := "esc back | j/k scroll"
	switch m.tabIndex {
	case tabAnnouncements:
		if m.sess.Role.CanPostAnnouncements() {
			return base + " | e edit | d delete"
		}
	case tabIncidents:
		if m.sess.Role.CanRespondToIncidents() {
			return base + " | t respond | R resolve"
		}
	case tabVisitors:
		if m.sess.Role.CanManageVisitors() {
			return base + " | p approve | x reject"
		}
	}
	return base
}

// handleFeedActionKeys dispatches the role-gated record actions on the
// active tab, from the list or from an open detail record. Keys for
// actions the role lacks fall through untouched.
func (m Model) handleFeedActionKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	id, hasSelection := m.feedViews[m.tabIndex].SelectedID()
	if m.currentView == ViewDetail && m.detailID != "" {
		id, hasSelection = m.detailID, true
	}

	switch msg.String() {
	case "n":
		switch m.tabIndex {
		case tabAnnouncements:
			if m.sess.Role.CanPostAnnouncements() {
				m.previousView = m.currentView
				m.currentView = ViewForm
				return true, m, m.formView.StartAnnouncement(nil)
			}
		case tabFloods:
			if m.sess.Role.CanReportFloods() {
				return true, m, m.prepareFloodForm()
			}
		case tabIncidents:
			m.previousView = m.currentView
			m.currentView = ViewForm
			return true, m, m.formView.StartIncident(m.sess.Name, m.sess.ContactNumber)
		case tabVisitors:
			m.previousView = m.currentView
			m.currentView = ViewForm
			return true, m, m.formView.StartVisitor()
		}

	case "e":
		if m.tabIndex == tabAnnouncements && hasSelection &&
			m.sess.Role.CanPostAnnouncements() {
			if a, ok := findItem(m.feeds.Announcements.Collection(), id); ok {
				m.previousView = m.currentView
				m.currentView = ViewForm
				return true, m, m.formView.StartAnnouncement(&a)
			}
		}

	case "d":
		if !hasSelection {
			break
		}
		switch m.tabIndex {
		case tabAnnouncements:
			if m.sess.Role.CanPostAnnouncements() {
				return true, m, m.deleteAnnouncement(id)
			}
		case tabNotifications:
			return true, m, m.deleteNotification(id)
		}

	case "t":
		if m.tabIndex == tabIncidents && hasSelection &&
			m.sess.Role.CanRespondToIncidents() {
			return true, m, m.respondToIncident(id)
		}

	case "R":
		if m.tabIndex == tabIncidents && hasSelection &&
			m.sess.Role.CanRespondToIncidents() {
			return true, m, m.resolveIncident(id)
		}

	case "p":
		if m.tabIndex == tabVisitors && hasSelection &&
			m.sess.Role.CanManageVisitors() {
			return true, m, m.setVisitorStatus(id, model.VisitorApproved)
		}

	case "x":
		if m.tabIndex == tabVisitors && hasSelection &&
			m.sess.Role.CanManageVisitors() {
			return true, m, m.setVisitorStatus(id, model.VisitorRejected)
		}

	case "m":
		if m.tabIndex == tabNotifications && hasSelection {
			return true, m, m.markNotificationRead(id)
		}

	case "C":
		if m.tabIndex == tabNotifications {
			return true, m, m.clearNotifications()
		}
	}

	return false, m, nil
}

// executeCommand handles a command string from the command palette.
func (m Model) executeCommand(cmd string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(cmd) {
	case "refresh", "sync":
		return m, m.refreshFeeds()

	case "quit", "q":
		return m, m.shutdown()

	case "logout":
		mdl, c := m.forceLogout("signed out")
		return mdl, c

	case "sensors":
		m.previousView = m.currentView
		m.currentView = ViewSensors
		return m, m.sensorView.Init()

	case "pending users", "users", "approvals":
		if m.sess.Role.CanManageUsers() {
			m.previousView = m.currentView
			m.currentView = ViewUsers
			return m, m.userView.Init()
		}
		m.lastErr = "only admins can manage accounts"
		return m, nil

	case "clear notifications":
		return m, m.clearNotifications()

	default:
		return m, nil
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02 15:04")
}

func formatDate(t time.Time, timeOfDay string) string {
	if t.IsZero() {
		return ""
	}
	s := t.Format("2006-01-02")
	if timeOfDay != "" {
		s += " " + timeOfDay
	}
	return s
}

func joinNonEmpty(parts []string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
