package app

import (
	"context"
	"errors"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/communisafe/communisafe/internal/api"
	"github.com/communisafe/communisafe/internal/model"
)

// loggedInMsg carries the login call outcome.
type loggedInMsg struct {
	res api.LoginResult
	err error
}

// signupDoneMsg carries the registration call outcome.
type signupDoneMsg struct {
	err error
}

// codeSentMsg carries the verification-code request outcome.
type codeSentMsg struct {
	err error
}

// sessionCheckedMsg carries the startup session verification outcome.
type sessionCheckedMsg struct {
	user model.User
	err  error
}

// refreshedMsg carries the outcome of a manual or reconnect refresh.
type refreshedMsg struct {
	err error
}

// actionDoneMsg carries the outcome of a record mutation.
type actionDoneMsg struct {
	notice string
	err    error
}

// floodFormReadyMsg carries the prefilled flood report context.
type floodFormReadyMsg struct {
	location string
	severity string
	lat, lng float64
}

const actionTimeout = 20 * time.Second

func actionCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), actionTimeout)
}

// doLogin exchanges credentials for a session.
func (m Model) doLogin(email, password string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		res, err := client.Login(ctx, email, password)
		if err == nil && res.User.Status != "" && res.User.Status != model.AccountActive {
			return loggedInMsg{err: errors.New("account is " + res.User.Status)}
		}
		return loggedInMsg{res: res, err: err}
	}
}

// doSignup registers a new account.
func (m Model) doSignup(draft api.SignupDraft) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		return signupDoneMsg{err: client.Signup(ctx, draft)}
	}
}

// sendVerificationCode asks the backend to email a signup code.
func (m Model) sendVerificationCode(email string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		return codeSentMsg{err: client.SendVerificationCode(ctx, email)}
	}
}

// verifySession checks that the restored session still belongs to an
// active account before reusing it.
func (m Model) verifySession() tea.Cmd {
	client := m.client
	client.SetToken(m.sess.Token)
	userID := m.sess.UserID
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		user, err := client.GetUser(ctx, userID)
		return sessionCheckedMsg{user: user, err: err}
	}
}

// refreshFeeds re-runs every bulk fetch.
func (m Model) refreshFeeds() tea.Cmd {
	feeds := m.feeds
	if feeds == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		return refreshedMsg{err: feeds.refreshAll(ctx)}
	}
}

// saveAnnouncement creates or edits an announcement.
func (m Model) saveAnnouncement(draft api.AnnouncementDraft, editID string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		if editID != "" {
			_, err := client.UpdateAnnouncement(ctx, editID, draft)
			return actionDoneMsg{notice: "Announcement updated", err: err}
		}
		_, err := client.CreateAnnouncement(ctx, draft)
		return actionDoneMsg{notice: "Announcement posted", err: err}
	}
}

// deleteAnnouncement removes the focused announcement.
func (m Model) deleteAnnouncement(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		err := client.DeleteAnnouncement(ctx, id)
		return actionDoneMsg{notice: "Announcement deleted", err: err}
	}
}

// prepareFloodForm gathers the prefill context for a flood report: the
// latest sensor reading for the severity and the reverse-geocoded
// location of the primary sensor.
func (m Model) prepareFloodForm() tea.Cmd {
	client := m.client
	geocoder := m.geocoder
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()

		ready := floodFormReadyMsg{severity: model.SeverityNone}
		reading, err := client.LatestWaterLevel(ctx)
		if err == nil {
			ready.severity = model.SeverityForWaterLevel(reading.WaterLevelCm)
			ready.lat, ready.lng = reading.Lat, reading.Lng
			ready.location = reading.Address
		}
		if ready.location == "" && (ready.lat != 0 || ready.lng != 0) {
			loc, _ := geocoder.ReverseGeocode(ctx, ready.lat, ready.lng)
			ready.location = loc
		}
		if ready.location == "" {
			ready.location = api.UnknownLocation
		}
		return ready
	}
}

// saveFloodReport files a flood report.
func (m Model) saveFloodReport(draft api.FloodReportDraft) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		_, err := client.CreateFloodReport(ctx, draft)
		return actionDoneMsg{notice: "Flood report filed", err: err}
	}
}

// saveIncident files an incident report.
func (m Model) saveIncident(draft api.IncidentDraft) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		_, err := client.CreateIncident(ctx, draft)
		return actionDoneMsg{notice: "Incident reported", err: err}
	}
}

// respondToIncident claims the focused incident.
func (m Model) respondToIncident(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		err := client.RespondToIncident(ctx, id)
		if err != nil && strings.Contains(err.Error(), "already") {
			return actionDoneMsg{notice: "Incident already has a responder"}
		}
		return actionDoneMsg{notice: "Responding to incident", err: err}
	}
}

// resolveIncident closes out the focused incident.
func (m Model) resolveIncident(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		err := client.SetIncidentStatus(ctx, id, model.IncidentResolved)
		return actionDoneMsg{notice: "Incident resolved", err: err}
	}
}

// saveVisitor files a visitor request.
func (m Model) saveVisitor(draft api.VisitorDraft) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		_, err := client.CreateVisitorRequest(ctx, draft)
		return actionDoneMsg{notice: "Visitor request filed", err: err}
	}
}

// setVisitorStatus approves or rejects the focused visitor request.
func (m Model) setVisitorStatus(id, status string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		echoed, err := client.SetVisitorStatus(ctx, id, status)
		return actionDoneMsg{notice: "Visitor request " + echoed, err: err}
	}
}

// markNotificationRead marks the focused notification read.
func (m Model) markNotificationRead(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		err := client.MarkNotificationRead(ctx, id)
		return actionDoneMsg{err: err}
	}
}

// deleteNotification removes the focused notification.
func (m Model) deleteNotification(id string) tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		err := client.DeleteNotification(ctx, id)
		return actionDoneMsg{err: err}
	}
}

// clearNotifications removes every notification.
func (m Model) clearNotifications() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := actionCtx()
		defer cancel()
		err := client.ClearNotifications(ctx)
		return actionDoneMsg{notice: "Notifications cleared", err: err}
	}
}

// loginFailureText folds backend auth failures into a short line for the
// login form.
func loginFailureText(err error) string {
	var authErr *api.AuthError
	if errors.As(err, &authErr) && authErr.Message != "" {
		return authErr.Message
	}
	return "sign in failed: " + err.Error()
}
