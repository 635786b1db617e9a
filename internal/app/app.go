// Package app hosts the root Bubble Tea model: view routing, the feed
// lifecycle, and the glue between push events and the rendered lists.
package app

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/communisafe/communisafe/internal/api"
	"github.com/communisafe/communisafe/internal/feed"
	"github.com/communisafe/communisafe/internal/keys"
	"github.com/communisafe/communisafe/internal/model"
	"github.com/communisafe/communisafe/internal/push"
	"github.com/communisafe/communisafe/internal/session"
	"github.com/communisafe/communisafe/internal/store"
	"github.com/communisafe/communisafe/internal/theme"
	"github.com/communisafe/communisafe/internal/ui"
	"github.com/communisafe/communisafe/internal/ui/command"
	"github.com/communisafe/communisafe/internal/ui/detail"
	"github.com/communisafe/communisafe/internal/ui/feedview"
	"github.com/communisafe/communisafe/internal/ui/floodpanel"
	helpview "github.com/communisafe/communisafe/internal/ui/help"
	loginview "github.com/communisafe/communisafe/internal/ui/login"
	"github.com/communisafe/communisafe/internal/ui/recordform"
	"github.com/communisafe/communisafe/internal/ui/usermgr"
)

// ViewState represents the current active view in the application.
type ViewState int

const (
	ViewLogin ViewState = iota
	ViewFeed
	ViewSensors
	ViewDetail
	ViewForm
	ViewHelp
	ViewCommand
	ViewUsers
)

// tab indexes into the feed views.
const (
	tabAnnouncements = iota
	tabNotifications
	tabFloods
	tabIncidents
	tabVisitors
	tabCount
)

var tabTitles = []string{
	"1 Announcements", "2 Notifications", "3 Floods",
	"4 Incidents", "5 Visitors", "6 Sensors",
}

// feedEventMsg reports that a push event mutated some collection.
type feedEventMsg struct{}

// reconnectedMsg reports that the push channel came back after a drop.
type reconnectedMsg struct{}

// noticeMsg shows a transient banner.
type noticeMsg struct {
	text string
}

// noticeExpiredMsg clears the banner.
type noticeExpiredMsg struct{}

// feedsStartedMsg carries the outcome of the initial seeds.
type feedsStartedMsg struct {
	err error
}

// Config wires the root model to its collaborators.
type Config struct {
	AppConfig *model.AppConfig
	Client    *api.Client
	Geocoder  *api.Geocoder
	Cache     store.Cache
	Sessions  *session.Store

	// Restored is the session recovered at startup, nil when none.
	Restored *session.Session

	Log *slog.Logger
}

// Model is the root Bubble Tea model.
type Model struct {
	cfg      *model.AppConfig
	client   *api.Client
	geocoder *api.Geocoder
	cache    store.Cache
	sessions *session.Store
	log      *slog.Logger

	sess     session.Session
	loggedIn bool

	pushCh     *push.Channel
	pushCancel context.CancelFunc
	feeds      *Feeds
	events     chan tea.Msg

	currentView  ViewState
	previousView ViewState
	tabIndex     int
	layout       ui.Layout
	keys         *keys.KeyMap
	ready        bool

	loginView  loginview.Model
	feedViews  [tabCount]feedview.Model
	sensorView floodpanel.Model
	detailView detail.Model
	formView   recordform.Model
	helpView   helpview.Model
	cmdView    command.Model
	userView   usermgr.Model

	detailID string

	notice     string
	connStatus string
	lastErr    string
}

// New creates the root application model.
func New(cfg Config) Model {
	k := keys.DefaultKeyMap()
	m := Model{
		cfg:        cfg.AppConfig,
		client:     cfg.Client,
		geocoder:   cfg.Geocoder,
		cache:      cfg.Cache,
		sessions:   cfg.Sessions,
		log:        cfg.Log,
		keys:       k,
		events:     make(chan tea.Msg, 64),
		loginView:  loginview.New(80, 24),
		sensorView: floodpanel.New(cfg.Client, time.Duration(cfg.AppConfig.Display.SensorPollSec)*time.Second, 80, 24),
		detailView: detail.New(k, 80, 24),
		formView:   recordform.New(80, 24),
		helpView:   helpview.New(k, 80, 24),
		cmdView:    command.New(80, 24),
		userView:   usermgr.New(cfg.Client, k, 80, 24),
		connStatus: "offline",
	}
	if cfg.Restored != nil {
		m.sess = *cfg.Restored
	}
	return m
}

// Init either resumes the stored session or shows the login form.
func (m Model) Init() tea.Cmd {
	if m.sess.Token != "" {
		return m.verifySession()
	}
	return m.loginView.Init()
}

// Update handles messages and dispatches to the active view.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout = ui.NewLayout(msg.Width, msg.Height)
		m.ready = true
		w, h := m.layout.ContentWidth(), m.layout.ContentHeight()
		m.loginView.SetSize(w, h)
		for i := range m.feedViews {
			m.feedViews[i].SetSize(w, h)
		}
		m.sensorView.SetSize(w, h)
		m.detailView.SetSize(w, h)
		m.formView.SetSize(w, h)
		m.helpView.SetSize(w, h)
		m.cmdView.SetSize(w, h)
		m.userView.SetSize(w, h)
		return m.updateActiveView(msg)

	case loginview.SubmitMsg:
		return m, m.doLogin(msg.Email, msg.Password)

	case loginview.SignupMsg:
		return m, m.doSignup(msg.Draft)

	case loginview.RequestCodeMsg:
		return m, m.sendVerificationCode(msg.Email)

	case codeSentMsg:
		if msg.err != nil {
			m.loginView.SetStatus("sending code failed: " + msg.err.Error())
		} else {
			m.loginView.SetStatus("verification code sent, check your email")
		}
		return m, nil

	case loggedInMsg:
		if msg.err != nil {
			return m, m.loginView.SetError(loginFailureText(msg.err))
		}
		return m.startSession(session.FromUser(msg.res.Token, msg.res.User), true)

	case signupDoneMsg:
		if msg.err != nil {
			return m, m.loginView.SetError("registration failed: " + msg.err.Error())
		}
		return m, m.loginView.SetError("Registered. Officials and security await approval; sign in once active.")

	case sessionCheckedMsg:
		if msg.err != nil || msg.user.Status != model.AccountActive {
			// Stored session is no longer valid.
			m.sessions.Clear()
			m.sess = session.Session{}
			m.currentView = ViewLogin
			if msg.err != nil {
				return m, m.loginView.SetError("session expired, sign in again")
			}
			return m, m.loginView.SetError("account is " + msg.user.Status)
		}
		m.sess.Role = msg.user.Role
		m.sess.Name = msg.user.Name
		m.sess.Status = msg.user.Status
		return m.startSession(m.sess, false)

	case feedsStartedMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			m.connStatus = "degraded"
		} else {
			m.lastErr = ""
			m.connStatus = "live"
		}
		return m, tea.Batch(m.broadcastReload(), m.mirrorCache())

	case feedEventMsg:
		return m, tea.Batch(m.broadcastReload(), m.waitForEvent(), m.mirrorCache())

	case reconnectedMsg:
		m.connStatus = "live"
		return m, tea.Batch(m.broadcastReload(), m.waitForEvent())

	case noticeMsg:
		m.notice = msg.text
		return m, tea.Batch(
			m.waitForEvent(),
			tea.Tick(5*time.Second, func(time.Time) tea.Msg {
				return noticeExpiredMsg{}
			}),
		)

	case noticeExpiredMsg:
		m.notice = ""
		return m, nil

	case refreshedMsg:
		if msg.err != nil {
			m.lastErr = msg.err.Error()
			if api.IsAuthError(msg.err) {
				return m.forceLogout("session expired, sign in again")
			}
		} else {
			m.lastErr = ""
		}
		return m, tea.Batch(m.broadcastReload(), m.mirrorCache())

	case actionDoneMsg:
		if msg.err != nil {
			if api.IsAuthError(msg.err) {
				return m.forceLogout("session expired, sign in again")
			}
			m.lastErr = msg.err.Error()
			return m, nil
		}
		m.lastErr = ""
		if msg.notice != "" {
			m.notice = msg.notice
		}
		if m.currentView == ViewForm || m.currentView == ViewDetail {
			m.currentView = ViewFeed
		}
		return m, m.refreshFeeds()

	case floodFormReadyMsg:
		m.previousView = m.currentView
		m.currentView = ViewForm
		return m, m.formView.StartFloodReport(msg.location, msg.severity, msg.lat, msg.lng)

	case recordform.AnnouncementSubmitMsg:
		return m, m.saveAnnouncement(msg.Draft, msg.EditID)

	case recordform.FloodReportSubmitMsg:
		return m, m.saveFloodReport(msg.Draft)

	case recordform.IncidentSubmitMsg:
		return m, m.saveIncident(msg.Draft)

	case recordform.VisitorSubmitMsg:
		return m, m.saveVisitor(msg.Draft)

	case recordform.CancelMsg:
		m.currentView = ViewFeed
		return m, nil

	case feedview.SelectedMsg:
		m.previousView = m.currentView
		m.currentView = ViewDetail
		return m.openDetail(msg.ID)

	case detail.BackMsg:
		m.currentView = ViewFeed
		m.detailView.Clear()
		return m, nil

	case usermgr.CloseMsg:
		m.currentView = ViewFeed
		return m, nil

	case command.CommandMsg:
		m.currentView = m.previousView
		return m.executeCommand(string(msg))

	case command.CancelMsg:
		m.currentView = m.previousView
		return m, nil

	case tea.KeyMsg:
		if handled, mdl, cmd := m.handleGlobalKeys(msg); handled {
			return mdl, cmd
		}
	}

	return m.updateActiveView(msg)
}

// handleGlobalKeys processes keys that work regardless of the active
// view. Text-entry views (login, forms, command, search) keep their
// input; only ctrl+c is global there.
func (m Model) handleGlobalKeys(msg tea.KeyMsg) (bool, tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return true, m, m.shutdown()
	}

	switch m.currentView {
	case ViewLogin, ViewForm, ViewCommand:
		return false, m, nil
	case ViewFeed:
		if m.loggedIn && m.feedViews[m.tabIndex].InSearch() {
			return false, m, nil
		}
	}

	switch msg.String() {
	case "q":
		if m.currentView == ViewFeed || m.currentView == ViewSensors {
			return true, m, m.shutdown()
		}

	case "?":
		if m.currentView == ViewHelp {
			m.currentView = m.previousView
			return true, m, nil
		}
		m.previousView = m.currentView
		m.currentView = ViewHelp
		m.helpView.SetUser(m.sess.Name, string(m.sess.Role))
		return true, m, nil

	case ":":
		m.previousView = m.currentView
		m.currentView = ViewCommand
		return true, m, m.cmdView.Focus()

	case "r":
		if m.currentView == ViewFeed {
			return true, m, m.refreshFeeds()
		}

	case "1", "2", "3", "4", "5":
		if m.currentView == ViewFeed || m.currentView == ViewSensors {
			m.currentView = ViewFeed
			m.tabIndex = int(msg.String()[0] - '1')
			return true, m, m.broadcastReload()
		}

	case "6":
		if m.currentView == ViewFeed {
			m.previousView = m.currentView
			m.currentView = ViewSensors
			return true, m, m.sensorView.Init()
		}
	}

	if m.currentView == ViewFeed || m.currentView == ViewDetail {
		if handled, mdl, cmd := m.handleFeedActionKeys(msg); handled {
			return true, mdl, cmd
		}
	}

	return false, m, nil
}

// updateActiveView dispatches the message to the currently active view.
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch m.currentView {
	case ViewLogin:
		m.loginView, cmd = m.loginView.Update(msg)
	case ViewFeed:
		if m.loggedIn {
			m.feedViews[m.tabIndex], cmd = m.feedViews[m.tabIndex].Update(msg)
		}
	case ViewSensors:
		m.sensorView, cmd = m.sensorView.Update(msg)
	case ViewDetail:
		m.detailView, cmd = m.detailView.Update(msg)
	case ViewForm:
		m.formView, cmd = m.formView.Update(msg)
	case ViewHelp:
		m.helpView, cmd = m.helpView.Update(msg)
	case ViewCommand:
		m.cmdView, cmd = m.cmdView.Update(msg)
	case ViewUsers:
		m.userView, cmd = m.userView.Update(msg)
	}

	// The sensor poll keeps ticking while other views are up so the
	// readings are fresh when the user returns.
	if m.currentView != ViewSensors && m.loggedIn {
		switch msg.(type) {
		case floodpanel.SensorsLoadedMsg, floodpanel.TickMsg:
			var tick tea.Cmd
			m.sensorView, tick = m.sensorView.Update(msg)
			return m, tea.Batch(cmd, tick)
		}
	}

	return m, cmd
}

// startSession brings the app into the logged-in state: persists the
// session when fresh, connects the push channel, and seeds the feeds.
func (m Model) startSession(sess session.Session, persist bool) (tea.Model, tea.Cmd) {
	m.sess = sess
	m.loggedIn = true
	m.client.SetToken(sess.Token)

	if persist {
		if err := m.sessions.Save(sess); err != nil {
			m.log.Warn("saving session failed", "error", err)
		}
	}

	// Push channel.
	pushURL, err := push.URLFromHTTP(m.cfg.Server.BaseURL, m.cfg.Server.PushPath)
	if err != nil {
		m.log.Error("push URL invalid", "error", err)
	} else {
		m.pushCh = push.New(push.Config{
			URL:   pushURL,
			Token: sess.Token,
			Log:   m.log,
		})
	}

	m.feeds = newFeeds(m.client, m.postNotice, m.log)
	m.buildFeedViews()

	ctx, cancel := context.WithCancel(context.Background())
	m.pushCancel = cancel
	if m.pushCh != nil {
		ch := m.pushCh
		go func() {
			if err := ch.Run(ctx); err != nil && ctx.Err() == nil {
				m.log.Warn("push channel stopped", "error", err)
			}
		}()
	}

	m.currentView = ViewFeed
	m.tabIndex = tabAnnouncements
	m.connStatus = "connecting"

	feeds := m.feeds
	cache := m.cache
	pushCh := m.pushCh
	events := m.events
	log := m.log
	start := func() tea.Msg {
		startCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		feeds.seedFromCache(startCtx, cache)
		err := feeds.startAll(startCtx, pushCh)
		if err != nil {
			log.Warn("initial seed failed", "error", err)
		}
		// The bumps subscribe after the feed handlers, so sequential
		// dispatch applies the mutation before the UI wakes to render it.
		subscribeBumps(pushCh, events)
		return feedsStartedMsg{err: err}
	}

	return m, tea.Batch(start, m.waitForEvent(), m.sensorView.Init())
}

// forceLogout drops the session and returns to the login view, used when
// the backend rejects the token mid-session.
func (m Model) forceLogout(reason string) (tea.Model, tea.Cmd) {
	m.teardownSession()
	m.sessions.Clear()
	m.sess = session.Session{}
	m.currentView = ViewLogin

	// Cached records are scoped to the account that fetched them.
	if m.cache != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.cache.Clear(ctx); err != nil {
			m.log.Warn("clearing offline cache failed", "error", err)
		}
	}

	return m, m.loginView.SetError(reason)
}

// teardownSession stops the feeds and push channel.
func (m *Model) teardownSession() {
	if m.feeds != nil {
		m.feeds.stopAll()
		m.feeds = nil
	}
	if m.pushCancel != nil {
		m.pushCancel()
		m.pushCancel = nil
	}
	if m.pushCh != nil {
		m.pushCh.Close()
		m.pushCh = nil
	}
	m.loggedIn = false
}

// shutdown mirrors the cache and quits.
func (m Model) shutdown() tea.Cmd {
	feeds := m.feeds
	cache := m.cache
	return func() tea.Msg {
		if feeds != nil && cache != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			feeds.mirrorToCache(ctx, cache)
		}
		return tea.Quit()
	}
}

// postNotice feeds a banner text into the event channel from any
// goroutine without blocking the push read loop.
func (m Model) postNotice(text string) {
	select {
	case m.events <- noticeMsg{text: text}:
	default:
	}
}

// bumpEvents lists every push event that mutates some collection.
var bumpEvents = []string{
	"newAnnouncement", "announcementUpdated", "announcementDeleted",
	"newNotification", "notificationUpdated", "notificationDeleted",
	"newFloodReport", "floodReportUpdated", "floodReportDeleted",
	"newIncident", "incidentUpdated", "incidentDeleted",
	"newVisitorRequest", "visitorRequestUpdated", "visitorRequestDeleted",
}

// subscribeBumps registers lightweight push subscriptions that wake the
// UI. Must run after the feed handlers are subscribed: dispatch fires
// handlers in registration order, so the collection mutation lands
// before the wake-up.
func subscribeBumps(ch *push.Channel, events chan<- tea.Msg) {
	if ch == nil {
		return
	}
	wake := func(json.RawMessage) {
		select {
		case events <- feedEventMsg{}:
		default:
		}
	}
	for _, name := range bumpEvents {
		ch.Subscribe(name, wake)
	}
	ch.OnReconnect(func() {
		select {
		case events <- reconnectedMsg{}:
		default:
		}
	})
}

// waitForEvent re-arms the bridge between the push goroutine and the
// Bubble Tea update loop.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// broadcastReload re-projects the active feed view.
func (m Model) broadcastReload() tea.Cmd {
	if !m.loggedIn {
		return nil
	}
	return func() tea.Msg { return feedview.ReloadMsg{} }
}

// mirrorCache persists the current collections off the UI thread.
func (m Model) mirrorCache() tea.Cmd {
	feeds := m.feeds
	cache := m.cache
	if feeds == nil || cache == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		feeds.mirrorToCache(ctx, cache)
		return nil
	}
}

// buildFeedViews wires the five list views to their collections.
func (m *Model) buildFeedViews() {
	w, h := 80, 22
	if m.ready {
		w, h = m.layout.ContentWidth(), m.layout.ContentHeight()
	}

	announcements := m.feeds.Announcements.Collection()
	categories := append([]string{feed.KindAll}, model.AnnouncementCategories...)
	m.feedViews[tabAnnouncements] = feedview.New(feedview.Config{
		Title:      "Announcements",
		Keys:       m.keys,
		View:       itemsOf(announcements),
		SetFilter:  announcements.SetFilter,
		GetFilter:  announcements.Filter,
		Describe:   describeAnnouncement,
		Categories: categories,
		TagStyle:   theme.CategoryStyle,
	}, w, h)

	notifications := m.feeds.Notifications.Collection()
	m.feedViews[tabNotifications] = feedview.New(feedview.Config{
		Title:     "Notifications",
		Keys:      m.keys,
		View:      itemsOf(notifications),
		SetFilter: notifications.SetFilter,
		GetFilter: notifications.Filter,
		Describe:  describeNotification,
	}, w, h)

	floods := m.feeds.Floods.Collection()
	m.feedViews[tabFloods] = feedview.New(feedview.Config{
		Title:     "Flood Alerts",
		Keys:      m.keys,
		View:      itemsOf(floods),
		SetFilter: floods.SetFilter,
		GetFilter: floods.Filter,
		Describe:  describeFlood,
		Categories: []string{
			feed.KindAll, model.SeverityHigh,
			model.SeverityMedium, model.SeverityLow,
		},
		TagStyle: theme.SeverityStyle,
	}, w, h)

	incidents := m.feeds.Incidents.Collection()
	m.feedViews[tabIncidents] = feedview.New(feedview.Config{
		Title:     "Incidents",
		Keys:      m.keys,
		View:      itemsOf(incidents),
		SetFilter: incidents.SetFilter,
		GetFilter: incidents.Filter,
		Describe:  describeIncident,
	}, w, h)

	visitors := m.feeds.Visitors.Collection()
	m.feedViews[tabVisitors] = feedview.New(feedview.Config{
		Title:     "Visitor Requests",
		Keys:      m.keys,
		View:      itemsOf(visitors),
		SetFilter: visitors.SetFilter,
		GetFilter: visitors.Filter,
		Describe:  describeVisitor,
		Categories: []string{
			feed.KindAll, model.VisitorPending,
			model.VisitorApproved, model.VisitorRejected,
		},
		TagStyle: theme.StatusStyle,
	}, w, h)
}

// View renders the full terminal UI.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.currentView == ViewLogin {
		return m.loginView.View()
	}

	title := "CommuniSafe"
	if m.sess.Name != "" {
		title = "CommuniSafe — " + m.sess.Name
	}
	header := m.layout.RenderHeader(title, m.connStatus)

	activeTab := m.tabIndex
	if m.currentView == ViewSensors {
		activeTab = tabCount
	}
	tabBar := m.layout.RenderTabs(tabTitles, activeTab)

	content := m.renderContent()
	statusBar := m.layout.RenderStatusBar(m.statusLine())

	return m.layout.RenderWithFrame(header, tabBar, content, statusBar)
}

// renderContent returns the rendered string for the current active view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewFeed:
		if !m.loggedIn {
			return ""
		}
		return m.feedViews[m.tabIndex].View()
	case ViewSensors:
		return m.sensorView.View()
	case ViewDetail:
		return m.detailView.View()
	case ViewForm:
		return m.formView.View()
	case ViewHelp:
		return m.helpView.View()
	case ViewCommand:
		return m.cmdView.View()
	case ViewUsers:
		return m.userView.View()
	default:
		return ""
	}
}

// statusLine picks what the bottom bar shows: notices and errors first,
// then contextual key hints.
func (m Model) statusLine() string {
	if m.notice != "" {
		return theme.NoticeStyle.Render(m.notice)
	}
	if m.lastErr != "" {
		return "error: " + m.lastErr
	}

	switch m.currentView {
	case ViewHelp:
		return "? close help | esc back"
	case ViewCommand:
		return "enter execute | tab complete | esc back"
	case ViewDetail:
		return m.detailHints()
	case ViewForm:
		return "enter next | shift+tab back | esc cancel"
	case ViewUsers:
		return "p approve | x reject | r refresh | esc back"
	case ViewSensors:
		return "1-5 feeds | q quit | ? help"
	default:
		if summary := m.feedViews[m.tabIndex].FilterSummary(); summary != "" {
			return summary + " | / search | tab category | esc clear"
		}
		return m.feedHints()
	}
}

// feedHints returns the role-aware hints for the active tab.
func (m Model) feedHints() string {
	base := "q quit | ? help | / search | r refresh | 1-6 views"
	switch m.tabIndex {
	case tabAnnouncements:
		if m.sess.Role.CanPostAnnouncements() {
			return base + " | n new | e edit | d delete"
		}
	case tabNotifications:
		return base + " | m mark read | d delete | C clear all"
	case tabFloods:
		if m.sess.Role.CanReportFloods() {
			return base + " | n report flood"
		}
	case tabIncidents:
		if m.sess.Role.CanRespondToIncidents() {
			return base + " | n report | t respond | R resolve"
		}
		return base + " | n report"
	case tabVisitors:
		if m.sess.Role.CanManageVisitors() {
			return base + " | n request | p approve | x reject"
		}
		return base + " | n request"
	}
	return base
}
