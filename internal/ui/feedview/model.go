// Package feedview renders one live collection as a navigable list with
// search and category filtering. One instance exists per domain tab.
package feedview

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/communisafe/communisafe/internal/feed"
	"github.com/communisafe/communisafe/internal/keys"
	"github.com/communisafe/communisafe/internal/theme"
)

// SelectedMsg is sent when a user selects a record to view details.
type SelectedMsg struct {
	ID string
}

// ReloadMsg asks the view to re-project its collection. The root model
// broadcasts it whenever a push event lands or a fetch completes.
type ReloadMsg struct{}

// Model is a list view over one live collection.
type Model struct {
	title       string
	keys        *keys.KeyMap
	view        func() []feed.Item
	setFilter   func(feed.Criteria)
	getFilter   func() feed.Criteria
	describe    Describe[feed.Item]
	categories  []string
	catIndex    int
	list        list.Model
	searchMode  bool
	searchInput textinput.Model
	width       int
	height      int
}

// Config wires a feedview to its collection accessors.
type Config struct {
	Title string
	Keys  *keys.KeyMap

	// View, SetFilter, and GetFilter bind the view to one collection.
	View      func() []feed.Item
	SetFilter func(feed.Criteria)
	GetFilter func() feed.Criteria

	// Describe renders one record as a row.
	Describe Describe[feed.Item]

	// Categories, when non-empty, enables Tab cycling through them. The
	// leading entry should match everything.
	Categories []string

	// TagStyle styles the row tag; defaults to the help style.
	TagStyle func(tag string) lipgloss.Style
}

// New creates a feed list view.
func New(cfg Config, width, height int) Model {
	delegate := rowDelegate[feed.Item]{tagStyle: cfg.TagStyle}
	l := list.New([]list.Item{}, delegate, width, height-2)
	l.Title = cfg.Title
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	si := textinput.New()
	si.Placeholder = "search..."
	si.Prompt = "/ "
	si.Width = width - 4

	return Model{
		title:       cfg.Title,
		keys:        cfg.Keys,
		view:        cfg.View,
		setFilter:   cfg.SetFilter,
		getFilter:   cfg.GetFilter,
		describe:    cfg.Describe,
		categories:  cfg.Categories,
		list:        l,
		searchInput: si,
		width:       width,
		height:      height,
	}
}

// Init projects the collection for the first render.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return ReloadMsg{} }
}

// Update handles messages for the feed list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case ReloadMsg:
		return m.reload()

	case tea.KeyMsg:
		if m.searchMode {
			return m.handleSearchKeys(msg)
		}
		return m.handleNormalKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// reload re-projects the collection into the list.
func (m Model) reload() (Model, tea.Cmd) {
	records := m.view()
	items := make([]list.Item, len(records))
	for i, r := range records {
		items[i] = rowItem[feed.Item]{item: r, describe: m.describe}
	}
	cmd := m.list.SetItems(items)
	return m, cmd
}

// handleSearchKeys processes key input while in search mode.
func (m Model) handleSearchKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.searchMode = false
		criteria := m.getFilter()
		criteria.SearchTerm = m.searchInput.Value()
		m.setFilter(criteria)
		return m.reload()

	case "esc":
		m.searchMode = false
		m.searchInput.Reset()
		criteria := m.getFilter()
		criteria.SearchTerm = ""
		m.setFilter(criteria)
		return m.reload()
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

// handleNormalKeys processes key input in normal (non-search) mode.
func (m Model) handleNormalKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Select):
		item, ok := m.list.SelectedItem().(rowItem[feed.Item])
		if !ok {
			return m, nil
		}
		id := item.item.Key()
		return m, func() tea.Msg {
			return SelectedMsg{ID: id}
		}

	case key.Matches(msg, m.keys.Search):
		m.searchMode = true
		m.searchInput.Reset()
		return m, m.searchInput.Focus()

	case key.Matches(msg, m.keys.CycleCategory):
		if len(m.categories) == 0 {
			break
		}
		m.catIndex = (m.catIndex + 1) % len(m.categories)
		criteria := m.getFilter()
		criteria.Category = m.categories[m.catIndex]
		m.setFilter(criteria)
		return m.reload()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// InSearch reports whether the search input is capturing keystrokes.
func (m Model) InSearch() bool {
	return m.searchMode
}

// SelectedID returns the id of the focused record.
func (m Model) SelectedID() (string, bool) {
	item, ok := m.list.SelectedItem().(rowItem[feed.Item])
	if !ok {
		return "", false
	}
	return item.item.Key(), true
}

// View renders the feed list view.
func (m Model) View() string {
	if m.searchMode {
		searchBar := lipgloss.NewStyle().
			Foreground(theme.ColorWhite).
			Padding(0, 1).
			Render(m.searchInput.View())
		return lipgloss.JoinVertical(lipgloss.Left, searchBar, m.list.View())
	}

	if len(m.list.Items()) == 0 {
		return m.renderEmptyState()
	}

	return m.list.View()
}

// renderEmptyState shows guidance text when no records match.
func (m Model) renderEmptyState() string {
	criteria := m.getFilter()
	filtered := criteria.SearchTerm != "" ||
		(criteria.Category != "" && criteria.Category != feed.KindAll)

	style := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center).
		Foreground(theme.ColorGray)

	if filtered {
		return style.Render("No matching records.\nTry adjusting the search or category filter.")
	}
	return style.Render("Nothing here yet.")
}

// FilterSummary describes the active filters for the status bar, empty
// when no filter is active.
func (m Model) FilterSummary() string {
	criteria := m.getFilter()
	summary := ""
	if criteria.Category != "" && criteria.Category != feed.KindAll {
		summary = "category: " + criteria.Category
	}
	if criteria.SearchTerm != "" {
		if summary != "" {
			summary += " | "
		}
		summary += "search: " + criteria.SearchTerm
	}
	return summary
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height-2)
	m.searchInput.Width = width - 4
}
