// Package floodpanel renders the water-level sensor dashboard. Sensors
// have no push events, so the panel refreshes on a timer.
package floodpanel

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/communisafe/communisafe/internal/api"
	"github.com/communisafe/communisafe/internal/model"
	"github.com/communisafe/communisafe/internal/theme"
)

// SensorsLoadedMsg carries a sensor poll result.
type SensorsLoadedMsg struct {
	Sensors []model.SensorReading
	Err     error
}

// TickMsg fires the next scheduled poll. Exported so the root model can
// keep routing it while another view is active.
type TickMsg time.Time

// Model is the sensor dashboard component.
type Model struct {
	client   *api.Client
	interval time.Duration
	sensors  []model.SensorReading
	loadErr  error
	width    int
	height   int
}

// New creates a sensor dashboard polling at the given interval.
func New(client *api.Client, interval time.Duration, width, height int) Model {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return Model{
		client:   client,
		interval: interval,
		width:    width,
		height:   height,
	}
}

// Init starts the first poll.
func (m Model) Init() tea.Cmd {
	return m.load()
}

// Update handles messages for the sensor dashboard.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case SensorsLoadedMsg:
		if msg.Err != nil {
			m.loadErr = msg.Err
		} else {
			m.loadErr = nil
			m.sensors = msg.Sensors
		}
		return m, m.tick()

	case TickMsg:
		return m, m.load()
	}
	return m, nil
}

// load polls the sensor endpoint.
func (m Model) load() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		sensors, err := client.ListSensors(ctx)
		return SensorsLoadedMsg{Sensors: sensors, Err: err}
	}
}

// tick schedules the next poll.
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// View renders the sensor table.
func (m Model) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(theme.ColorWhite).
		MarginBottom(1)

	var b strings.Builder
	b.WriteString(titleStyle.Render("Water Level Sensors"))
	b.WriteString("\n")

	if m.loadErr != nil {
		b.WriteString(lipgloss.NewStyle().
			Foreground(theme.ColorRed).
			Render("sensor poll failed: " + m.loadErr.Error()))
		b.WriteString("\n\n")
	}

	if len(m.sensors) == 0 {
		b.WriteString(theme.HelpStyle.Render("No sensor data yet."))
		return theme.DetailPanelStyle.Width(m.width - 4).Render(b.String())
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(theme.ColorGray)
	b.WriteString(headerStyle.Render(fmt.Sprintf(
		"%-20s %10s %8s %8s %10s",
		"Sensor", "Level (ft)", "Flood", "Battery", "Updated")))
	b.WriteString("\n")

	for _, s := range m.sensors {
		level := s.FloodLevel()
		line := fmt.Sprintf(
			"%-20s %10.2f %8s %7d%% %10s",
			truncate(s.Name, 20),
			s.WaterLevelFt(),
			level,
			s.BatteryLevel,
			relativeTime(s.LastUpdated),
		)
		b.WriteString(theme.SeverityStyle(level).UnsetPadding().Render(line))
		b.WriteString("\n")
	}

	return theme.DetailPanelStyle.Width(m.width - 4).Render(b.String())
}

// SetSize updates the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}

func relativeTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	default:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	}
}
