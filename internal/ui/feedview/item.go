package feedview

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/communisafe/communisafe/internal/feed"
	"github.com/communisafe/communisafe/internal/theme"
)

// Describe renders one record as a list row: the main line text and a
// short tag (category, severity, or status) styled by tagStyle.
type Describe[T feed.Item] func(item T) (line string, tag string)

// rowItem wraps a record so it can be used in a bubbles/list.
type rowItem[T feed.Item] struct {
	item     T
	describe Describe[T]
}

// FilterValue returns the string used for fuzzy filtering. The view does
// its own search so this is only the row text.
func (r rowItem[T]) FilterValue() string {
	line, _ := r.describe(r.item)
	return line
}

// rowDelegate implements list.ItemDelegate for rendering record rows.
type rowDelegate[T feed.Item] struct {
	tagStyle func(tag string) lipgloss.Style
}

// Height returns the number of lines each row takes.
func (d rowDelegate[T]) Height() int { return 1 }

// Spacing returns the number of blank lines between rows.
func (d rowDelegate[T]) Spacing() int { return 0 }

// Update handles per-row messages (unused).
func (d rowDelegate[T]) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single record row.
func (d rowDelegate[T]) Render(w io.Writer, m list.Model, index int, item list.Item) {
	row, ok := item.(rowItem[T])
	if !ok {
		return
	}

	line, tag := row.describe(row.item)
	when := relativeTime(effectiveRowTime(row.item))

	tagRendered := ""
	if tag != "" {
		style := theme.HelpStyle
		if d.tagStyle != nil {
			style = d.tagStyle(tag)
		}
		tagRendered = style.Render(tag)
	}

	text := line
	if when != "" {
		text = fmt.Sprintf("%s  %s", line, theme.HelpStyle.Render(when))
	}

	if index == m.Index() {
		fmt.Fprint(w, theme.SelectedItemStyle.Render(text+" "+tagRendered))
		return
	}
	fmt.Fprint(w, theme.ListItemStyle.Render(text+" "+tagRendered))
}

// effectiveRowTime mirrors the collection's ordering timestamp for display.
func effectiveRowTime(it feed.Item) time.Time {
	if t := it.OccurredAt(); !t.IsZero() {
		return t
	}
	return it.PostedAt()
}

// relativeTime formats a timestamp as a short age like "5m" or "2d".
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "now"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}
