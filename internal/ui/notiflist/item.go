package notiflist

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/fleetbell/internal/notifications"
	"github.com/nhle/fleetbell/internal/theme"
)

// Item wraps a visible notification for bubbles/list. Index is the
// notification's position in the store.
type Item struct {
	notifications.Entry
}

// FilterValue returns the string used for fuzzy filtering.
func (i Item) FilterValue() string { return i.Notification.Title }

// Title returns the notification title.
func (i Item) Title() string { return i.Notification.Title }

// Description returns a short summary line for the list.
func (i Item) Description() string {
	n := i.Notification
	return strings.Join([]string{n.VehicleRegistrationNo, n.Username, n.Time}, " | ")
}

// ItemDelegate renders notifications as two-line rows.
type ItemDelegate struct{}

// Height returns the number of lines each item takes.
func (d ItemDelegate) Height() int { return 2 }

// Spacing returns the number of blank lines between items.
func (d ItemDelegate) Spacing() int { return 1 }

// Update handles per-item messages (unused).
func (d ItemDelegate) Update(_ tea.Msg, _ *list.Model) tea.Cmd {
	return nil
}

// Render draws a single notification.
func (d ItemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(Item)
	if !ok {
		return
	}
	n := it.Notification

	titleStyle := theme.UnreadTitleStyle
	if n.Read {
		titleStyle = theme.ReadTitleStyle
	}

	tag := ""
	if n.IsPasswordReset {
		tag = " " + theme.PasswordResetStyle.Render("[reset]")
	}

	meta := lipgloss.NewStyle().Foreground(theme.ColorGray).Render(
		fmt.Sprintf("%s · %s · %s", n.VehicleRegistrationNo, n.Username, n.Time),
	)

	first := fmt.Sprintf("%s %s%s  %s", theme.UnreadDot(n.Read), titleStyle.Render(n.Title), tag, meta)
	second := "  " + n.Message

	cursor := "  "
	if index == m.Index() {
		cursor = lipgloss.NewStyle().Foreground(theme.ColorBlue).Bold(true).Render("▌ ")
	}

	fmt.Fprint(w, cursor+first+"\n"+cursor+second)
}
