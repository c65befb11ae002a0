// Package bell renders the unread badge shown in the header.
package bell

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/fleetbell/internal/theme"
)

// Icon is the bell glyph.
const Icon = "🔔"

// maxShown caps the number printed on the badge.
const maxShown = 99

// Render returns the bell with its unread count. The count is hidden when
// there is nothing unread.
func Render(unread int) string {
	if unread <= 0 {
		return Icon
	}
	return lipgloss.JoinHorizontal(lipgloss.Center, Icon, " ", theme.BadgeStyle.Render(Label(unread)))
}

// Label formats the badge text.
func Label(unread int) string {
	if unread > maxShown {
		return strconv.Itoa(maxShown) + "+"
	}
	return strconv.Itoa(unread)
}
