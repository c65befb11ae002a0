package notifications

import (
	"strings"

	"github.com/nhle/fleetbell/internal/model"
)

// Suppressed reports whether the list view hides n: its message's second
// whitespace-separated word is "0".
func Suppressed(n model.Notification) bool {
	fields := strings.Fields(n.Message)
	return len(fields) >= 2 && fields[1] == "0"
}

// Entry is a visible item paired with its position in the store.
type Entry struct {
	Index        int
	Notification model.Notification
}

// Visible returns the items the list view shows, keeping store indices so
// actions target the right item.
func Visible(items []model.Notification) []Entry {
	entries := make([]Entry, 0, len(items))
	for i, n := range items {
		if Suppressed(n) {
			continue
		}
		entries = append(entries, Entry{Index: i, Notification: n})
	}
	return entries
}

