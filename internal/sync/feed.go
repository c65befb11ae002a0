package sync

import (
	gosync "sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/fleetbell/internal/notifications"
)

// FeedClosedMsg is sent once the store stops publishing snapshots.
type FeedClosedMsg struct{}

// Feed relays notification store snapshots to the Bubble Tea runtime.
type Feed struct {
	updates <-chan notifications.Snapshot
	cancel  func()
	once    gosync.Once
}

// NewFeed subscribes to s.
func NewFeed(s *notifications.Store) *Feed {
	updates, cancel := s.Subscribe()
	return &Feed{updates: updates, cancel: cancel}
}

// WaitForNext returns a command that blocks until the next snapshot and
// delivers it as a notifications.Snapshot message. Re-issue it after each
// snapshot to keep listening.
func (f *Feed) WaitForNext() tea.Cmd {
	return func() tea.Msg {
		snap, ok := <-f.updates
		if !ok {
			return FeedClosedMsg{}
		}
		return snap
	}
}

// Stop ends the subscription. Pending WaitForNext commands return
// FeedClosedMsg.
func (f *Feed) Stop() {
	f.once.Do(f.cancel)
}
