package notiflist

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/fleetbell/internal/keys"
	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/notifications"
)

type recordedActions struct {
	markRead []int
	deleted  []int
	allRead  int
	allGone  int
}

func (r *recordedActions) MarkAsRead(i int)         { r.markRead = append(r.markRead, i) }
func (r *recordedActions) DeleteNotification(i int) { r.deleted = append(r.deleted, i) }
func (r *recordedActions) MarkAllAsRead()           { r.allRead++ }
func (r *recordedActions) DeleteAllNotifications()  { r.allGone++ }

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func fixture(t *testing.T, snap notifications.Snapshot) (Model, *recordedActions) {
	t.Helper()
	actions := &recordedActions{}
	m := New(actions, keys.DefaultKeyMap(), 100, 30)
	m, _ = m.Update(snap)
	return m, actions
}

var sample = []model.Notification{
	{Title: "Hidden", Message: "Trips 0 today"},
	{Title: "Overspeed", Message: "KDA 123A at 110", VehicleRegistrationNo: "KDA 123A"},
	{Title: "Hidden too", Message: "Fuel 0 left"},
	{Title: model.PasswordResetTitle, Message: "jdoe forgot", EmailAddress: "j@doe.co", Username: "jdoe", IsPasswordReset: true},
}

func TestSnapshotHidesSuppressed(t *testing.T) {
	m, _ := fixture(t, notifications.Snapshot{Items: sample, UnreadCount: 4})

	require.Len(t, m.list.Items(), 2)
	it, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, 1, it.Index)
	assert.Equal(t, "Overspeed", it.Notification.Title)
}

func TestActionsUseStoreIndices(t *testing.T) {
	m, actions := fixture(t, notifications.Snapshot{Items: sample})

	m, _ = m.Update(runes("m"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(runes("d"))
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, []int{1, 3}, actions.markRead)
	assert.Equal(t, []int{3}, actions.deleted)
}

func TestBulkActions(t *testing.T) {
	m, actions := fixture(t, notifications.Snapshot{Items: sample})

	m, _ = m.Update(runes("M"))
	_, _ = m.Update(runes("D"))

	assert.Equal(t, 1, actions.allRead)
	assert.Equal(t, 1, actions.allGone)
}

func TestResetPasswordOnlyForResetRequests(t *testing.T) {
	m, _ := fixture(t, notifications.Snapshot{Items: sample})

	_, cmd := m.Update(runes("r"))
	assert.Nil(t, cmd)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd = m.Update(runes("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, ResetPasswordMsg{EmailAddress: "j@doe.co", Username: "jdoe"}, cmd())
}

func TestErrorBlocksActions(t *testing.T) {
	m, actions := fixture(t, notifications.Snapshot{Items: sample, Err: errors.New("backend unreachable")})

	m, _ = m.Update(runes("M"))
	m, _ = m.Update(runes("d"))

	assert.Zero(t, actions.allRead)
	assert.Empty(t, actions.deleted)
	assert.Contains(t, m.View(), "backend unreachable")
}

func TestLoadingView(t *testing.T) {
	m, actions := fixture(t, notifications.Snapshot{Loading: true})

	m, _ = m.Update(runes("D"))

	assert.Zero(t, actions.allGone)
	assert.Contains(t, m.View(), "Loading notifications")
}

func TestEmptyView(t *testing.T) {
	m, _ := fixture(t, notifications.Snapshot{Items: []model.Notification{}})

	assert.Contains(t, m.View(), "No notifications.")
}

func TestActionsOnEmptyListAreSafe(t *testing.T) {
	m, actions := fixture(t, notifications.Snapshot{})

	m, _ = m.Update(runes("m"))
	_, _ = m.Update(runes("d"))

	assert.Empty(t, actions.markRead)
	assert.Empty(t, actions.deleted)
}

func TestOpenCarriesStoreIndex(t *testing.T) {
	m, _ := fixture(t, notifications.Snapshot{Items: sample})

	_, cmd := m.Update(runes("o"))
	require.NotNil(t, cmd)
	msg, ok := cmd().(OpenMsg)
	require.True(t, ok)
	assert.Equal(t, 1, msg.Entry.Index)
	assert.Equal(t, "Overspeed", msg.Entry.Notification.Title)
}
