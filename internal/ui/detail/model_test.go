package detail

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/fleetbell/internal/keys"
	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/notifications"
	"github.com/nhle/fleetbell/internal/ui/notiflist"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func opened(n model.Notification, index int) Model {
	m := New(keys.DefaultKeyMap(), 80, 24)
	m.SetEntry(notifications.Entry{Index: index, Notification: n})
	return m
}

func TestEmptyView(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 24)

	assert.Contains(t, m.View(), "No notification selected")
	_, ok := m.Entry()
	assert.False(t, ok)
}

func TestRendersFields(t *testing.T) {
	m := opened(model.Notification{
		Title:                 "Overspeed",
		Message:               "KDA 123A at 110",
		VehicleRegistrationNo: "KDA 123A",
		Time:                  "10/17/2026, 9:30:00 AM",
	}, 2)

	view := m.View()
	assert.Contains(t, view, "Overspeed")
	assert.Contains(t, view, "KDA 123A at 110")
	assert.Contains(t, view, "Vehicle:")
	assert.NotContains(t, view, "Email:")
	assert.Equal(t, "Overspeed", m.Title())
}

func TestMarkReadOnce(t *testing.T) {
	m := opened(model.Notification{Title: "A"}, 3)

	m, cmd := m.Update(runes("m"))
	require.NotNil(t, cmd)
	assert.Equal(t, MarkReadMsg{Index: 3}, cmd())

	e, ok := m.Entry()
	require.True(t, ok)
	assert.True(t, e.Notification.Read)

	_, cmd = m.Update(runes("m"))
	assert.Nil(t, cmd)
}

func TestResetPasswordOnlyForResetRequests(t *testing.T) {
	m := opened(model.Notification{Title: "A", Username: "jdoe"}, 0)
	_, cmd := m.Update(runes("r"))
	assert.Nil(t, cmd)

	m = opened(model.Notification{
		Title:           model.PasswordResetTitle,
		EmailAddress:    "j@doe.co",
		Username:        "jdoe",
		IsPasswordReset: true,
	}, 0)
	_, cmd = m.Update(runes("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, notiflist.ResetPasswordMsg{EmailAddress: "j@doe.co", Username: "jdoe"}, cmd())
}

func TestBack(t *testing.T) {
	m := opened(model.Notification{Title: "A"}, 0)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	assert.Equal(t, BackMsg{}, cmd())
}

func TestClear(t *testing.T) {
	m := opened(model.Notification{Title: "A"}, 0)

	m.Clear()

	_, ok := m.Entry()
	assert.False(t, ok)
	assert.Contains(t, m.View(), "No notification selected")
}
