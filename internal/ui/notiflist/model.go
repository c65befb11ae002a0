// Package notiflist is the notification list view: the visible items of
// the store with per-item and bulk actions.
package notiflist

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/fleetbell/internal/keys"
	"github.com/nhle/fleetbell/internal/notifications"
	"github.com/nhle/fleetbell/internal/theme"
)

// Actions is the mutation surface the list drives. Indices are store
// indices.
type Actions interface {
	MarkAsRead(index int)
	DeleteNotification(index int)
	MarkAllAsRead()
	DeleteAllNotifications()
}

// ResetPasswordMsg asks the app to run the password reset action for the
// user a notification concerns.
type ResetPasswordMsg struct {
	EmailAddress string
	Username     string
}

// OpenMsg asks the app to show the detail view for an entry.
type OpenMsg struct {
	Entry notifications.Entry
}

// Model is the notification list view component.
type Model struct {
	list    list.Model
	spinner spinner.Model
	actions Actions
	keys    *keys.KeyMap
	snap    notifications.Snapshot
	width   int
	height  int
}

// New creates a notification list bound to actions.
func New(actions Actions, k *keys.KeyMap, width, height int) Model {
	l := list.New([]list.Item{}, ItemDelegate{}, width, height)
	l.Title = "Notifications"
	l.SetShowStatusBar(true)
	l.SetShowHelp(false)
	l.SetFilteringEnabled(false)
	l.SetStatusBarItemName("notification", "notifications")
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)
	l.Styles.Title = theme.HeaderStyle

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		list:    l,
		spinner: sp,
		actions: actions,
		keys:    k,
		width:   width,
		height:  height,
	}
}

// Init returns the initial command.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages for the list view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case notifications.Snapshot:
		return m.setSnapshot(msg)

	case spinner.TickMsg:
		if !m.snap.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.snap.Loading || m.snap.Err != nil {
			return m, nil
		}
		return m.handleKeys(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) setSnapshot(snap notifications.Snapshot) (Model, tea.Cmd) {
	wasLoading := m.snap.Loading
	m.snap = snap

	entries := notifications.Visible(snap.Items)
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = Item{Entry: e}
	}
	cmds := []tea.Cmd{m.list.SetItems(items)}

	if snap.Loading && !wasLoading {
		cmds = append(cmds, m.spinner.Tick)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleKeys(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.MarkRead):
		if it, ok := m.Selected(); ok {
			m.actions.MarkAsRead(it.Index)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if it, ok := m.Selected(); ok {
			m.actions.DeleteNotification(it.Index)
		}
		return m, nil

	case key.Matches(msg, m.keys.MarkAllRead):
		m.actions.MarkAllAsRead()
		return m, nil

	case key.Matches(msg, m.keys.DeleteAll):
		m.actions.DeleteAllNotifications()
		return m, nil

	case key.Matches(msg, m.keys.Open):
		it, ok := m.Selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return OpenMsg{Entry: it.Entry} }

	case key.Matches(msg, m.keys.ResetPassword):
		it, ok := m.Selected()
		if !ok || !it.Notification.IsPasswordReset {
			return m, nil
		}
		req := ResetPasswordMsg{
			EmailAddress: it.Notification.EmailAddress,
			Username:     it.Notification.Username,
		}
		return m, func() tea.Msg { return req }
	}

	// Delegate to the list for navigation keys (up/down/pgup/pgdn)
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// Selected returns the highlighted item.
func (m Model) Selected() (Item, bool) {
	it, ok := m.list.SelectedItem().(Item)
	return it, ok
}

// Snapshot returns the state last rendered.
func (m Model) Snapshot() notifications.Snapshot {
	return m.snap
}

// View renders the list, the loading spinner or the blocking error.
func (m Model) View() string {
	center := lipgloss.NewStyle().
		Width(m.width).
		Height(m.height).
		Align(lipgloss.Center, lipgloss.Center)

	switch {
	case m.snap.Err != nil:
		panel := theme.ErrorPanelStyle.Render(
			"Could not load notifications\n\n" + m.snap.Err.Error(),
		)
		return center.Render(panel)

	case m.snap.Loading:
		return center.Render(m.spinner.View() + " Loading notifications…")

	case len(m.list.Items()) == 0:
		return center.Foreground(theme.ColorGray).Render("No notifications.")
	}

	return m.list.View()
}

// SetSize updates the list dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.list.SetSize(width, height)
}
