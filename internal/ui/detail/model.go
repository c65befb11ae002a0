package detail

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/fleetbell/internal/keys"
	"github.com/nhle/fleetbell/internal/notifications"
	"github.com/nhle/fleetbell/internal/theme"
	"github.com/nhle/fleetbell/internal/ui/notiflist"
)

// BackMsg signals the parent to navigate back to the list view.
type BackMsg struct{}

// MarkReadMsg asks the parent to mark the shown notification read.
type MarkReadMsg struct {
	Index int
}

// Model is the notification detail view component. It shows a copy of the
// entry taken when it was opened.
type Model struct {
	entry    *notifications.Entry
	viewport viewport.Model
	keys     *keys.KeyMap
	width    int
	height   int
}

// New creates a new detail view model.
func New(keys *keys.KeyMap, width, height int) Model {
	vp := viewport.New(width, height-2)
	vp.Style = lipgloss.NewStyle()

	return Model{
		viewport: vp,
		keys:     keys,
		width:    width,
		height:   height,
	}
}

// Update handles messages for the detail view.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && m.entry != nil {
		n := m.entry.Notification
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, func() tea.Msg { return BackMsg{} }

		case key.Matches(msg, m.keys.MarkRead):
			if n.Read {
				return m, nil
			}
			m.entry.Notification.Read = true
			m.viewport.SetContent(m.renderContent())
			idx := m.entry.Index
			return m, func() tea.Msg { return MarkReadMsg{Index: idx} }

		case key.Matches(msg, m.keys.ResetPassword):
			if !n.IsPasswordReset {
				return m, nil
			}
			req := notiflist.ResetPasswordMsg{
				EmailAddress: n.EmailAddress,
				Username:     n.Username,
			}
			return m, func() tea.Msg { return req }
		}
	}

	// Delegate to viewport for scrolling (j/k, up/down, pgup/pgdn)
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View renders the detail view.
func (m Model) View() string {
	if m.entry == nil {
		emptyStyle := lipgloss.NewStyle().
			Width(m.width).
			Height(m.height).
			Align(lipgloss.Center, lipgloss.Center).
			Foreground(theme.ColorGray)
		return emptyStyle.Render("No notification selected")
	}

	return m.viewport.View()
}

func (m Model) renderContent() string {
	if m.entry == nil {
		return ""
	}

	n := m.entry.Notification
	var sections []string

	titleStyle := theme.UnreadTitleStyle
	if n.Read {
		titleStyle = theme.ReadTitleStyle
	}
	if n.IsPasswordReset {
		titleStyle = theme.PasswordResetStyle
	}
	sections = append(sections, theme.UnreadDot(n.Read)+" "+titleStyle.Render(n.Title))
	sections = append(sections, "")

	metaStyle := lipgloss.NewStyle().Foreground(theme.ColorGray)
	valStyle := lipgloss.NewStyle().Foreground(theme.ColorWhite)

	fields := []struct{ label, value string }{
		{"Received:", n.Time},
		{"Vehicle:", n.VehicleRegistrationNo},
		{"User:", n.Username},
		{"Email:", n.EmailAddress},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		sections = append(sections, fmt.Sprintf(
			"%-10s %s",
			metaStyle.Render(f.label),
			valStyle.Render(f.value),
		))
	}

	sepStyle := lipgloss.NewStyle().Foreground(theme.ColorSubtle)
	separator := sepStyle.Render(strings.Repeat("─", max(min(m.width-4, 80), 0)))
	sections = append(sections, "", separator, "")

	body := n.Message
	if body == "" {
		body = lipgloss.NewStyle().
			Foreground(theme.ColorGray).
			Italic(true).
			Render("No message")
	}
	sections = append(sections, body)

	if n.IsPasswordReset {
		sections = append(sections, "", metaStyle.Render("Press r to send the password reset."))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// SetEntry updates the notification being displayed.
func (m *Model) SetEntry(e notifications.Entry) {
	m.entry = &e
	m.viewport.SetContent(m.renderContent())
	m.viewport.GotoTop()
}

// Refresh replaces the shown entry without moving the scroll position.
func (m *Model) Refresh(e notifications.Entry) {
	m.entry = &e
	m.viewport.SetContent(m.renderContent())
}

// Clear drops the shown entry.
func (m *Model) Clear() {
	m.entry = nil
	m.viewport.SetContent("")
}

// Entry returns the shown entry, if any.
func (m Model) Entry() (notifications.Entry, bool) {
	if m.entry == nil {
		return notifications.Entry{}, false
	}
	return *m.entry, true
}

// SetSize updates the detail view dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height - 2
	m.viewport.SetContent(m.renderContent())
}

// Title returns the title of the shown notification, for the header.
func (m Model) Title() string {
	if m.entry == nil {
		return ""
	}
	return m.entry.Notification.Title
}
