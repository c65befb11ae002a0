package permission

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/nhle/fleetbell/internal/push"
	"github.com/nhle/fleetbell/internal/theme"
)

// AnsweredMsg is sent after the operator answers the prompt.
type AnsweredMsg struct {
	State push.PermissionState
}

// AlertDismissedMsg is sent when the operator acknowledges the denied alert.
type AlertDismissedMsg struct{}

// Mode is what the component is currently showing.
type Mode int

const (
	ModeIdle Mode = iota
	ModePrompt
	ModeAlert
)

// formBindings holds form field values on the heap so that huh's Value()
// pointers remain valid across Bubble Tea model copies.
type formBindings struct {
	allow bool
}

// Model is the permission prompt and denied alert.
type Model struct {
	mode    Mode
	form    *huh.Form
	fb      *formBindings
	pending RequestMsg
	width   int
}

// New creates an idle permission component.
func New(width int) Model {
	return Model{fb: &formBindings{allow: true}, width: width}
}

// Active reports whether the component wants keyboard focus.
func (m Model) Active() bool {
	return m.mode != ModeIdle
}

// Mode returns what is being shown.
func (m Model) Mode() Mode {
	return m.mode
}

// Prompt shows the "Allow notifications?" question for req.
func (m *Model) Prompt(req RequestMsg) tea.Cmd {
	m.pending = req
	m.fb.allow = true
	m.mode = ModePrompt
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Allow notifications?").
				Description(
					"Fleet alerts and password reset requests are pushed " +
						"to this console while it is running.",
				).
				Affirmative("Allow").
				Negative("Block").
				Value(&m.fb.allow),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Alert shows the blocking notice raised when notifications are denied.
func (m *Model) Alert() tea.Cmd {
	m.mode = ModeAlert
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Notifications blocked").
				Description(
					"This console will not receive fleet alerts. " +
						"Reset the notification_permission setting to be asked again.",
				).
				Next(true).
				NextLabel("OK"),
		),
	).WithWidth(m.formWidth())
	return m.form.Init()
}

// Update forwards messages to the active form.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if m.mode == ModeIdle || m.form == nil {
		return m, nil
	}

	mdl, cmd := m.form.Update(msg)
	if f, ok := mdl.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.finish(answerFor(m.fb.allow))
	case huh.StateAborted:
		return m.finish(push.PermissionDefault)
	}

	return m, cmd
}

func (m Model) finish(state push.PermissionState) (Model, tea.Cmd) {
	mode := m.mode
	m.mode = ModeIdle
	m.form = nil

	if mode == ModeAlert {
		return m, func() tea.Msg { return AlertDismissedMsg{} }
	}

	m.pending.Answer(state)
	m.pending = RequestMsg{}
	return m, func() tea.Msg { return AnsweredMsg{State: state} }
}

// answerFor maps the confirm value to a permission state.
func answerFor(allow bool) push.PermissionState {
	if allow {
		return push.PermissionGranted
	}
	return push.PermissionDenied
}

// View renders the active form.
func (m Model) View() string {
	if m.form == nil {
		return ""
	}
	border := theme.PanelStyle
	if m.mode == ModeAlert {
		border = border.BorderForeground(theme.ColorRed)
	}
	return border.Render(m.form.View())
}

// SetWidth updates the form width.
func (m *Model) SetWidth(width int) {
	m.width = width
	if m.form != nil {
		m.form = m.form.WithWidth(m.formWidth())
	}
}

func (m Model) formWidth() int {
	w := m.width - 8
	if w > 72 {
		w = 72
	}
	if w < 20 {
		w = 20
	}
	return w
}
