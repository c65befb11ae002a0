package app

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/fleetbell/internal/ui/notiflist"
)

var errNoBackend = errors.New("no backend configured")

// resetPasswordResultMsg is sent after the password reset call returns.
type resetPasswordResultMsg struct {
	username string
	err      error
}

// resetPassword returns a command that asks the backend to reset the
// password of the user named in req.
func (m Model) resetPassword(req notiflist.ResetPasswordMsg) tea.Cmd {
	r := m.resetter
	ctx := m.ctx
	return func() tea.Msg {
		if r == nil {
			return resetPasswordResultMsg{username: req.Username, err: errNoBackend}
		}
		err := r.ResetPassword(ctx, req.EmailAddress, req.Username)
		return resetPasswordResultMsg{username: req.Username, err: err}
	}
}
