// Package sync connects the background parts of the console (the store's
// change feed and the push channel) to the Bubble Tea runtime.
package sync

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/nhle/fleetbell/internal/push"
)

// AttachedMsg reports the outcome of the permission and subscription step.
type AttachedMsg struct {
	State      push.PermissionState
	Subscribed bool
	Err        error
}

// Attach resolves notification permission and, when granted, subscribes
// handler to push deliveries. A registration failure does not prevent the
// subscription. Cancelling ctx before the subscription lands detaches it
// again, so a quit racing with Attach leaves no handler behind.
func Attach(
	ctx context.Context,
	adapter *push.Adapter,
	asker push.Asker,
	handler push.Handler,
	logger *zap.Logger,
) tea.Cmd {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func() tea.Msg {
		state, err := adapter.RequestPermission(ctx, asker)
		if err != nil {
			if !push.IsPermissionDenied(err) {
				logger.Warn("Notification permission unresolved", zap.Error(err))
			}
			return AttachedMsg{State: state, Err: err}
		}
		if state != push.PermissionGranted {
			return AttachedMsg{State: state}
		}

		adapter.OnMessage(handler)
		if ctx.Err() != nil {
			adapter.Detach()
			return AttachedMsg{State: state, Err: ctx.Err()}
		}

		logger.Info("Listening for push notifications")
		return AttachedMsg{State: state, Subscribed: true}
	}
}
