// Package permission shows the notification permission prompt and the
// blocking alert raised when notifications are denied.
package permission

import (
	"context"
	"errors"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/fleetbell/internal/push"
)

// ErrBridgeClosed is returned by Ask once the UI has gone away.
var ErrBridgeClosed = errors.New("permission prompt closed")

// RequestMsg asks the UI to prompt the operator. The answer goes to reply.
type RequestMsg struct {
	reply chan<- push.PermissionState
}

// Bridge implements push.Asker by handing the question to the Bubble Tea
// program and waiting for the operator's answer.
type Bridge struct {
	requests chan RequestMsg
	done     chan struct{}
	once     sync.Once
}

// NewBridge returns a Bridge with no pending request.
func NewBridge() *Bridge {
	return &Bridge{
		requests: make(chan RequestMsg),
		done:     make(chan struct{}),
	}
}

// Close releases pending WaitForRequest commands and Ask calls. It is safe
// to call more than once.
func (b *Bridge) Close() {
	b.once.Do(func() { close(b.done) })
}

// Ask blocks until the UI answers or ctx is done.
func (b *Bridge) Ask(ctx context.Context) (push.PermissionState, error) {
	reply := make(chan push.PermissionState, 1)

	select {
	case b.requests <- RequestMsg{reply: reply}:
	case <-b.done:
		return push.PermissionDefault, ErrBridgeClosed
	case <-ctx.Done():
		return push.PermissionDefault, ctx.Err()
	}

	select {
	case state := <-reply:
		return state, nil
	case <-b.done:
		return push.PermissionDefault, ErrBridgeClosed
	case <-ctx.Done():
		return push.PermissionDefault, ctx.Err()
	}
}

// WaitForRequest returns a command that delivers the next RequestMsg, or
// nothing once the bridge is closed.
func (b *Bridge) WaitForRequest() tea.Cmd {
	return func() tea.Msg {
		select {
		case req := <-b.requests:
			return req
		case <-b.done:
			return nil
		}
	}
}

// Answer replies to req. It never blocks.
func (req RequestMsg) Answer(state push.PermissionState) {
	if req.reply == nil {
		return
	}
	select {
	case req.reply <- state:
	default:
	}
}
