package push

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/fleetbell/internal/model"
)

// PermissionState is the operator's answer to the notification prompt.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	PermissionDefault PermissionState = "default"
)

// Valid reports whether s is one of the known states.
func (s PermissionState) Valid() bool {
	switch s {
	case PermissionGranted, PermissionDenied, PermissionDefault:
		return true
	}
	return false
}

// Storage keys used by the adapter.
const (
	// PermissionKey holds the operator's decision in durable storage.
	PermissionKey = "notification_permission"

	// DeviceTokenKey holds the device token in session storage.
	DeviceTokenKey = "deviceToken"
)

// ErrNotRegistered is returned by providers asked to deliver before a
// device has been registered and registration cannot be completed.
var ErrNotRegistered = errors.New("device not registered")

// Handler receives inbound push messages. It must not block for long;
// the provider delivers the next message only after it returns.
type Handler func(payload model.PushPayload)

// Provider is the platform push capability.
type Provider interface {
	// Register enrolls this console with the provider under appKey and
	// returns an opaque device token.
	Register(ctx context.Context, appKey string) (string, error)

	// Subscribe starts delivering inbound messages to handler in the order
	// the provider receives them. The returned function stops delivery.
	Subscribe(handler Handler) (unsubscribe func())
}

// BoundTokenReporter is implemented by providers that can name the device
// token their subscription is bound to, even when Register failed.
type BoundTokenReporter interface {
	BoundToken() string
}

// Asker obtains a permission decision from the operator.
type Asker interface {
	Ask(ctx context.Context) (PermissionState, error)
}

// AskerFunc adapts a function to Asker.
type AskerFunc func(ctx context.Context) (PermissionState, error)

// Ask calls f.
func (f AskerFunc) Ask(ctx context.Context) (PermissionState, error) {
	return f(ctx)
}

// PermissionError reports that the operator blocked notifications.
type PermissionError struct {
	State PermissionState
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("notification permission %s", e.State)
}

// IsPermissionDenied reports whether err (or any error in its chain) is a
// PermissionError.
func IsPermissionDenied(err error) bool {
	var permErr *PermissionError
	return errors.As(err, &permErr)
}
