package push

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/observability/metrics"
	"github.com/nhle/fleetbell/internal/store"
)

// Adapter owns the console's relationship with the push provider:
// the permission decision, device registration and the single active
// message subscription.
type Adapter struct {
	provider Provider
	appKey   string
	durable  store.KeyValueStore
	session  store.KeyValueStore
	logger   *zap.Logger

	mu          sync.Mutex
	unsubscribe func()
}

// NewAdapter creates an Adapter. durable keeps the permission decision
// across runs; session keeps the device token for this run only.
func NewAdapter(
	provider Provider,
	appKey string,
	durable store.KeyValueStore,
	session store.KeyValueStore,
	logger *zap.Logger,
) *Adapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Adapter{
		provider: provider,
		appKey:   appKey,
		durable:  durable,
		session:  session,
		logger:   logger,
	}
}

// Permission returns the stored decision, or PermissionDefault when the
// operator has not been asked yet.
func (a *Adapter) Permission(ctx context.Context) PermissionState {
	raw, err := a.durable.Get(ctx, PermissionKey)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			a.logger.Warn("Failed to read notification permission", zap.Error(err))
		}
		return PermissionDefault
	}
	state := PermissionState(raw)
	if !state.Valid() {
		return PermissionDefault
	}
	return state
}

// RequestPermission resolves the permission state, asking the operator
// only if no decision exists. On granted it registers the device; a
// registration failure is logged and does not change the returned state.
// On denied it returns a *PermissionError alongside the state so the
// caller can interrupt the operator.
func (a *Adapter) RequestPermission(ctx context.Context, asker Asker) (PermissionState, error) {
	state := a.Permission(ctx)
	if state == PermissionDefault {
		answer, err := asker.Ask(ctx)
		if err != nil {
			return PermissionDefault, fmt.Errorf("asking for notification permission: %w", err)
		}
		state = answer
		if state != PermissionDefault {
			if err := a.durable.Put(ctx, PermissionKey, []byte(state)); err != nil {
				a.logger.Warn("Failed to store notification permission",
					zap.String("permission", string(state)),
					zap.Error(err),
				)
			}
		}
	}

	a.logger.Info("Notification permission resolved", zap.String("permission", string(state)))

	switch state {
	case PermissionGranted:
		a.register(ctx)
		return state, nil
	case PermissionDenied:
		return state, &PermissionError{State: state}
	default:
		return state, nil
	}
}

// register obtains a device token and keeps it in session storage.
func (a *Adapter) register(ctx context.Context) {
	token, err := a.provider.Register(ctx, a.appKey)
	metrics.DeviceRegistrations.WithLabelValues(metrics.Result(err)).Inc()
	if err != nil {
		a.logger.Error("Device registration failed",
			zap.String("app_key", a.appKey),
			zap.Error(err),
		)
		return
	}

	if err := a.session.Put(ctx, DeviceTokenKey, []byte(token)); err != nil {
		a.logger.Error("Failed to store device token", zap.Error(err))
		return
	}

	a.logger.Info("Device registered", zap.String("device_token", token))
}

// DeviceToken returns the token obtained during this session.
func (a *Adapter) DeviceToken(ctx context.Context) (string, error) {
	raw, err := a.session.Get(ctx, DeviceTokenKey)
	if err != nil {
		return "", fmt.Errorf("reading device token: %w", err)
	}
	return string(raw), nil
}

// OnMessage subscribes handler to inbound messages, replacing (and
// unsubscribing) any previous subscription. The returned function
// unsubscribes; calling it more than once is harmless.
func (a *Adapter) OnMessage(handler Handler) func() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}

	stop := a.provider.Subscribe(a.guard(handler))
	a.adoptBoundToken()

	var once sync.Once
	unsubscribe := func() { once.Do(stop) }
	a.unsubscribe = unsubscribe

	return unsubscribe
}

// adoptBoundToken records the token the provider subscribed under when it
// differs from the session token, e.g. after a failed registration.
func (a *Adapter) adoptBoundToken() {
	r, ok := a.provider.(BoundTokenReporter)
	if !ok {
		return
	}
	token := r.BoundToken()
	if token == "" {
		return
	}

	ctx := context.Background()
	if current, err := a.session.Get(ctx, DeviceTokenKey); err == nil && string(current) == token {
		return
	}
	if err := a.session.Put(ctx, DeviceTokenKey, []byte(token)); err != nil {
		a.logger.Error("Failed to store device token", zap.Error(err))
		return
	}
	a.logger.Info("Device token adopted from subscription", zap.String("device_token", token))
}

// Detach drops the active subscription, if any.
func (a *Adapter) Detach() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.unsubscribe != nil {
		a.unsubscribe()
		a.unsubscribe = nil
	}
}

// guard counts deliveries and keeps a panicking handler from taking the
// provider's delivery loop down with it.
func (a *Adapter) guard(handler Handler) Handler {
	return func(payload model.PushPayload) {
		defer func() {
			if r := recover(); r != nil {
				a.logger.Error("Push handler panic recovered", zap.Any("panic", r))
			}
		}()
		metrics.PushMessagesReceived.Inc()
		handler(payload)
	}
}
