package push_test

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/observability/metrics"
	"github.com/nhle/fleetbell/internal/push"
	"github.com/nhle/fleetbell/internal/push/pushtest"
	"github.com/nhle/fleetbell/internal/store"
)

const appKey = "fleet.console"

type fixture struct {
	provider *pushtest.Provider
	durable  *store.MemoryStore
	session  *store.MemoryStore
	logs     *observer.ObservedLogs
	adapter  *push.Adapter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	f := &fixture{
		provider: pushtest.New("device.test-token"),
		durable:  store.NewMemoryStore(),
		session:  store.NewMemoryStore(),
		logs:     logs,
	}
	f.adapter = push.NewAdapter(f.provider, appKey, f.durable, f.session, zap.New(core))
	return f
}

// countingAsker records how often the operator was prompted.
type countingAsker struct {
	answer push.PermissionState
	err    error
	calls  int
}

func (a *countingAsker) Ask(context.Context) (push.PermissionState, error) {
	a.calls++
	return a.answer, a.err
}

func TestRequestPermission_GrantedRegistersDevice(t *testing.T) {
	f := newFixture(t)
	asker := &countingAsker{answer: push.PermissionGranted}
	ctx := t.Context()

	state, err := f.adapter.RequestPermission(ctx, asker)
	require.NoError(t, err)
	assert.Equal(t, push.PermissionGranted, state)
	assert.Equal(t, 1, asker.calls)
	assert.Equal(t, []string{appKey}, f.provider.Registrations())

	token, err := f.adapter.DeviceToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "device.test-token", token)

	stored, err := f.durable.Get(ctx, push.PermissionKey)
	require.NoError(t, err)
	assert.Equal(t, "granted", string(stored))
}

func TestRequestPermission_StoredDecisionIsNotReprompted(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	require.NoError(t, f.durable.Put(ctx, push.PermissionKey, []byte("granted")))
	asker := &countingAsker{answer: push.PermissionDenied}

	state, err := f.adapter.RequestPermission(ctx, asker)
	require.NoError(t, err)
	assert.Equal(t, push.PermissionGranted, state)
	assert.Zero(t, asker.calls)
	assert.Len(t, f.provider.Registrations(), 1)
}

func TestRequestPermission_Denied(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	asker := &countingAsker{answer: push.PermissionDenied}

	state, err := f.adapter.RequestPermission(ctx, asker)
	assert.Equal(t, push.PermissionDenied, state)
	require.Error(t, err)
	assert.True(t, push.IsPermissionDenied(err))
	assert.Empty(t, f.provider.Registrations())

	_, err = f.adapter.DeviceToken(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A second request in the same session answers from storage.
	state, err = f.adapter.RequestPermission(ctx, asker)
	assert.Equal(t, push.PermissionDenied, state)
	assert.True(t, push.IsPermissionDenied(err))
	assert.Equal(t, 1, asker.calls)
}

func TestRequestPermission_DismissedStaysDefault(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	asker := &countingAsker{answer: push.PermissionDefault}

	state, err := f.adapter.RequestPermission(ctx, asker)
	require.NoError(t, err)
	assert.Equal(t, push.PermissionDefault, state)
	assert.Empty(t, f.provider.Registrations())

	_, err = f.durable.Get(ctx, push.PermissionKey)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.Equal(t, push.PermissionDefault, f.adapter.Permission(ctx))
}

func TestRequestPermission_AskerError(t *testing.T) {
	f := newFixture(t)
	asker := &countingAsker{err: context.Canceled}

	state, err := f.adapter.RequestPermission(t.Context(), asker)
	assert.Equal(t, push.PermissionDefault, state)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequestPermission_RegistrationFailureIsLogged(t *testing.T) {
	f := newFixture(t)
	f.provider.RegisterErr = errors.New("broker unreachable")
	ctx := t.Context()
	before := testutil.ToFloat64(metrics.DeviceRegistrations.WithLabelValues(metrics.ResultFailure))

	state, err := f.adapter.RequestPermission(ctx, push.AskerFunc(func(context.Context) (push.PermissionState, error) {
		return push.PermissionGranted, nil
	}))
	require.NoError(t, err)
	assert.Equal(t, push.PermissionGranted, state)

	_, err = f.adapter.DeviceToken(ctx)
	assert.ErrorIs(t, err, store.ErrNotFound)

	entries := f.logs.FilterMessage("Device registration failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DeviceRegistrations.WithLabelValues(metrics.ResultFailure)))
}

func TestOnMessage_AdoptsBoundTokenAfterFailedRegistration(t *testing.T) {
	f := newFixture(t)
	f.provider.RegisterErr = errors.New("broker unreachable")
	f.provider.Bound = "device.fallback"
	ctx := t.Context()

	_, err := f.adapter.RequestPermission(ctx, push.AskerFunc(func(context.Context) (push.PermissionState, error) {
		return push.PermissionGranted, nil
	}))
	require.NoError(t, err)

	f.adapter.OnMessage(func(model.PushPayload) {})

	token, err := f.adapter.DeviceToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "device.fallback", token)
	assert.Len(t, f.logs.FilterMessage("Device token adopted from subscription").All(), 1)

	f.adapter.OnMessage(func(model.PushPayload) {})
	assert.Len(t, f.logs.FilterMessage("Device token adopted from subscription").All(), 1)
}

func TestPermission_IgnoresGarbage(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()
	require.NoError(t, f.durable.Put(ctx, push.PermissionKey, []byte("maybe")))

	assert.Equal(t, push.PermissionDefault, f.adapter.Permission(ctx))
}

func payload(title string) model.PushPayload {
	return model.PushPayload{Notification: &model.PushNotification{Title: title}}
}

func TestOnMessage_DeliversInOrder(t *testing.T) {
	f := newFixture(t)
	var got []string

	f.adapter.OnMessage(func(p model.PushPayload) {
		got = append(got, p.Notification.Title)
	})
	f.provider.Inject(payload("first"))
	f.provider.Inject(payload("second"))

	assert.Equal(t, []string{"first", "second"}, got)
}

func TestOnMessage_ReplacesPreviousSubscription(t *testing.T) {
	f := newFixture(t)
	var first, second int

	f.adapter.OnMessage(func(model.PushPayload) { first++ })
	f.adapter.OnMessage(func(model.PushPayload) { second++ })

	assert.Equal(t, 1, f.provider.Active())
	assert.Equal(t, 1, f.provider.Unsubscribes())

	f.provider.Inject(payload("x"))
	assert.Zero(t, first)
	assert.Equal(t, 1, second)
}

func TestDetach_UnsubscribesExactlyOnce(t *testing.T) {
	f := newFixture(t)
	unsubscribe := f.adapter.OnMessage(func(model.PushPayload) {})

	f.adapter.Detach()
	f.adapter.Detach()
	unsubscribe()

	assert.Zero(t, f.provider.Active())
	assert.Equal(t, 1, f.provider.Unsubscribes())
}

func TestDetach_NothingBufferedWhileDetached(t *testing.T) {
	f := newFixture(t)
	var got int

	f.adapter.OnMessage(func(model.PushPayload) { got++ })
	f.adapter.Detach()
	f.provider.Inject(payload("lost"))
	f.adapter.OnMessage(func(model.PushPayload) { got++ })

	assert.Zero(t, got)
}

func TestOnMessage_RecoversPanickingHandler(t *testing.T) {
	f := newFixture(t)
	before := testutil.ToFloat64(metrics.PushMessagesReceived)

	f.adapter.OnMessage(func(model.PushPayload) { panic("boom") })
	require.NotPanics(t, func() { f.provider.Inject(payload("x")) })

	assert.Equal(t, 1, f.logs.FilterMessage("Push handler panic recovered").Len())
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.PushMessagesReceived))
}
