package permission

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/fleetbell/internal/push"
)

func TestBridge_AskReceivesAnswer(t *testing.T) {
	b := NewBridge()
	type result struct {
		state push.PermissionState
		err   error
	}
	done := make(chan result, 1)

	go func() {
		state, err := b.Ask(t.Context())
		done <- result{state, err}
	}()

	msg := b.WaitForRequest()()
	req, ok := msg.(RequestMsg)
	require.True(t, ok)
	req.Answer(push.PermissionGranted)

	select {
	case r := <-done:
		require.NoError(t, r.err)
		assert.Equal(t, push.PermissionGranted, r.state)
	case <-time.After(2 * time.Second):
		t.Fatal("Ask did not return")
	}
}

func TestBridge_AskHonorsContext(t *testing.T) {
	b := NewBridge()
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	state, err := b.Ask(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, push.PermissionDefault, state)
}

func TestBridge_CloseReleasesWaiters(t *testing.T) {
	b := NewBridge()
	waited := make(chan tea.Msg, 1)
	go func() { waited <- b.WaitForRequest()() }()

	b.Close()
	b.Close()

	select {
	case msg := <-waited:
		assert.Nil(t, msg)
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForRequest did not return after Close")
	}

	state, err := b.Ask(t.Context())
	assert.ErrorIs(t, err, ErrBridgeClosed)
	assert.Equal(t, push.PermissionDefault, state)
}

func TestBridge_CloseReleasesPendingAsk(t *testing.T) {
	b := NewBridge()
	errs := make(chan error, 1)
	go func() {
		_, err := b.Ask(t.Context())
		errs <- err
	}()

	_, ok := b.WaitForRequest()().(RequestMsg)
	require.True(t, ok)
	b.Close()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrBridgeClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Ask did not return after Close")
	}
}

func TestRequestMsg_AnswerNeverBlocks(t *testing.T) {
	reply := make(chan push.PermissionState, 1)
	req := RequestMsg{reply: reply}

	req.Answer(push.PermissionGranted)
	req.Answer(push.PermissionDenied)
	RequestMsg{}.Answer(push.PermissionGranted)

	assert.Equal(t, push.PermissionGranted, <-reply)
}

func TestAnswerFor(t *testing.T) {
	assert.Equal(t, push.PermissionGranted, answerFor(true))
	assert.Equal(t, push.PermissionDenied, answerFor(false))
}

func TestModel_PromptAndAlertModes(t *testing.T) {
	m := New(80)
	assert.False(t, m.Active())

	reply := make(chan push.PermissionState, 1)
	m.Prompt(RequestMsg{reply: reply})
	assert.Equal(t, ModePrompt, m.Mode())
	assert.Contains(t, m.View(), "Allow notifications?")

	m, cmd := m.finish(push.PermissionDenied)
	require.NotNil(t, cmd)
	assert.Equal(t, AnsweredMsg{State: push.PermissionDenied}, cmd())
	assert.Equal(t, push.PermissionDenied, <-reply)
	assert.False(t, m.Active())

	m.Alert()
	assert.Equal(t, ModeAlert, m.Mode())
	assert.Contains(t, m.View(), "Notifications blocked")

	m, cmd = m.finish(push.PermissionDefault)
	require.NotNil(t, cmd)
	assert.Equal(t, AlertDismissedMsg{}, cmd())
	assert.False(t, m.Active())
}

func TestModel_IdleIgnoresInput(t *testing.T) {
	m := New(80)
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, m.Active())
}
