package backend

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/fleetbell/internal/model"
	"github.com/nhle/fleetbell/internal/observability/metrics"
)

var testConfig = model.BackendConfig{
	UnreadPath:        "/api/notifications/unread",
	ResetPasswordPath: "/api/users/reset-password",
}

func TestFetchUnread(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/notifications/unread", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"title":"Overspeed","message":"KDA 0 over limit","emailAddress":"a@b.co",
			 "username":"jdoe","vehicleRegistrationNo":"KDA 123A","isPasswordReset":false,
			 "time":"Saturday, October 17, 2026 at 9:05:03 PM","read":false}
		]`))
	}))
	defer srv.Close()

	before := testutil.ToFloat64(metrics.BacklogFetches.WithLabelValues(metrics.ResultSuccess))
	n := NewNotifications(NewClient(srv.URL+"/", "secret"), testConfig)

	items, err := n.FetchUnread(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Overspeed", items[0].Title)
	assert.Equal(t, "KDA 123A", items[0].VehicleRegistrationNo)
	assert.False(t, items[0].Read)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BacklogFetches.WithLabelValues(metrics.ResultSuccess)))
}

func TestFetchUnread_NullBodyIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	items, err := NewNotifications(NewClient(srv.URL, ""), testConfig).FetchUnread(t.Context())
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFetchUnread_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	_, err := NewNotifications(NewClient(srv.URL, "expired"), testConfig).FetchUnread(t.Context())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestFetchUnread_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	before := testutil.ToFloat64(metrics.BacklogFetches.WithLabelValues(metrics.ResultFailure))
	_, err := NewNotifications(NewClient(srv.URL, ""), testConfig).FetchUnread(t.Context())

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Equal(t, "database down", statusErr.Body)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BacklogFetches.WithLabelValues(metrics.ResultFailure)))
}

func TestClient_RetriesOnTooManyRequests(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	items, err := NewNotifications(NewClient(srv.URL, ""), testConfig).FetchUnread(t.Context())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Equal(t, int32(3), calls.Load())
}

func TestClient_GivesUpAfterMaxRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", WithMaxRetries(1))
	err := c.Get(t.Context(), "/anything", nil)

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusTooManyRequests, statusErr.StatusCode)
	assert.Equal(t, int32(2), calls.Load())
}

func TestResetPassword(t *testing.T) {
	var got ResetPasswordRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/users/reset-password", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := NewNotifications(NewClient(srv.URL, ""), testConfig).ResetPassword(t.Context(), "a@b.co", "jdoe")
	require.NoError(t, err)
	assert.Equal(t, ResetPasswordRequest{EmailAddress: "a@b.co", Username: "jdoe"}, got)
}

func TestRetryAfterDuration(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		attempt int
		want    string
	}{
		{"header seconds", "5", 0, "5s"},
		{"backoff first", "", 0, "1s"},
		{"backoff third", "", 2, "4s"},
		{"backoff capped", "", 10, "30s"},
		{"garbage header falls back", "soon", 1, "2s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := &http.Response{Header: http.Header{}}
			if tt.header != "" {
				resp.Header.Set("Retry-After", tt.header)
			}
			assert.Equal(t, tt.want, retryAfterDuration(resp, tt.attempt).String())
		})
	}
}
