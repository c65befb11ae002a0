package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// PushMessagesReceived counts push messages delivered to the console.
	PushMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fleetbell_push_messages_received_total",
			Help: "Total number of push messages received while the console was attached.",
		},
	)

	// NotificationsPersisted counts write-through saves of the notification list.
	NotificationsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetbell_notifications_persisted_total",
			Help: "Total number of full notification list writes, by result.",
		},
		[]string{"result"},
	)

	// BacklogFetches counts unread backlog fetches from the backend.
	BacklogFetches = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetbell_backlog_fetch_total",
			Help: "Total number of unread backlog fetches, by result.",
		},
		[]string{"result"},
	)

	// DeviceRegistrations counts push device registrations.
	DeviceRegistrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fleetbell_device_registrations_total",
			Help: "Total number of push device registrations, by result.",
		},
		[]string{"result"},
	)

	// UnreadNotifications tracks the current unread count.
	UnreadNotifications = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fleetbell_unread_notifications",
			Help: "Number of unread notifications held by the console.",
		},
	)
)

// Result maps an error to a result label value.
func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

// MetricsHandler returns the HTTP handler for the Prometheus metrics endpoint.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
