package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uiren_api_requests_total",
			Help: "Total number of backend API requests",
		},
		[]string{"method", "path", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "uiren_api_request_duration_seconds",
			Help:    "Backend API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TokenRefreshesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uiren_token_refreshes_total",
			Help: "Total number of access token refresh attempts",
		},
		[]string{"outcome"},
	)

	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uiren_reservations_total",
			Help: "Total number of reservation submissions",
		},
		[]string{"outcome"},
	)

	ReservationCancellationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uiren_reservation_cancellations_total",
			Help: "Total number of reservation cancellations",
		},
	)

	AttendanceConfirmationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "uiren_attendance_confirmations_total",
			Help: "Total number of attendance confirmations",
		},
	)

	SubscriptionPurchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "uiren_subscription_purchases_total",
			Help: "Total number of subscription purchases",
		},
		[]string{"type"},
	)
)

func RecordAPIRequest(method, path, status string, duration float64) {
	APIRequestsTotal.WithLabelValues(method, path, status).Inc()
	APIRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordTokenRefresh(outcome string) {
	TokenRefreshesTotal.WithLabelValues(outcome).Inc()
}

func RecordReservation(outcome string) {
	ReservationsTotal.WithLabelValues(outcome).Inc()
}

func RecordCancellation() {
	ReservationCancellationsTotal.Inc()
}

func RecordAttendanceConfirmation() {
	AttendanceConfirmationsTotal.Inc()
}

func RecordSubscriptionPurchase(subType string) {
	SubscriptionPurchasesTotal.WithLabelValues(subType).Inc()
}
