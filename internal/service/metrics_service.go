package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus instruments for the scheduling
// and reservation flows. A nil receiver is a no-op so callers never
// need to guard for disabled metrics.
type MetricsService struct {
	registry             *prometheus.Registry
	httpDuration         *prometheus.HistogramVec
	httpRequests         *prometheus.CounterVec
	matcherDuration      prometheus.Histogram
	reservationsHeld     prometheus.Counter
	reservationConflicts prometheus.Counter
	bookingsConfirmed    prometheus.Counter
	activeHolds          prometheus.Gauge
}

// NewMetricsService builds a registry with all instruments attached.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)
	return &MetricsService{
		registry: registry,
		httpDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tutoring_api",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tutoring_api",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		matcherDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "tutoring_api",
			Name:      "matcher_duration_seconds",
			Help:      "Time spent computing a recommended schedule.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
		reservationsHeld: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tutoring_api",
			Name:      "reservations_held_total",
			Help:      "Successful all-or-nothing slot reservations.",
		}),
		reservationConflicts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tutoring_api",
			Name:      "reservation_conflicts_total",
			Help:      "Reservation attempts rejected because a slot was taken.",
		}),
		bookingsConfirmed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "tutoring_api",
			Name:      "bookings_confirmed_total",
			Help:      "Reservations consumed into confirmed bookings.",
		}),
		activeHolds: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "tutoring_api",
			Name:      "active_slot_holds",
			Help:      "Slot holds currently live in Redis.",
		}),
	}
}

// Handler serves the registry over HTTP.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTPRequest records one handled request.
func (m *MetricsService) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	code := strconv.Itoa(status)
	m.httpDuration.WithLabelValues(method, route, code).Observe(elapsed.Seconds())
	m.httpRequests.WithLabelValues(method, route, code).Inc()
}

// ObserveMatcherRun records one schedule computation.
func (m *MetricsService) ObserveMatcherRun(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.matcherDuration.Observe(elapsed.Seconds())
}

// ReservationHeld records a successful reservation of n slots.
func (m *MetricsService) ReservationHeld(n int) {
	if m == nil {
		return
	}
	m.reservationsHeld.Inc()
	m.activeHolds.Add(float64(n))
}

// ReservationConflict records a rejected reservation attempt.
func (m *MetricsService) ReservationConflict() {
	if m == nil {
		return
	}
	m.reservationConflicts.Inc()
}

// HoldsReleased decrements the live hold gauge by n.
func (m *MetricsService) HoldsReleased(n int) {
	if m == nil {
		return
	}
	m.activeHolds.Sub(float64(n))
}

// BookingConfirmed records a consumed reservation.
func (m *MetricsService) BookingConfirmed(n int) {
	if m == nil {
		return
	}
	m.bookingsConfirmed.Add(float64(n))
}
