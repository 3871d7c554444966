// Package metrics holds the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booking_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "endpoint"})

	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_book_requests_total",
		Help: "Book attempts by result",
	}, []string{"result"})

	WebhookEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_webhook_events_total",
		Help: "Authenticated payment webhooks by outcome",
	}, []string{"outcome", "replayed"})

	WebhookSignatureFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "booking_webhook_signature_failures_total",
		Help: "Webhook deliveries rejected for a missing or invalid signature",
	})

	TicketingAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_ticketing_attempts_total",
		Help: "Supplier issuance attempts by result",
	}, []string{"result"})

	SweepActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "booking_sweep_actions_total",
		Help: "Reconciliation sweep repairs by action",
	}, []string{"action"})

	CollaboratorDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "booking_collaborator_call_duration_seconds",
		Help:    "Latency of outbound collaborator calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"collaborator", "result"})
)
