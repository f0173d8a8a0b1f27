// Loyalty Lite - Workfront Change Ingress and SMS Loyalty Cards
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/loyaltylite

// Package metrics holds the Prometheus collectors for Loyalty Lite.
// Collectors are registered on the default registry through promauto and
// exposed by the API on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of in-flight API requests",
		},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	// Change event ingress
	ChangeEventsReceived = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_events_received_total",
			Help: "Workfront change events received, by event type",
		},
		[]string{"event_type"},
	)

	ChangeEventsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_events_rejected_total",
			Help: "Workfront change events rejected, by error kind",
		},
		[]string{"kind"},
	)

	ChangeEventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "change_events_published_total",
			Help: "Canonical envelopes written to the stream, by object code",
		},
		[]string{"obj_code"},
	)

	// Stream publisher
	StreamPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stream_publish_duration_seconds",
			Help:    "Duration of stream publish calls",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"backend"},
	)

	StreamPublishErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stream_publish_errors_total",
			Help: "Failed stream publish calls",
		},
		[]string{"backend"},
	)

	// Subscription reconciliation
	SubscriptionOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "workfront_subscription_operations_total",
			Help: "Subscription API operations, by operation and outcome",
		},
		[]string{"operation", "outcome"}, // outcome: success, failure
	)

	// SMS loyalty pipeline
	SMSReplies = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_replies_total",
			Help: "Replies sent to inbound SMS, by command",
		},
		[]string{"command"},
	)

	CardsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loyalty_cards_created_total",
			Help: "Loyalty cards created on first request",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordAPIRequest records one completed API request.
func RecordAPIRequest(method, route, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// TrackActiveRequest increments or decrements the in-flight gauge.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordStreamPublish records the latency and outcome of one publish.
func RecordStreamPublish(backend string, duration time.Duration, err error) {
	StreamPublishDuration.WithLabelValues(backend).Observe(duration.Seconds())
	if err != nil {
		StreamPublishErrors.WithLabelValues(backend).Inc()
	}
}

// RecordSubscriptionOperation counts one subscription API call.
func RecordSubscriptionOperation(operation, outcome string) {
	SubscriptionOperations.WithLabelValues(operation, outcome).Inc()
}
