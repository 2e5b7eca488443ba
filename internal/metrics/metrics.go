package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ============================================
	// Payment flow metrics
	// ============================================
	PaymentsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncult_payments_started_total",
			Help: "Total number of payment attempts started",
		},
		[]string{"flow"}, // gateway | native
	)

	PaymentsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncult_payments_completed_total",
			Help: "Total number of payments completed successfully",
		},
		[]string{"flow"},
	)

	PaymentsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncult_payments_failed_total",
			Help: "Total number of payments that reached the failed state",
		},
		[]string{"flow", "state", "reason"},
	)

	PaymentStateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncult_payment_state_transitions_total",
			Help: "Total number of payment state machine transitions",
		},
		[]string{"state"},
	)

	PaymentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "oncult_payment_duration_seconds",
			Help:    "End-to-end payment duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300},
		},
		[]string{"flow"},
	)

	// Failures after the Gateway deposit landed: funds are custodied by
	// the bridge with no seller-side mint. Alert on any increase.
	PaymentsStrandedFunds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "oncult_payments_stranded_funds_total",
			Help: "Payments that failed after deposit, leaving funds custodied but unminted",
		},
	)

	// ============================================
	// Gateway attestation metrics
	// ============================================
	AttestationRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncult_gateway_attestation_requests_total",
			Help: "Total attestation requests by outcome",
		},
		[]string{"outcome"}, // ok | error
	)

	AttestationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "oncult_gateway_attestation_duration_seconds",
			Help:    "Attestation round-trip duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ============================================
	// Receipt mint metrics
	// ============================================
	ReceiptMints = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncult_receipt_mints_total",
			Help: "Receipt NFT mint attempts by outcome",
		},
		[]string{"outcome"}, // ok | failed
	)

	// ============================================
	// NATS publisher metrics
	// ============================================
	NATSConnectionStatus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oncult_nats_connection_status",
		Help: "NATS connection status (1=connected, 0=disconnected)",
	})

	NATSMessagesPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncult_nats_messages_published_total",
			Help: "Total number of NATS messages published",
		},
		[]string{"subject"},
	)

	NATSMessagesFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "oncult_nats_messages_failed_total",
			Help: "Total number of NATS messages that failed to publish",
		},
		[]string{"subject"},
	)

	// ============================================
	// WebSocket push metrics
	// ============================================
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "oncult_websocket_connections",
		Help: "Number of active progress-stream websocket connections",
	})
)
