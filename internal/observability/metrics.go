package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// SSO flow metrics
	ExchangeTokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sso_exchange_tokens_issued_total",
			Help: "Total number of exchange tokens minted for cross-domain hand-off",
		},
	)

	ExchangeRedemptions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sso_exchange_redemptions_total",
			Help: "Exchange token redemption attempts by outcome",
		},
		[]string{"result"},
	)

	SessionsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sessions_created_total",
			Help: "Sessions created by scope (console or community)",
		},
		[]string{"scope"},
	)

	// WebSocket metrics
	WebSocketConnectionsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "websocket_connections_active",
			Help: "Number of active WebSocket connections",
		},
		[]string{"room_id"},
	)

	WebSocketMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of messages sent via WebSocket",
		},
		[]string{"room_id", "type"},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5},
		},
		[]string{"operation", "table"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// RedemptionResult labels for ExchangeRedemptions.
const (
	RedemptionSuccess       = "success"
	RedemptionInvalidToken  = "invalid_token"
	RedemptionExpired       = "expired"
	RedemptionAlreadyUsed   = "already_used"
	RedemptionWrongDomain   = "domain_mismatch"
	RedemptionInternalError = "internal_error"
)
