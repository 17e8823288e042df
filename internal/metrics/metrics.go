package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "wallet_tracker"

var (
	// Outbound calls to the ledger, RPC and price APIs.
	UpstreamRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "requests_total",
		Help:      "Total outbound requests by upstream, operation and outcome",
	}, []string{"upstream", "operation", "outcome"})

	UpstreamLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "upstream",
		Name:      "request_duration_seconds",
		Help:      "Outbound request duration",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"upstream", "operation"})

	// History pipeline
	HistoryBuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "builds_total",
		Help:      "Balance history pipeline runs by outcome",
	}, []string{"outcome"})

	HistoryShared = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "shared_total",
		Help:      "Requests served by an already running pipeline for the same address",
	})

	LedgerEntries = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "history",
		Name:      "ledger_entries",
		Help:      "Number of ledger entries per built history",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 8),
	})

	PricePointsMissing = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "price",
		Name:      "missing_points_total",
		Help:      "Historical price points that could not be fetched",
	})

	// Wallet store
	WalletUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "wallet",
		Name:      "updates_total",
		Help:      "Wallet update attempts by outcome",
	}, []string{"outcome"})
)

// Outcome labels.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeInvalid = "invalid"
)

// ObserveUpstream records one outbound call started at start.
func ObserveUpstream(upstream, operation string, start time.Time, err error) {
	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeError
	}
	UpstreamRequests.WithLabelValues(upstream, operation, outcome).Inc()
	UpstreamLatency.WithLabelValues(upstream, operation).Observe(time.Since(start).Seconds())
}
