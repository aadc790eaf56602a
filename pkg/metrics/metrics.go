package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PendingActions is the "pending count" indicator: the number of
	// offline actions currently waiting in the local queue.
	PendingActions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sync_pending_actions",
		Help: "Current number of offline actions waiting in the local queue",
	})

	// ActionsReplayed tracks replay outcomes per action kind.
	// status: synced, failed, skipped_identity, malformed
	ActionsReplayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sync_actions_replayed_total",
		Help: "Total number of offline action replay attempts by outcome",
	}, []string{"status", "kind"})

	// PassDuration measures how long a full drain pass takes
	PassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_pass_duration_seconds",
		Help:    "Duration of a complete queue drain pass in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// PassSize tracks how many actions each pass found queued
	PassSize = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "sync_pass_size",
		Help:    "Number of queued actions seen per drain pass",
		Buckets: []float64{0, 1, 2, 5, 10, 25, 50},
	})

	// NetworkOnline provides a binary 0/1 signal for connectivity
	// 1 = Online, 0 = Offline (as reported by the network observer)
	NetworkOnline = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sync_network_online",
		Help: "Current connectivity status (1 for online, 0 for offline)",
	})

	// FeedHealthy signals the realtime feed broker link state
	FeedHealthy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "sync_feed_healthy",
		Help: "Health of the realtime feed broker connection (1 healthy, 0 down)",
	})

	// FeedReconnections counts how many times the broker link was rebuilt
	FeedReconnections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "sync_feed_reconnections_total",
		Help: "Total number of realtime feed reconnection attempts",
	})
)
