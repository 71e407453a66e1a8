package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dialogueTurnsCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbot",
			Name:      "dialogue_turns_total",
			Help:      "Total number of inbound dialogue turns handled.",
		},
		[]string{"outcome"}, // e.g. "case_found", "queue_offered", "malformed", "confirmed", "declined", "ignored", "store_error"
	)

	sweepEntriesCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "courtbot",
			Name:      "sweep_entries_total",
			Help:      "Total number of queued lookups examined by the expiry sweep.",
		},
		[]string{"outcome"}, // "matched", "expired", "pending", "error"
	)

	sweepDurationHist = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "courtbot",
			Name:      "sweep_duration_seconds",
			Help:      "Duration of a full sweep cycle.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
