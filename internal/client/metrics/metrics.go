// Package metrics holds the Prometheus collectors of the diary client.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

var (
	StorageWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kidsdiary",
			Name:      "storage_writes_total",
			Help:      "Persistent store writes by outcome.",
		},
		[]string{"outcome"},
	)

	GatewayRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kidsdiary",
			Name:      "gateway_requests_total",
			Help:      "Remote gateway calls by operation and outcome (after retries).",
		},
		[]string{"op", "outcome"},
	)

	AutosaveCommitsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "kidsdiary",
			Name:      "draft_commits_total",
			Help:      "Draft commits by trigger (auto, manual) and outcome.",
		},
		[]string{"trigger", "outcome"},
	)

	PendingSyncEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "kidsdiary",
			Name:      "pending_sync_entries",
			Help:      "Placeholders whose remote create has not succeeded yet.",
		},
	)
)

// Outcome maps an error to an outcome label.
func Outcome(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
