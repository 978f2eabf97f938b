// Package metrics provides Prometheus instrumentation for the matching
// engine and the escrow state machine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SwipesTotal counts recorded swipes, partitioned by direction.
	SwipesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swaply_swipes_total",
		Help: "Total number of swipes recorded",
	}, []string{"direction"})

	// MatchesCreated counts matches created by the reciprocity check.
	MatchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swaply_matches_created_total",
		Help: "Total number of matches created",
	})

	// TradeOffersTotal counts trade offer upserts.
	TradeOffersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swaply_trade_offers_total",
		Help: "Total number of trade offers recorded",
	})

	// EscrowTransitions counts escrow state transitions by target status.
	EscrowTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swaply_escrow_transitions_total",
		Help: "Total number of escrow status transitions",
	}, []string{"to"})

	// EscrowAutoReleases counts transactions completed by the auto-release
	// scheduler rather than an explicit buyer confirmation.
	EscrowAutoReleases = promauto.NewCounter(prometheus.CounterOpts{
		Name: "swaply_escrow_auto_releases_total",
		Help: "Escrow transactions released by the scheduler",
	})

	// GuardRejections counts operations rejected by a state or actor guard.
	GuardRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "swaply_guard_rejections_total",
		Help: "Operations rejected before any write",
	}, []string{"operation"})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "swaply_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})
)
