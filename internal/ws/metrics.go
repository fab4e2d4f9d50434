package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	RoomsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "game_rooms_active",
			Help: "Game rooms currently held in memory",
		},
	)
	ConnectionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "game_connections_active",
			Help: "Open websocket connections",
		},
	)
	MessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_messages_total",
			Help: "Inbound websocket messages by type",
		},
		[]string{"type"},
	)
	DomainErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_domain_errors_total",
			Help: "Rejected player actions by message type",
		},
		[]string{"type"},
	)
	GamesFinishedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_finished_total",
			Help: "Games that ended with a correct guess",
		},
	)
	RoomsExpiredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "game_rooms_expired_total",
			Help: "Rooms reclaimed by the expiration timer",
		},
	)
)

func init() {
	prometheus.MustRegister(RoomsActive)
	prometheus.MustRegister(ConnectionsActive)
	prometheus.MustRegister(MessagesTotal)
	prometheus.MustRegister(DomainErrorsTotal)
	prometheus.MustRegister(GamesFinishedTotal)
	prometheus.MustRegister(RoomsExpiredTotal)
}
