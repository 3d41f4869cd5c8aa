package game

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pinochle_connections_active",
		Help: "Number of client connections currently being served",
	})

	TablesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pinochle_tables_active",
		Help: "Number of tables in the registry",
	})

	GamesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinochle_games_started_total",
		Help: "Total number of lobby to playing transitions",
	})

	InputsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinochle_game_inputs_total",
		Help: "Total number of game inputs processed",
	}, []string{"result"})

	RoundsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinochle_rounds_completed_total",
		Help: "Total number of rounds played to completion",
	})
)
