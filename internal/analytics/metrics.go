package analytics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EventsRecorded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinochle_analytics_events_recorded_total",
		Help: "Total number of game events accepted into the analytics queue",
	}, []string{"event_type"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pinochle_analytics_events_dropped_total",
		Help: "Total number of game events dropped because the queue was full",
	})

	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pinochle_analytics_sink_errors_total",
		Help: "Total number of sink write failures",
	}, []string{"sink"})

	SessionsOpen = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pinochle_analytics_sessions_open",
		Help: "Number of player sessions currently open",
	})
)
