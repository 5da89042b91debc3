package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubgtracker_monitor_cycles_total",
		Help: "Monitor cycles by outcome",
	}, []string{"outcome"})

	cycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pubgtracker_monitor_cycle_duration_seconds",
		Help:    "Wall time of a monitor cycle",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	matchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pubgtracker_monitor_matches_total",
		Help: "Matches handled by outcome",
	}, []string{"outcome"})

	trackedPlayers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pubgtracker_monitor_tracked_players",
		Help: "Players polled in the last cycle",
	})
)
