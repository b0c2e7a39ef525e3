package progress

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecomputeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planwise_stats_recompute_total",
			Help: "Daily stat recomputes by outcome",
		},
		[]string{"outcome"}, // ok, error
	)

	RecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "planwise_stats_recompute_duration_seconds",
			Help:    "Duration of daily stat recomputes",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	AchievementsUnlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "planwise_achievements_unlocked_total",
			Help: "Badges newly unlocked by type",
		},
		[]string{"badge_type"},
	)
)
