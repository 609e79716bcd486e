package handler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	gamesStartedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mimic_games_started_total",
		Help: "Total number of started game sessions.",
	})

	wordsSelectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mimic_words_selected_total",
		Help: "Total number of word selections committed.",
	})

	undosTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mimic_undos_total",
		Help: "Total number of undone turns.",
	})

	gamesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mimic_games_completed_total",
			Help: "Total number of completed games by completion reason.",
		},
		[]string{"reason"},
	)

	finalScores = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "mimic_final_score",
		Help:    "Distribution of final total scores.",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})
)
