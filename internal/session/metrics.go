package session

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	sessionsStarted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onlymaths_sessions_started_total",
		Help: "Game sessions started, by template.",
	}, []string{"template"})

	sessionsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onlymaths_sessions_completed_total",
		Help: "Game sessions completed, by template.",
	}, []string{"template"})

	answersSubmitted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "onlymaths_answers_submitted_total",
		Help: "Answers submitted, by template and correctness.",
	}, []string{"template", "correct"})
)
