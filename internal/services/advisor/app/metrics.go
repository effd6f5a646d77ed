package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recommendationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecocrop_recommendations_total",
		Help: "Recommendations served, by kind and source.",
	}, []string{"kind", "source"})

	remoteFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecocrop_remote_fallbacks_total",
		Help: "Remote calls that fell back to the local answer, by upstream and reason.",
	}, []string{"upstream", "reason"})

	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ecocrop_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open).",
	}, []string{"name"})

	breakerTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecocrop_breaker_transitions_total",
		Help: "Circuit breaker state transitions.",
	}, []string{"name", "from", "to"})

	chatAnswersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecocrop_chat_answers_total",
		Help: "Chat answers, by source.",
	}, []string{"source"})

	eventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ecocrop_events_published_total",
		Help: "Events handed to the broker, by kind and result.",
	}, []string{"kind", "result"})
)
