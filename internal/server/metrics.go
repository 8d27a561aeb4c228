package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bmax_chat_requests_total",
		Help: "Chat requests by outcome.",
	}, []string{"outcome"})

	corpusTenders = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bmax_corpus_tenders",
		Help: "Tender records in the current corpus generation.",
	})

	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "bmax_active_sessions",
		Help: "Live user sessions.",
	})
)

const (
	outcomeAnswered = "answered"
	outcomeFiltered = "filtered"
	outcomeDegraded = "degraded"
)
