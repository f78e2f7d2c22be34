package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Matching run metrics, exposed via /metrics on the API service.
var (
	MatchRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "podmatch_match_runs_total",
		Help: "Matching runs executed, by outcome.",
	}, []string{"outcome"})

	PodsBuilt = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "podmatch_pods_built",
		Help: "Pods emitted by the most recent matching run.",
	})

	RunWarnings = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "podmatch_run_warnings",
		Help: "Warnings reported by the most recent matching run.",
	})

	RunExclusions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "podmatch_run_exclusions",
		Help: "Participants excluded by the most recent matching run.",
	})

	Signups = promauto.NewCounter(prometheus.CounterOpts{
		Name: "podmatch_signups_total",
		Help: "Participant sign-ups accepted.",
	})
)
