package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// stageExecutions counts completed stage runs by stage name
	stageExecutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retrofit_stage_executions_total",
		Help: "Total completed stage executions by stage",
	}, []string{"stage"})

	// stageFailures counts failed stage runs by stage name
	stageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "retrofit_stage_failures_total",
		Help: "Total failed stage executions by stage",
	}, []string{"stage"})

	// stageDuration tracks stage execution latency, including the
	// external fetches done while building inputs
	stageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "retrofit_stage_duration_seconds",
		Help:    "Stage execution duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 8), // 1ms to ~16s
	}, []string{"stage"})

	// cascadeLength tracks how many stages each cascade re-executed
	cascadeLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "retrofit_cascade_stages",
		Help:    "Number of stages re-executed per cascade",
		Buckets: []float64{1, 2, 3, 4, 5, 6},
	})
)
