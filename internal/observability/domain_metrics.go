package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	statementSourceTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrsight_statement_source_total",
			Help: "Final statements by how they were produced (template, count, generated, guarded, retried).",
		},
		[]string{"source"},
	)
	generatorCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrsight_generator_calls_total",
			Help: "Generator completions requested, by purpose.",
		},
		[]string{"purpose"},
	)
	repairsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hrsight_repairs_total",
			Help: "Execution repairs attempted, by outcome.",
		},
		[]string{"outcome"},
	)
	emptyResultsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "hrsight_empty_results_total",
			Help: "Questions answered with the fixed no-records message.",
		},
	)
	askDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hrsight_ask_duration_seconds",
			Help:    "End-to-end question latency in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		statementSourceTotal,
		generatorCallsTotal,
		repairsTotal,
		emptyResultsTotal,
		askDurationSeconds,
	)
}

func ObserveStatementSource(source string) {
	statementSourceTotal.WithLabelValues(source).Inc()
}

func ObserveGeneratorCall(purpose string) {
	generatorCallsTotal.WithLabelValues(purpose).Inc()
}

func ObserveRepair(succeeded bool) {
	outcome := "failed"
	if succeeded {
		outcome = "succeeded"
	}
	repairsTotal.WithLabelValues(outcome).Inc()
}

func IncrementEmptyResults() {
	emptyResultsTotal.Inc()
}

func ObserveAsk(elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	askDurationSeconds.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
