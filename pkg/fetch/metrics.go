package fetch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fetchesStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slaskcatalog_fetches_total",
		Help: "The total number of product fetches started",
	})
	fetchOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slaskcatalog_fetch_outcomes_total",
		Help: "Finished product fetches by outcome",
	}, []string{"outcome"})
)

func countOutcome(o Outcome) {
	fetchOutcomes.WithLabelValues(o.String()).Inc()
}
