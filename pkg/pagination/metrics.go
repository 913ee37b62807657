package pagination

import (
	"github.com/Sternrassler/bibharvest/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesFetched = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "harvest_pages_fetched_total",
		Help: "Total search pages fetched",
	})

	recordsHarvested = promauto.With(metrics.Registry).NewCounter(prometheus.CounterOpts{
		Name: "harvest_records_total",
		Help: "Total records normalized and enriched",
	})

	runsTotal = promauto.With(metrics.Registry).NewCounterVec(prometheus.CounterOpts{
		Name: "harvest_runs_total",
		Help: "Completed harvest runs by stop reason",
	}, []string{"reason"})
)
