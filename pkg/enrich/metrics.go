package enrich

import (
	"github.com/Sternrassler/bibharvest/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var lookupsTotal = promauto.With(metrics.Registry).NewCounterVec(
	prometheus.CounterOpts{
		Name: "harvest_enrichment_lookups_total",
		Help: "Total enrichment lookups by kind and outcome",
	},
	[]string{"kind", "outcome"}, // kind: references, citations; outcome: ok, skipped, failed
)
