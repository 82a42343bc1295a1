package catalog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RefreshTotal counts refresh attempts by result: ok, transport_error, decode_error.
	RefreshTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_refresh_total",
			Help: "Total number of catalog refresh attempts",
		},
		[]string{"result"},
	)

	// RefreshDuration observes the duration of fetch plus decode.
	RefreshDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_refresh_duration_seconds",
			Help:    "Duration of catalog refreshes in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"result"},
	)

	// Products reports the number of products in the live snapshot.
	Products = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_products",
		Help: "Number of products in the current catalog snapshot",
	})

	// Generation reports the generation of the live snapshot.
	Generation = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_generation",
		Help: "Generation number of the current catalog snapshot",
	})

	// SearchCacheLookups counts query cache lookups by outcome: hit, miss.
	SearchCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_search_cache_lookups_total",
			Help: "Total number of catalog query cache lookups",
		},
		[]string{"outcome"},
	)
)

const (
	resultOK             = "ok"
	resultTransportError = "transport_error"
	resultDecodeError    = "decode_error"
)
