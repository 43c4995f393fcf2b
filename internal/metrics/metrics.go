// Package metrics defines the Prometheus collectors shared by the resolver,
// nearby search and HTTP API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TrieBuildsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locality_trie_builds_total",
		Help: "Suffix tries built, by location kind",
	}, []string{"kind"})
	TrieSlugs = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "locality_trie_slugs",
		Help: "Slugs indexed in the current trie, by location kind",
	}, []string{"kind"})
	ResolveTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locality_resolve_total",
		Help: "Slug resolutions, by outcome and kind",
	}, []string{"outcome", "kind"})
	NearbyEmptyTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "locality_nearby_empty_total",
		Help: "Nearby searches that returned no places",
	})
	CacheLookupsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "locality_response_cache_lookups_total",
		Help: "Response cache lookups, by result (hit or miss)",
	}, []string{"result"})
	RequestDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "locality_request_duration_ms",
		Help:    "HTTP request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(
		TrieBuildsTotal,
		TrieSlugs,
		ResolveTotal,
		NearbyEmptyTotal,
		CacheLookupsTotal,
		RequestDurationMs,
	)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
