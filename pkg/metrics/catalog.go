package metrics

import "github.com/prometheus/client_golang/prometheus"

// CatalogMetrics tracks read-through cache behavior for catalog resources.
type CatalogMetrics struct {
	hits       *prometheus.CounterVec
	misses     *prometheus.CounterVec
	staleServe *prometheus.CounterVec
}

// NewCatalogMetrics registers the catalog cache metrics.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_hits",
		Help: "Catalog reads served from the fresh cache.",
	}, []string{"resource"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_misses",
		Help: "Catalog reads that went upstream.",
	}, []string{"resource"})
	staleServe := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_stale_served",
		Help: "Catalog reads answered with stale data after an upstream failure.",
	}, []string{"resource"})
	reg.MustRegister(hits, misses, staleServe)
	return &CatalogMetrics{hits: hits, misses: misses, staleServe: staleServe}
}

// IncHit counts a fresh cache hit for the resource.
func (c *CatalogMetrics) IncHit(resource string) {
	if c == nil || c.hits == nil {
		return
	}
	c.hits.WithLabelValues(normalizeLabel(resource)).Inc()
}

// IncMiss counts an upstream fetch for the resource.
func (c *CatalogMetrics) IncMiss(resource string) {
	if c == nil || c.misses == nil {
		return
	}
	c.misses.WithLabelValues(normalizeLabel(resource)).Inc()
}

// IncStaleServed counts a stale answer served on upstream failure.
func (c *CatalogMetrics) IncStaleServed(resource string) {
	if c == nil || c.staleServe == nil {
		return
	}
	c.staleServe.WithLabelValues(normalizeLabel(resource)).Inc()
}
