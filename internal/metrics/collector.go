package metrics

import (
	"context"
	"time"
)

// BlobCounter reports how many blobs a store or cache currently holds.
// The memory store and the LRU cache both satisfy it; backends that
// cannot count cheaply simply stay unwired.
type BlobCounter interface {
	Len() int
}

// CollectorConfig holds the components the collector samples from.
// Any field may be nil, in which case its gauges are left untouched.
type CollectorConfig struct {
	Store BlobCounter
	Cache BlobCounter
}

// Collector periodically samples storage occupancy into gauges.
type Collector struct {
	metrics *CatalogMetrics
	config  CollectorConfig
}

// NewCollector creates a new occupancy collector.
func NewCollector(m *CatalogMetrics, cfg CollectorConfig) *Collector {
	return &Collector{
		metrics: m,
		config:  cfg,
	}
}

// Collect updates all gauges from the current state.
func (c *Collector) Collect() {
	c.collectStoreStats()
	c.collectCacheStats()
}

func (c *Collector) collectStoreStats() {
	if c.config.Store == nil {
		return
	}
	c.metrics.StoreBlobs.Set(float64(c.config.Store.Len()))
}

func (c *Collector) collectCacheStats() {
	if c.config.Cache == nil {
		return
	}
	c.metrics.CacheEntries.Set(float64(c.config.Cache.Len()))
}

// Run starts periodic collection.
func (c *Collector) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	c.Collect()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Collect()
		}
	}
}

// CounterFunc adapts a plain func to the BlobCounter interface.
type CounterFunc func() int

func (f CounterFunc) Len() int { return f() }
