// Package metrics provides Prometheus metrics for the shoebox catalog.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the Prometheus registry for all shoebox metrics.
var Registry = prometheus.NewRegistry()

func init() {
	// Register standard Go metrics
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
}

// initOnce ensures collectors are only registered once per process, however
// many catalogs get opened.
var initOnce sync.Once

// instance is the singleton catalog metrics set.
var instance *CatalogMetrics

// CatalogMetrics holds all Prometheus metrics for catalog operations.
type CatalogMetrics struct {
	// Cascade save counters
	CatalogSaves        prometheus.Counter // shoebox_catalog_saves_total
	CatalogSaveFailures prometheus.Counter // shoebox_catalog_save_failures_total
	AlbumSaves          prometheus.Counter // shoebox_album_saves_total
	PropagationFailures prometheus.Counter // shoebox_propagation_failures_total

	// File pipeline counters
	FilesAdded      prometheus.Counter // shoebox_files_added_total
	FilesSkipped    *prometheus.CounterVec
	FilesFailed     prometheus.Counter
	ResizeFallbacks *prometheus.CounterVec

	// Trash lifecycle counters
	FilesTrashed  prometheus.Counter
	FilesRestored prometheus.Counter
	FilesPurged   prometheus.Counter

	// Blob writes issued by the cascade
	BlobsWritten     prometheus.Counter
	BlobBytesWritten prometheus.Counter

	// Current shape of the catalog
	AlbumsTotal prometheus.Gauge

	// Storage occupancy, sampled by the Collector
	StoreBlobs   prometheus.Gauge
	CacheEntries prometheus.Gauge

	// Build info (value is always 1)
	Info *prometheus.GaugeVec // labels: version, commit
}

// Init initializes the catalog metrics on the given registerer. Metrics are
// only registered once; subsequent calls return the same instance. A nil
// registerer means the package Registry.
func Init(registry prometheus.Registerer) *CatalogMetrics {
	initOnce.Do(func() {
		if registry == nil {
			registry = Registry
		}
		instance = &CatalogMetrics{
			CatalogSaves: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_catalog_saves_total",
				Help: "Total successful catalog saves (blob stored and root register updated)",
			}),
			CatalogSaveFailures: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_catalog_save_failures_total",
				Help: "Total catalog saves that failed at the blob store or the root register",
			}),
			AlbumSaves: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_album_saves_total",
				Help: "Total album documents stored",
			}),
			PropagationFailures: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_propagation_failures_total",
				Help: "Album saved but the new token could not be propagated into the catalog",
			}),

			FilesAdded: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_files_added_total",
				Help: "Total files added to albums",
			}),
			FilesSkipped: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
				Name: "shoebox_files_skipped_total",
				Help: "Files skipped during add, by reason",
			}, []string{"reason"}),
			FilesFailed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_files_failed_total",
				Help: "Files that failed to store during add",
			}),
			ResizeFallbacks: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
				Name: "shoebox_resize_fallbacks_total",
				Help: "Renditions that fell back to the original content token, by rendition",
			}, []string{"rendition"}),

			FilesTrashed: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_files_trashed_total",
				Help: "Files moved into the Trash album",
			}),
			FilesRestored: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_files_restored_total",
				Help: "Files restored out of the Trash album",
			}),
			FilesPurged: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_files_purged_total",
				Help: "Files removed forever",
			}),

			BlobsWritten: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_blobs_written_total",
				Help: "Blobs written by catalog operations",
			}),
			BlobBytesWritten: promauto.With(registry).NewCounter(prometheus.CounterOpts{
				Name: "shoebox_blob_bytes_written_total",
				Help: "Bytes written to the blob store by catalog operations",
			}),

			AlbumsTotal: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
				Name: "shoebox_albums_total",
				Help: "Number of albums currently in the catalog, including Trash",
			}),

			StoreBlobs: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
				Name: "shoebox_store_blobs",
				Help: "Blobs held by the backing store",
			}),

			CacheEntries: promauto.With(registry).NewGauge(prometheus.GaugeOpts{
				Name: "shoebox_cache_entries",
				Help: "Blobs held by the read cache",
			}),

			Info: promauto.With(registry).NewGaugeVec(prometheus.GaugeOpts{
				Name: "shoebox_build_info",
				Help: "Build information (value is always 1)",
			}, []string{"version", "commit"}),
		}
	})

	return instance
}

// SetBuildInfo publishes the running build's version and commit.
func (m *CatalogMetrics) SetBuildInfo(version, commit string) {
	m.Info.WithLabelValues(version, commit).Set(1)
}

// Handler returns an HTTP handler serving the package Registry in
// Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}
