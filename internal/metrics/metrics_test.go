package metrics

import (
	"testing"
)

// metricValue gathers the package registry and returns the value of the
// first series of name whose labels include all of labels. Works for
// counters and gauges.
func metricValue(t *testing.T, name string, labels map[string]string) (float64, bool) {
	t.Helper()

	mfs, err := Registry.Gather()
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}

	for _, mf := range mfs {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			got := make(map[string]string)
			for _, l := range m.GetLabel() {
				got[l.GetName()] = l.GetValue()
			}
			match := true
			for k, v := range labels {
				if got[k] != v {
					match = false
					break
				}
			}
			if !match {
				continue
			}
			if c := m.GetCounter(); c != nil {
				return c.GetValue(), true
			}
			return m.GetGauge().GetValue(), true
		}
	}
	return 0, false
}

func TestInit(t *testing.T) {
	m := Init(nil)
	if m == nil {
		t.Fatal("Init returned nil")
	}

	// Init is a singleton; later calls return the same instance.
	if m2 := Init(nil); m2 != m {
		t.Error("Init returned a different instance on second call")
	}

	// Verify all metrics are initialized
	tests := []struct {
		name   string
		metric interface{}
	}{
		{"CatalogSaves", m.CatalogSaves},
		{"CatalogSaveFailures", m.CatalogSaveFailures},
		{"AlbumSaves", m.AlbumSaves},
		{"PropagationFailures", m.PropagationFailures},
		{"FilesAdded", m.FilesAdded},
		{"FilesSkipped", m.FilesSkipped},
		{"FilesFailed", m.FilesFailed},
		{"ResizeFallbacks", m.ResizeFallbacks},
		{"FilesTrashed", m.FilesTrashed},
		{"FilesRestored", m.FilesRestored},
		{"FilesPurged", m.FilesPurged},
		{"BlobsWritten", m.BlobsWritten},
		{"BlobBytesWritten", m.BlobBytesWritten},
		{"AlbumsTotal", m.AlbumsTotal},
		{"StoreBlobs", m.StoreBlobs},
		{"CacheEntries", m.CacheEntries},
		{"Info", m.Info},
	}

	for _, tt := range tests {
		if tt.metric == nil {
			t.Errorf("%s is nil", tt.name)
		}
	}
}

func TestCounterIncrement(t *testing.T) {
	m := Init(nil)

	// The registry is shared across the package's tests, so assert on
	// deltas rather than absolute values.
	before, _ := metricValue(t, "shoebox_files_added_total", nil)

	m.FilesAdded.Add(7)

	after, found := metricValue(t, "shoebox_files_added_total", nil)
	if !found {
		t.Fatal("shoebox_files_added_total not found in gathered metrics")
	}
	if after-before != 7 {
		t.Errorf("Expected FilesAdded delta=7, got %f", after-before)
	}
}

func TestGaugeSet(t *testing.T) {
	m := Init(nil)

	m.AlbumsTotal.Set(5)

	val, found := metricValue(t, "shoebox_albums_total", nil)
	if !found {
		t.Fatal("shoebox_albums_total not found in gathered metrics")
	}
	if val != 5 {
		t.Errorf("Expected AlbumsTotal=5, got %f", val)
	}
}

func TestLabeledCounters(t *testing.T) {
	m := Init(nil)

	beforeSkip, _ := metricValue(t, "shoebox_files_skipped_total", map[string]string{"reason": "too_large"})
	beforeFall, _ := metricValue(t, "shoebox_resize_fallbacks_total", map[string]string{"rendition": "preview"})

	m.FilesSkipped.WithLabelValues("too_large").Inc()
	m.FilesSkipped.WithLabelValues("unsupported").Inc()
	m.ResizeFallbacks.WithLabelValues("preview").Inc()

	afterSkip, found := metricValue(t, "shoebox_files_skipped_total", map[string]string{"reason": "too_large"})
	if !found {
		t.Fatal("shoebox_files_skipped_total{reason=too_large} not found")
	}
	if afterSkip-beforeSkip != 1 {
		t.Errorf("Expected too_large delta=1, got %f", afterSkip-beforeSkip)
	}

	afterFall, found := metricValue(t, "shoebox_resize_fallbacks_total", map[string]string{"rendition": "preview"})
	if !found {
		t.Fatal("shoebox_resize_fallbacks_total{rendition=preview} not found")
	}
	if afterFall-beforeFall != 1 {
		t.Errorf("Expected preview fallback delta=1, got %f", afterFall-beforeFall)
	}
}

func TestSetBuildInfo(t *testing.T) {
	m := Init(nil)
	m.SetBuildInfo("9.9.9", "cafef00d")

	val, found := metricValue(t, "shoebox_build_info", map[string]string{
		"version": "9.9.9",
		"commit":  "cafef00d",
	})
	if !found {
		t.Fatal("shoebox_build_info not found for version=9.9.9 commit=cafef00d")
	}
	if val != 1 {
		t.Errorf("Expected build_info value=1, got %f", val)
	}
}
