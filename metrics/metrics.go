// Package metrics provides access to Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "imgcache"

// Cache
var (
	MemoryHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "hits_total",
		},
	)
	MemoryMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "misses_total",
		},
	)
	MemoryEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "memory",
			Name:      "evictions_total",
		},
	)
	DiskHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "disk",
			Name:      "hits_total",
		},
	)
	DiskMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "disk",
			Name:      "misses_total",
		},
	)
	DiskErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "disk",
			Name:      "errors_total",
		},
	)
	DiskPrunedFiles = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "disk",
			Name:      "pruned_files_total",
		},
	)
	DiskPrunedBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "disk",
			Name:      "pruned_bytes_total",
		},
	)
)

// Loads
var (
	LoadsCoalesced = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loads",
			Name:      "coalesced_total",
		},
	)
	LoadsFailed = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loads",
			Name:      "failed_total",
		},
	)
)

// Fetch
var (
	FetchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "errors_total",
		},
	)
	FetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "duration_seconds",
			Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1, 2, 5, 10, 15},
		},
	)
	FetchedImageSizes = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "fetch",
			Name:      "image_size_bytes",
			Buckets: []float64{
				4 << 10,   // 4 KiB
				16 << 10,  // 16 KiB
				64 << 10,  // 64 KiB
				256 << 10, // 256 KiB
				1 << 20,   // 1 MiB
				5 << 20,   // 5 MiB
				10 << 20,  // 10 MiB
			},
		},
	)
)

// Decode
var (
	DecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "errors_total",
		},
	)
	DecodeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "duration_seconds",
			Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1, 2},
		},
	)
	DecodeDownsampled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "decode",
			Name:      "downsampled_total",
		},
	)
)
