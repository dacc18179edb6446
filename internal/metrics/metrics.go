// Package metrics exposes the worker's prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TranscodesCompleted counts successful encodes.
	TranscodesCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcodarr_transcodes_completed_total",
		Help: "Number of encodes that finished and were published.",
	})

	// TranscodesSkipped counts files the skip oracle classified as already
	// optimal.
	TranscodesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcodarr_transcodes_skipped_total",
		Help: "Number of files skipped as already optimal.",
	})

	// TranscodesFailed counts encodes that failed and rolled back.
	TranscodesFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcodarr_transcodes_failed_total",
		Help: "Number of encodes that failed.",
	})

	// CurrentProgress is the percent completion of the running encode.
	CurrentProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "transcodarr_current_progress_percent",
		Help: "Progress of the encode currently running, 0 when idle.",
	})

	// BytesReclaimed accumulates source bytes freed by completed encodes.
	BytesReclaimed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "transcodarr_bytes_reclaimed_total",
		Help: "Bytes of source files deleted after successful encodes.",
	})
)
