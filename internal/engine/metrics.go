package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	TranscriptFetches   atomic.Int64
	SessionAcquisitions atomic.Int64
	SessionErrors       atomic.Int64
	SessionReleases     atomic.Int64
	NavigationErrors    atomic.Int64
	ExtractionAborts    atomic.Int64
	LLMCalls            atomic.Int64
	LLMErrors           atomic.Int64
}

var metricKeys = []string{
	"transcript_fetches",
	"session_acquisitions", "session_errors", "session_releases",
	"navigation_errors", "extraction_aborts",
	"llm_calls", "llm_errors",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"transcript_fetches":   metrics.TranscriptFetches.Load(),
		"session_acquisitions": metrics.SessionAcquisitions.Load(),
		"session_errors":       metrics.SessionErrors.Load(),
		"session_releases":     metrics.SessionReleases.Load(),
		"navigation_errors":    metrics.NavigationErrors.Load(),
		"extraction_aborts":    metrics.ExtractionAborts.Load(),
		"llm_calls":            metrics.LLMCalls.Load(),
		"llm_errors":           metrics.LLMErrors.Load(),
		"cache_hits":           hits,
		"cache_misses":         misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

// Incrementors for video/ and chat/ sub-packages.
func IncrTranscriptFetch()    { metrics.TranscriptFetches.Add(1) }
func IncrSessionAcquisition() { metrics.SessionAcquisitions.Add(1) }
func IncrSessionError()       { metrics.SessionErrors.Add(1) }
func IncrSessionRelease()     { metrics.SessionReleases.Add(1) }
func IncrNavigationError()    { metrics.NavigationErrors.Add(1) }
func IncrExtractionAbort()    { metrics.ExtractionAborts.Add(1) }
func IncrLLMCall()            { metrics.LLMCalls.Add(1) }
func IncrLLMError()           { metrics.LLMErrors.Add(1) }

// TrackOperation logs a warning if an operation takes longer than threshold.
func TrackOperation(ctx context.Context, name string, threshold time.Duration, fn func(context.Context) error) error {
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if elapsed > threshold {
		slog.Warn("slow operation", slog.String("op", name), slog.Duration("elapsed", elapsed))
	}
	return err
}
