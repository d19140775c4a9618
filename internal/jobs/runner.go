package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"media-grabber/internal/engine"
	"media-grabber/internal/logging"
	"media-grabber/internal/metrics"
)

// historyTimeout bounds the write of a completed download into the
// history store; the job result itself is already finalized by then.
const historyTimeout = 5 * time.Second

// Engine is the adapter surface the runner drives. Download blocks for the
// whole transfer and reports progress through the sink.
type Engine interface {
	Download(ctx context.Context, url string, kind engine.FormatKind, quality string, sink engine.ProgressSink) (*engine.Result, error)
}

// HistoryRecorder persists completed downloads. Implementations must be
// safe for concurrent use; a nil recorder disables history.
type HistoryRecorder interface {
	RecordDownload(ctx context.Context, downloadID, url, format, quality string, result Result) error
}

// Runner owns the concurrency boundary of the system: it assigns job ids,
// registers jobs, and executes each download on its own goroutine. Workers
// never propagate errors to a caller; every outcome lands in the registry
// through Finalize.
type Runner struct {
	registry *Registry
	engine   Engine
	history  HistoryRecorder
}

// NewRunner wires a runner to its registry, engine adapter and optional
// history store.
func NewRunner(registry *Registry, eng Engine, history HistoryRecorder) *Runner {
	return &Runner{
		registry: registry,
		engine:   eng,
		history:  history,
	}
}

// Start registers a new download job and dispatches it on a detached
// goroutine. It returns the job id immediately; the caller polls the
// registry for progress and completion.
func (r *Runner) Start(url string, kind engine.FormatKind, quality string) string {
	id := newJobID()
	for r.registry.Create(id, url) != nil {
		id = newJobID()
	}

	go r.run(id, url, kind, quality)
	return id
}

// Cancel removes the job's registry entry and reports whether it existed.
// Cancellation is best-effort and non-preemptive: an in-flight engine
// download cannot be interrupted and keeps running to completion in the
// background; its eventual Finalize is silently dropped against the
// removed id.
func (r *Runner) Cancel(id string) bool {
	if !r.registry.Remove(id) {
		return false
	}
	metrics.DownloadsCancelled.Inc()
	logging.Info("download %s cancelled (worker, if any, runs to completion)", id)
	return true
}

// run executes a single download job to completion.
func (r *Runner) run(id, url string, kind engine.FormatKind, quality string) {
	logging.Info("download %s started: %s (format=%s quality=%s)", id, url, kind, quality)

	metrics.DownloadsInProgress.Inc()
	defer metrics.DownloadsInProgress.Dec()

	start := time.Now()
	sink := func(percent, speed, eta string) {
		r.registry.UpdateProgress(id, percent, speed, eta)
	}

	res, err := r.engine.Download(context.Background(), url, kind, quality, sink)
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues(string(kind), "error").Inc()
		logging.Error("download %s failed: %v", id, err)
		r.registry.Finalize(id, Result{Success: false, Error: err.Error()})
		return
	}

	result := Result{
		Success:  true,
		Filename: res.Filename,
		Title:    res.Title,
		Duration: res.Duration,
		Filesize: res.Filesize,
	}

	if !r.registry.Finalize(id, result) {
		logging.Debug("download %s finished after cancellation, result dropped", id)
	}

	metrics.DownloadsTotal.WithLabelValues(string(kind), "success").Inc()
	metrics.DownloadDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	metrics.DownloadBytesTotal.Add(float64(res.Filesize))
	logging.Info("download %s completed: %s (%d bytes in %v)", id, res.Filename, res.Filesize, time.Since(start).Round(time.Millisecond))

	if r.history != nil {
		ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
		defer cancel()
		if err := r.history.RecordDownload(ctx, id, url, string(kind), quality, result); err != nil {
			logging.Warn("failed to record download %s in history: %v", id, err)
		}
	}
}

// newJobID generates a download id. The timestamp keeps ids roughly
// sortable and recognizable; the uuid fragment makes them collision-free
// at any request rate.
func newJobID() string {
	return fmt.Sprintf("dl_%d_%s", time.Now().Unix(), uuid.NewString()[:8])
}
