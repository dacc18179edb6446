// Package transcode drives the single-worker encode pipeline: it drains
// queued entries from the state database, runs the external encoder, streams
// progress back into the store, and commits or rolls back atomically.
package transcode

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/Nomadcxx/transcodarr/internal/database"
	"github.com/Nomadcxx/transcodarr/internal/logging"
	"github.com/Nomadcxx/transcodarr/internal/metrics"
	"github.com/Nomadcxx/transcodarr/internal/probe"
	"github.com/Nomadcxx/transcodarr/internal/transfer"
)

// idleWait is how long the worker sleeps when nothing is queued.
const idleWait = 5 * time.Second

// stderrTailBytes bounds the stderr excerpt carried by an encode failure.
const stderrTailBytes = 600

// fallbackFPS is assumed when a stream's frame rate can't be evaluated.
const fallbackFPS = 25.0

// Snapshot is the live progress of the running encode, copied out under the
// worker mutex for the status endpoint. It is display state only; the
// progress row in the store is the source of truth.
type Snapshot struct {
	FrameCurrent int64
	FrameTotal   int64
	Progress     float64
}

// Config holds the worker's effective settings.
type Config struct {
	Workdir string
	CRF     int
	ResCap  int
	// EncoderPath is the encoder binary, "ffmpeg" by default. Tests point
	// this at a stub.
	EncoderPath string
}

// Worker is the single encode worker. Exactly one runs per process.
type Worker struct {
	db     *database.DB
	prober probe.Prober
	cfg    Config
	logger *logging.Logger

	mu       sync.Mutex
	current  *database.Entry
	snapshot Snapshot
}

// NewWorker creates a Worker.
func NewWorker(db *database.DB, prober probe.Prober, cfg Config, logger *logging.Logger) *Worker {
	if cfg.EncoderPath == "" {
		cfg.EncoderPath = "ffmpeg"
	}
	if logger == nil {
		logger = logging.Nop()
	}
	return &Worker{
		db:     db,
		prober: prober,
		cfg:    cfg,
		logger: logger,
	}
}

// Current returns the entry being encoded and a progress snapshot, or nil
// when the worker is idle.
func (w *Worker) Current() (*database.Entry, Snapshot) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.current == nil {
		return nil, Snapshot{}
	}
	entry := *w.current
	return &entry, w.snapshot
}

func (w *Worker) setCurrent(entry *database.Entry, snap Snapshot) {
	w.mu.Lock()
	w.current = entry
	w.snapshot = snap
	w.mu.Unlock()
}

func (w *Worker) updateSnapshot(frameCurrent int64, progress float64) {
	w.mu.Lock()
	w.snapshot.FrameCurrent = frameCurrent
	w.snapshot.Progress = progress
	w.mu.Unlock()
}

// Startup prepares the workdir and recovers crash residue: leftover
// workfiles are deleted and stranded in_progress rows are demoted back to
// pending. Never fails; problems are logged and the worker runs anyway.
func (w *Worker) Startup() {
	if err := os.MkdirAll(w.cfg.Workdir, 0755); err != nil {
		w.logger.Error("worker", "Cannot create workdir, encodes will fail", err,
			logging.F("workdir", w.cfg.Workdir))
	}

	leftovers, err := filepath.Glob(filepath.Join(w.cfg.Workdir, "*.mkv"))
	if err == nil {
		for _, path := range leftovers {
			w.logger.Warn("worker", "Removing leftover workfile", logging.F("path", path))
			os.Remove(path)
		}
	}

	n, err := w.db.ResetInProgress()
	if err != nil {
		w.logger.Error("worker", "Failed to reset stranded rows", err)
	} else if n > 0 {
		w.logger.Warn("worker", "Reset stranded in-progress rows", logging.F("count", n))
	}
}

// Run is the worker loop. It exits when ctx is cancelled; a running encode is
// allowed to finish first.
func (w *Worker) Run(ctx context.Context) {
	w.logger.Info("worker", "Transcode worker started", logging.F("workdir", w.cfg.Workdir))

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker", "Transcode worker stopped")
			return
		default:
		}

		entry, err := w.db.PickNextQueued()
		if err != nil {
			w.logger.Error("worker", "Queue pick failed", err)
			w.sleep(ctx, idleWait)
			continue
		}
		if entry == nil {
			w.sleep(ctx, idleWait)
			continue
		}

		w.processSafely(ctx, entry)
	}
}

// processSafely keeps the loop alive: an unexpected panic demotes to a
// logged error and a short backoff instead of killing the worker.
func (w *Worker) processSafely(ctx context.Context, entry *database.Entry) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("worker", "Unexpected worker failure",
				fmt.Errorf("panic: %v", r), logging.F("uuid", entry.UUID))
			w.setCurrent(nil, Snapshot{})
			w.sleep(ctx, idleWait)
		}
	}()
	w.process(ctx, entry)
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

// process runs one entry through the pipeline. Any failure rolls the entry
// back to pending; nothing escapes to the loop.
func (w *Worker) process(ctx context.Context, entry *database.Entry) {
	w.logger.Info("worker", "Transcode started",
		logging.F("uuid", entry.UUID), logging.F("path", entry.Path))

	result, err := w.prober.Probe(ctx, entry.Path)
	if err != nil {
		w.logger.Error("worker", "Pre-flight probe failed", err, logging.F("uuid", entry.UUID))
		w.rollback(entry, "")
		return
	}
	if len(result.VideoStreams()) == 0 {
		w.logger.Error("worker", "No video streams", nil, logging.F("uuid", entry.UUID))
		w.rollback(entry, "")
		return
	}

	if skip, reason := ShouldSkip(result, w.cfg.CRF, w.cfg.ResCap); skip {
		w.markOptimum(entry, reason)
		return
	}

	workfile := filepath.Join(w.cfg.Workdir, entry.UUID+".mkv")

	if err := w.db.UpdateProgress(entry.UUID, database.ProgressUpdate{
		Status:   statusPtr(database.StatusInProgress),
		Progress: floatPtr(0.0),
		Workfile: &sql.NullString{String: workfile, Valid: true},
	}); err != nil {
		w.logger.Error("worker", "Failed to mark in progress", err, logging.F("uuid", entry.UUID))
		w.rollback(entry, "")
		return
	}

	frameTotal := estimateFrameTotal(result)
	if err := w.db.UpdateProgress(entry.UUID, database.ProgressUpdate{
		FrameTotal: &frameTotal,
	}); err != nil {
		w.logger.Error("worker", "Failed to record frame total", err, logging.F("uuid", entry.UUID))
	}
	w.setCurrent(entry, Snapshot{FrameTotal: frameTotal})

	err = w.encode(entry, result, workfile, frameTotal)
	if err == nil {
		err = w.publish(entry, workfile)
	}

	if err != nil {
		metrics.TranscodesFailed.Inc()
		w.logger.Error("worker", "transcode_failed", err, logging.F("uuid", entry.UUID))
		w.rollback(entry, workfile)
	}

	w.setCurrent(nil, Snapshot{})
	metrics.CurrentProgress.Set(0)
}

// rollback demotes an entry to pending with progress and workfile cleared.
func (w *Worker) rollback(entry *database.Entry, workfile string) {
	if workfile != "" {
		os.Remove(workfile)
	}
	if err := w.db.UpdateProgress(entry.UUID, database.ProgressUpdate{
		Status:   statusPtr(database.StatusPending),
		Progress: floatPtr(0.0),
		Workfile: &sql.NullString{},
	}); err != nil {
		w.logger.Error("worker", "Rollback failed", err, logging.F("uuid", entry.UUID))
	}
}

func (w *Worker) markOptimum(entry *database.Entry, reason string) {
	if err := w.db.UpdateProgress(entry.UUID, database.ProgressUpdate{
		Status:   statusPtr(database.StatusOptimum),
		Progress: floatPtr(100.0),
	}); err != nil {
		w.logger.Error("worker", "Failed to mark optimum", err, logging.F("uuid", entry.UUID))
		w.rollback(entry, "")
		return
	}
	metrics.TranscodesSkipped.Inc()
	w.logger.Info("worker", "Transcode skipped",
		logging.F("uuid", entry.UUID), logging.F("reason", reason))
}

// estimateFrameTotal sums fps x duration over the video streams, falling
// back to container duration at 25 fps when the streams carry no durations.
func estimateFrameTotal(result *probe.Result) int64 {
	var total int64
	for _, vs := range result.VideoStreams() {
		fps := vs.FPS(fallbackFPS)
		if fps <= 0 {
			fps = fallbackFPS
		}
		total += int64(fps * vs.DurationSeconds())
	}
	if total == 0 {
		total = int64(result.Format.DurationSeconds() * fallbackFPS)
	}
	return total
}

// encode spawns the encoder child and streams its progress lines into the
// store. Returns an error carrying the stderr tail on non-zero exit.
func (w *Worker) encode(entry *database.Entry, result *probe.Result, workfile string, frameTotal int64) error {
	args := buildArgs(entry.Path, workfile, result, w.cfg.CRF, w.cfg.ResCap)
	w.logger.Debug("worker", "Encoder command",
		logging.F("uuid", entry.UUID), logging.F("args", strings.Join(args, " ")))

	cmd := exec.Command(w.cfg.EncoderPath, args...)

	stderrTail := newTailWriter(stderrTailBytes)
	cmd.Stderr = stderrTail

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open encoder stdout: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start encoder: %w", err)
	}

	// Progress log lines are throttled; store writes are not.
	logLimit := rate.NewLimiter(rate.Every(30*time.Second), 1)

	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, ok := strings.CutPrefix(line, "frame=")
		if !ok {
			continue
		}
		frame, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			continue
		}

		progress := 0.0
		if frameTotal > 0 {
			progress = float64(frame) * 100.0 / float64(frameTotal)
			if progress > 99.0 {
				progress = 99.0
			}
		}

		if err := w.db.UpdateProgress(entry.UUID, database.ProgressUpdate{
			Progress:     &progress,
			FrameCurrent: &frame,
		}); err != nil {
			w.logger.Error("worker", "Progress write failed", err, logging.F("uuid", entry.UUID))
		}

		w.updateSnapshot(frame, progress)
		metrics.CurrentProgress.Set(progress)

		if logLimit.Allow() {
			w.logger.Info("worker", "Transcode progress",
				logging.F("uuid", entry.UUID),
				logging.F("progress", fmt.Sprintf("%.1f", progress)),
				logging.F("frames", fmt.Sprintf("%d/%d", frame, frameTotal)))
		}
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("encoder exited: %v: %s", err, stderrTail.String())
	}
	return nil
}

// publish moves the workfile into the library next to the source, marks the
// entry done, and reclaims the source file.
func (w *Worker) publish(entry *database.Entry, workfile string) error {
	destPath := filepath.Join(filepath.Dir(entry.Path),
		fmt.Sprintf("%s.%s.mkv", entry.Hash, entry.Name))

	if err := transfer.Publish(workfile, destPath); err != nil {
		return fmt.Errorf("failed to publish workfile: %w", err)
	}

	if err := w.db.UpdateProgress(entry.UUID, database.ProgressUpdate{
		Status:   statusPtr(database.StatusDone),
		Progress: floatPtr(100.0),
		Workfile: &sql.NullString{},
	}); err != nil {
		return fmt.Errorf("failed to mark done: %w", err)
	}

	metrics.TranscodesCompleted.Inc()
	w.logger.Info("worker", "Transcode completed",
		logging.F("uuid", entry.UUID), logging.F("dest", destPath))

	// Reclaiming the source is best effort; a leftover source never demotes
	// a finished encode.
	if err := os.Remove(entry.Path); err != nil {
		w.logger.Warn("worker", "Failed to delete source",
			logging.F("path", entry.Path), logging.F("error", err))
	} else {
		metrics.BytesReclaimed.Add(float64(entry.Size))
		w.logger.Info("worker", "Source deleted", logging.F("path", entry.Path))
	}

	return nil
}

func statusPtr(s database.Status) *database.Status { return &s }
func floatPtr(f float64) *float64                  { return &f }
