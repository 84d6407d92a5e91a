package checker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"aerial/internal/config"
	"aerial/internal/logging"
	"aerial/internal/probe"
	"aerial/internal/store"
	"aerial/internal/tasks"
)

// StreamProber captures a frame from one stream URL.
type StreamProber interface {
	Capture(ctx context.Context, url string) probe.Result
}

// resultWriter is the slice of the store the runner needs for writeback.
type resultWriter interface {
	ApplyCheckUpdates(ctx context.Context, updates []store.CheckUpdate, source string, policy store.EnablePolicy) error
}

// Runner executes concurrency-bounded check batches.
type Runner struct {
	writer      resultWriter
	prober      StreamProber
	logger      *slog.Logger
	concurrency int
	policy      store.EnablePolicy
}

// NewRunner constructs a batch runner from application configuration.
func NewRunner(cfg *config.Config, writer resultWriter, prober StreamProber, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = logging.NewNop()
	}
	policy := store.DisableFailed
	if !cfg.Check.AutoDisableFailed {
		policy = store.KeepEnabled
	}
	return &Runner{
		writer:      writer,
		prober:      prober,
		logger:      logging.NewComponentLogger(logger, "checker"),
		concurrency: cfg.Check.Concurrency,
		policy:      policy,
	}
}

// RunBatch probes every channel, at most r.concurrency at a time, and
// commits all outcomes in one transaction once the last probe finishes.
// Per-probe failures become failure results; only a storage error during
// writeback propagates. An empty channel set is a no-op.
func (r *Runner) RunBatch(ctx context.Context, channels []*store.Channel, taskID, source string, reporter tasks.Reporter) error {
	if len(channels) == 0 {
		return nil
	}
	if reporter == nil {
		reporter = tasks.NopReporter{}
	}

	total := len(channels)
	results := make([]store.CheckUpdate, total)
	permits := make(chan struct{}, r.concurrency)

	// Progress state for this batch only, mutated and reported under one
	// lock. Percents are computed from the shared counter, not the launch
	// index, and Report runs while the lock is held, so the emitted stream
	// opens at 0 and never goes backwards no matter how the goroutines
	// interleave.
	var progressMu sync.Mutex
	started := 0
	lastPercent := -1

	reportProgress := func(name string) {
		progressMu.Lock()
		defer progressMu.Unlock()
		position := started
		started++
		percent := position * 100 / total
		emit := percent == 0 && lastPercent < 0 || percent-lastPercent >= 2
		if !emit {
			return
		}
		lastPercent = percent
		reporter.Report(ctx, taskID, store.TaskUpdate{
			Progress: tasks.Progress(percent),
			Message:  tasks.Message(fmt.Sprintf("checking (%d/%d): %s", position+1, total, name)),
		})
	}

	var wg sync.WaitGroup
	wg.Add(total)
	for i, ch := range channels {
		go func(index int, ch *store.Channel) {
			defer wg.Done()
			reportProgress(ch.Name)
			results[index] = r.probeOne(ctx, permits, ch)
		}(i, ch)
	}
	wg.Wait()

	// The batch context may already be canceled here; the results for every
	// submitted channel still have to reach storage.
	if err := r.writer.ApplyCheckUpdates(context.WithoutCancel(ctx), results, source, r.policy); err != nil {
		return fmt.Errorf("write back check results: %w", err)
	}
	return nil
}

// probeOne acquires a permit, runs a single capture, and converts any
// misbehavior (including a panic) into a failure result so one channel can
// never abort the batch.
func (r *Runner) probeOne(ctx context.Context, permits chan struct{}, ch *store.Channel) (update store.CheckUpdate) {
	update = store.CheckUpdate{ChannelID: ch.ID}
	defer func() {
		if recovered := recover(); recovered != nil {
			r.logger.Error("probe panicked",
				logging.Int64("channel_id", ch.ID),
				logging.Any("panic", recovered))
			update.Success = false
			update.Error = fmt.Sprintf("probe panic: %v", recovered)
		}
	}()

	select {
	case permits <- struct{}{}:
	case <-ctx.Done():
		update.Error = "check canceled"
		return update
	}
	defer func() { <-permits }()

	result := r.prober.Capture(ctx, ch.URL)
	update.Success = result.Success
	update.Error = result.Error
	update.Image = result.Image

	if result.Success {
		r.logger.Debug("stream check passed",
			logging.Int64("channel_id", ch.ID),
			logging.String("channel", ch.Name))
	} else {
		r.logger.Debug("stream check failed",
			logging.Int64("channel_id", ch.ID),
			logging.String("channel", ch.Name),
			logging.String("error", result.Error))
	}
	return update
}
