package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"aerial/internal/checker"
	"aerial/internal/config"
	"aerial/internal/logging"
	"aerial/internal/preflight"
	"aerial/internal/probe"
	"aerial/internal/store"
	"aerial/internal/subscription"
	"aerial/internal/tasks"
)

// Daemon coordinates the background services and enforces single-instance
// execution.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	hub       *tasks.Hub
	checkSvc  *checker.Service
	refresher *subscription.Refresher

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc

	api       *apiServer
	scheduler *scheduler

	// Tracks in-flight background tasks so Stop can wait for them.
	background sync.WaitGroup
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	hub := tasks.NewHub()
	reporter := tasks.NewStoreReporter(st, hub, logger)
	prober := probe.New(cfg, logger)
	runner := checker.NewRunner(cfg, st, prober, logger)
	checkSvc := checker.NewService(st, runner, reporter, logger)
	fetcher := subscription.NewFetcher(cfg, logger)
	refresher := subscription.NewRefresher(st, fetcher, reporter, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "aeriald.lock")
	d := &Daemon{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		hub:       hub,
		checkSvc:  checkSvc,
		refresher: refresher,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
	d.scheduler = newScheduler(d, logger)

	api, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.api = api
	return d, nil
}

// Start acquires the daemon lock and launches the API server and schedulers.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another aerial daemon instance is already running")
	}

	for _, result := range preflight.RunAll(d.cfg) {
		if result.Passed {
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.api.start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return err
	}
	d.scheduler.start(d.ctx)

	d.running.Store(true)
	d.logger.Info("aerial daemon started",
		logging.String("lock", d.lockPath),
		logging.String("database", d.cfg.DatabasePath()))
	return nil
}

// Stop halts background processing, waits for in-flight tasks, and
// releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.scheduler.stop()
	d.api.stop()
	d.background.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("aerial daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr returns the address the API server is listening on, or empty when
// the daemon is not running.
func (d *Daemon) Addr() string {
	if d.api == nil {
		return ""
	}
	return d.api.addr()
}

// Status summarizes daemon runtime information.
type Status struct {
	Running       bool
	PID           int
	Subscriptions int
	Channels      int
	DatabasePath  string
	LockFilePath  string
}

// Status returns the current daemon status with store counts.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.lockPath,
	}
	if subs, err := d.store.ListSubscriptions(ctx); err == nil {
		status.Subscriptions = len(subs)
		for _, sub := range subs {
			if channels, err := d.store.ChannelsBySubscription(ctx, sub.ID); err == nil {
				status.Channels += len(channels)
			}
		}
	}
	return status
}

// StartCheck creates a check task and launches the batch in the background.
func (d *Daemon) StartCheck(ctx context.Context, channelIDs []int64, source string) (string, error) {
	if len(channelIDs) == 0 {
		return "", errors.New("no channel ids provided")
	}
	if source == "" {
		source = store.SourceManual
	}

	taskID := uuid.NewString()
	name := fmt.Sprintf("deep check of %d channels", len(channelIDs))
	if _, err := d.store.CreateTask(ctx, taskID, name); err != nil {
		return "", fmt.Errorf("create check task: %w", err)
	}

	d.runInBackground(func(runCtx context.Context) {
		if err := d.checkSvc.CheckByIDs(runCtx, channelIDs, source, taskID); err != nil {
			d.logger.Error("background check failed",
				logging.String("task_id", taskID),
				logging.Error(err))
		}
	})
	return taskID, nil
}

// StartRefresh creates a sync task and refreshes the subscription in the
// background.
func (d *Daemon) StartRefresh(ctx context.Context, subID int64, name string) (string, error) {
	taskID := uuid.NewString()
	if _, err := d.store.CreateTask(ctx, taskID, fmt.Sprintf("sync subscription: %s", name)); err != nil {
		return "", fmt.Errorf("create refresh task: %w", err)
	}

	d.runInBackground(func(runCtx context.Context) {
		if err := d.refresher.Refresh(runCtx, subID, taskID); err != nil {
			d.logger.Error("background refresh failed",
				logging.String("task_id", taskID),
				logging.Error(err))
		}
	})
	return taskID, nil
}

// runInBackground runs fn under the daemon lifecycle context. Callers get
// task records, not errors; failures are reported through the task itself.
func (d *Daemon) runInBackground(fn func(ctx context.Context)) {
	ctx := d.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	d.background.Add(1)
	go func() {
		defer d.background.Done()
		fn(ctx)
	}()
}
