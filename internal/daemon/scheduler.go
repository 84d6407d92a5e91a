package daemon

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"aerial/internal/logging"
	"aerial/internal/store"
)

// scheduler owns the periodic feed refresh and auto check loops. Loops are
// derived from subscription settings, so edits to a subscription restart
// the whole generation via reload.
type scheduler struct {
	daemon *Daemon
	logger *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

func newScheduler(d *Daemon, logger *slog.Logger) *scheduler {
	return &scheduler{
		daemon: d,
		logger: logging.NewComponentLogger(logger, "scheduler"),
	}
}

func (s *scheduler) start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	s.running = true
	s.launchLocked()
}

func (s *scheduler) stop() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.running = false
	s.mu.Unlock()
	s.wg.Wait()
}

// reload tears down the current loops and rebuilds them from the stored
// subscription settings.
func (s *scheduler) reload() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.launchLocked()
}

func (s *scheduler) launchLocked() {
	loopCtx, cancel := context.WithCancel(s.ctx)
	s.cancel = cancel

	subs, err := s.daemon.store.ListSubscriptions(loopCtx)
	if err != nil {
		s.logger.Warn("could not load subscriptions for scheduling", logging.Error(err))
		subs = nil
	}
	for _, sub := range subs {
		if !sub.Enabled || sub.AutoUpdateMinutes <= 0 {
			continue
		}
		interval := time.Duration(sub.AutoUpdateMinutes) * time.Minute
		s.wg.Add(1)
		go s.refreshLoop(loopCtx, sub.ID, sub.Name, interval)
	}

	if minutes := s.daemon.cfg.Check.AutoIntervalMinutes; minutes > 0 {
		s.wg.Add(1)
		go s.checkLoop(loopCtx, time.Duration(minutes)*time.Minute)
	}
}

func (s *scheduler) refreshLoop(ctx context.Context, subID int64, name string, interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("auto refresh scheduled",
		logging.Int64("subscription_id", subID),
		logging.String("name", name),
		logging.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.daemon.StartRefresh(ctx, subID, name); err != nil {
				s.logger.Warn("auto refresh not started",
					logging.Int64("subscription_id", subID),
					logging.Error(err))
			}
		}
	}
}

func (s *scheduler) checkLoop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("auto check scheduled", logging.Duration("interval", interval))

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			channels, err := s.daemon.store.EnabledChannels(ctx)
			if err != nil {
				s.logger.Warn("auto check could not load channels", logging.Error(err))
				continue
			}
			if len(channels) == 0 {
				continue
			}
			ids := make([]int64, 0, len(channels))
			for _, ch := range channels {
				ids = append(ids, ch.ID)
			}
			if _, err := s.daemon.StartCheck(ctx, ids, store.SourceAuto); err != nil {
				s.logger.Warn("auto check not started", logging.Error(err))
			}
		}
	}
}
