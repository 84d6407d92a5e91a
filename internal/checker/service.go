package checker

import (
	"context"
	"fmt"
	"log/slog"

	"aerial/internal/logging"
	"aerial/internal/store"
	"aerial/internal/tasks"
)

// channelLoader is the slice of the store the service needs to resolve ids.
type channelLoader interface {
	ChannelsByIDs(ctx context.Context, ids []int64) ([]*store.Channel, error)
}

// Service orchestrates one check task end to end: load channels, run the
// batch, and drive the task record through its lifecycle.
type Service struct {
	loader   channelLoader
	runner   *Runner
	reporter tasks.Reporter
	logger   *slog.Logger
}

// NewService wires a check service.
func NewService(loader channelLoader, runner *Runner, reporter tasks.Reporter, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.NewNop()
	}
	if reporter == nil {
		reporter = tasks.NopReporter{}
	}
	return &Service{
		loader:   loader,
		runner:   runner,
		reporter: reporter,
		logger:   logging.NewComponentLogger(logger, "checker"),
	}
}

// CheckByIDs resolves the channel ids and runs one batch under the given
// task. Individual probe failures surface as per-channel state; only a
// storage fault fails the task itself.
func (s *Service) CheckByIDs(ctx context.Context, channelIDs []int64, source, taskID string) error {
	s.reporter.Report(ctx, taskID, store.TaskUpdate{
		Status:   tasks.Status(store.TaskRunning),
		Progress: tasks.Progress(0),
		Message:  tasks.Message(fmt.Sprintf("preparing to check %d channels", len(channelIDs))),
	})

	channels, err := s.loader.ChannelsByIDs(ctx, channelIDs)
	if err != nil {
		s.fail(ctx, taskID, fmt.Errorf("load channels: %w", err))
		return fmt.Errorf("load channels: %w", err)
	}
	if len(channels) == 0 {
		s.reporter.Report(ctx, taskID, store.TaskUpdate{
			Status:   tasks.Status(store.TaskSuccess),
			Progress: tasks.Progress(100),
			Message:  tasks.Message("no valid channels to check"),
		})
		return nil
	}

	s.logger.Info("starting deep check",
		logging.Int("channels", len(channels)),
		logging.String("source", source),
		logging.String("task_id", taskID))

	if err := s.runner.RunBatch(ctx, channels, taskID, source, s.reporter); err != nil {
		s.fail(ctx, taskID, err)
		return err
	}

	// The terminal report must land even when the batch context was
	// canceled mid-run.
	s.reporter.Report(context.WithoutCancel(ctx), taskID, store.TaskUpdate{
		Status:   tasks.Status(store.TaskSuccess),
		Progress: tasks.Progress(100),
		Message:  tasks.Message("check complete"),
	})
	return nil
}

// CheckChannels runs one batch over preloaded channel rows.
func (s *Service) CheckChannels(ctx context.Context, channels []*store.Channel, source, taskID string) error {
	if len(channels) == 0 {
		return nil
	}
	s.reporter.Report(ctx, taskID, store.TaskUpdate{
		Status:   tasks.Status(store.TaskRunning),
		Progress: tasks.Progress(0),
		Message:  tasks.Message(fmt.Sprintf("preparing to check %d channels", len(channels))),
	})
	if err := s.runner.RunBatch(ctx, channels, taskID, source, s.reporter); err != nil {
		s.fail(ctx, taskID, err)
		return err
	}
	s.reporter.Report(context.WithoutCancel(ctx), taskID, store.TaskUpdate{
		Status:   tasks.Status(store.TaskSuccess),
		Progress: tasks.Progress(100),
		Message:  tasks.Message("check complete"),
	})
	return nil
}

func (s *Service) fail(ctx context.Context, taskID string, err error) {
	s.logger.Error("deep check failed",
		logging.String("task_id", taskID),
		logging.Error(err))
	s.reporter.Report(context.WithoutCancel(ctx), taskID, store.TaskUpdate{
		Status:  tasks.Status(store.TaskFailure),
		Message: tasks.Message(err.Error()),
	})
}
