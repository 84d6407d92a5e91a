package tasks

import (
	"context"
	"log/slog"

	"aerial/internal/logging"
	"aerial/internal/store"
)

// Reporter receives task status updates. Implementations must be safe for
// concurrent use and must not block or panic into the caller.
type Reporter interface {
	Report(ctx context.Context, taskID string, upd store.TaskUpdate)
}

// Status returns a pointer for use in a partial update.
func Status(s store.TaskStatus) *store.TaskStatus { return &s }

// Progress returns a pointer for use in a partial update.
func Progress(p int) *int { return &p }

// Message returns a pointer for use in a partial update.
func Message(m string) *string { return &m }

// NopReporter discards all updates.
type NopReporter struct{}

func (NopReporter) Report(context.Context, string, store.TaskUpdate) {}

// StoreReporter persists updates and publishes the resulting task snapshot
// to the hub. Storage errors are logged and swallowed; a reporting failure
// must never fail the operation being reported on.
type StoreReporter struct {
	store  *store.Store
	hub    *Hub
	logger *slog.Logger
}

// NewStoreReporter builds a reporter backed by the given store. The hub is
// optional; pass nil when no live observers exist.
func NewStoreReporter(st *store.Store, hub *Hub, logger *slog.Logger) *StoreReporter {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StoreReporter{
		store:  st,
		hub:    hub,
		logger: logging.NewComponentLogger(logger, "tasks"),
	}
}

func (r *StoreReporter) Report(ctx context.Context, taskID string, upd store.TaskUpdate) {
	if taskID == "" {
		return
	}
	task, err := r.store.UpdateTask(ctx, taskID, upd)
	if err != nil {
		r.logger.Warn("task update dropped",
			logging.String("task_id", taskID),
			logging.Error(err))
		return
	}
	if r.hub != nil {
		r.hub.Publish(*task)
	}
}

var _ Reporter = (*StoreReporter)(nil)
var _ Reporter = NopReporter{}
