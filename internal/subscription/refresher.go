package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"aerial/internal/logging"
	"aerial/internal/store"
	"aerial/internal/tasks"
)

// feedFetcher retrieves the raw playlist body for a subscription.
type feedFetcher interface {
	Fetch(ctx context.Context, urlList, userAgent, headersJSON string) (string, error)
}

// subscriptionStore is the slice of the store a refresh needs.
type subscriptionStore interface {
	GetSubscription(ctx context.Context, id int64) (*store.Subscription, error)
	ChannelsBySubscription(ctx context.Context, subID int64) ([]*store.Channel, error)
	ReplaceChannels(ctx context.Context, subID int64, channels []*store.Channel, updateStatus string) error
	UpdateSubscription(ctx context.Context, sub *store.Subscription) error
}

// Refresher synchronizes a subscription's channel rows with its remote feed.
type Refresher struct {
	store    subscriptionStore
	fetcher  feedFetcher
	reporter tasks.Reporter
	logger   *slog.Logger
}

// NewRefresher wires a refresher.
func NewRefresher(st subscriptionStore, fetcher feedFetcher, reporter tasks.Reporter, logger *slog.Logger) *Refresher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if reporter == nil {
		reporter = tasks.NopReporter{}
	}
	return &Refresher{
		store:    st,
		fetcher:  fetcher,
		reporter: reporter,
		logger:   logging.NewComponentLogger(logger, "refresher"),
	}
}

// Refresh fetches, parses, and merges one subscription's feed, replacing
// its channel rows in a single transaction. Prior per-URL check state
// survives the replace. The task record tracks the stages; any failure
// marks the task failed and stamps the subscription's last update status.
func (r *Refresher) Refresh(ctx context.Context, subID int64, taskID string) error {
	r.reporter.Report(ctx, taskID, store.TaskUpdate{
		Status:   tasks.Status(store.TaskRunning),
		Progress: tasks.Progress(0),
		Message:  tasks.Message("loading subscription"),
	})

	sub, err := r.store.GetSubscription(ctx, subID)
	if err != nil {
		return r.fail(ctx, nil, taskID, fmt.Errorf("load subscription: %w", err))
	}
	old, err := r.store.ChannelsBySubscription(ctx, subID)
	if err != nil {
		return r.fail(ctx, sub, taskID, fmt.Errorf("load channels: %w", err))
	}

	r.reporter.Report(ctx, taskID, store.TaskUpdate{
		Progress: tasks.Progress(10),
		Message:  tasks.Message(fmt.Sprintf("fetching feed: %s", sub.Name)),
	})
	body, err := r.fetcher.Fetch(ctx, sub.URL, sub.UserAgent, sub.Headers)
	if err != nil {
		return r.fail(ctx, sub, taskID, err)
	}

	r.reporter.Report(ctx, taskID, store.TaskUpdate{
		Progress: tasks.Progress(50),
		Message:  tasks.Message("parsing feed"),
	})
	parsed := Parse(body)
	if len(parsed) == 0 {
		// Keep the existing rows rather than wiping them on a bad body.
		return r.fail(ctx, sub, taskID, errors.New("feed contained no channels"))
	}

	merged := MergeChannels(old, parsed, subID)
	r.reporter.Report(ctx, taskID, store.TaskUpdate{
		Progress: tasks.Progress(80),
		Message:  tasks.Message(fmt.Sprintf("saving %d channels", len(merged))),
	})
	if err := r.store.ReplaceChannels(ctx, subID, merged, "Success"); err != nil {
		return r.fail(ctx, sub, taskID, fmt.Errorf("replace channels: %w", err))
	}

	r.logger.Info("subscription refreshed",
		logging.Int64("subscription_id", subID),
		logging.String("name", sub.Name),
		logging.Int("channels", len(merged)))
	r.reporter.Report(ctx, taskID, store.TaskUpdate{
		Status:   tasks.Status(store.TaskSuccess),
		Progress: tasks.Progress(100),
		Message:  tasks.Message(fmt.Sprintf("refresh complete: %d channels", len(merged))),
	})
	return nil
}

func (r *Refresher) fail(ctx context.Context, sub *store.Subscription, taskID string, err error) error {
	r.logger.Error("subscription refresh failed",
		logging.String("task_id", taskID),
		logging.Error(err))
	r.reporter.Report(ctx, taskID, store.TaskUpdate{
		Status:  tasks.Status(store.TaskFailure),
		Message: tasks.Message(err.Error()),
	})
	if sub != nil {
		sub.LastUpdateStatus = "Failed: " + err.Error()
		if updateErr := r.store.UpdateSubscription(ctx, sub); updateErr != nil {
			r.logger.Warn("could not stamp refresh failure", logging.Error(updateErr))
		}
	}
	return err
}
