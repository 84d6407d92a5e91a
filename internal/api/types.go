package api

import (
	"time"

	"aerial/internal/store"
)

// Subscription is the wire form of a subscription row.
type Subscription struct {
	ID                int64      `json:"id"`
	Name              string     `json:"name"`
	URL               string     `json:"url"`
	UserAgent         string     `json:"user_agent,omitempty"`
	Headers           string     `json:"headers,omitempty"`
	AutoUpdateMinutes int        `json:"auto_update_minutes"`
	Enabled           bool       `json:"enabled"`
	LastUpdated       *time.Time `json:"last_updated,omitempty"`
	LastUpdateStatus  string     `json:"last_update_status,omitempty"`
}

// Channel is the wire form of a channel row.
type Channel struct {
	ID             int64      `json:"id"`
	SubscriptionID int64      `json:"subscription_id"`
	Name           string     `json:"name"`
	URL            string     `json:"url"`
	TvgID          string     `json:"tvg_id,omitempty"`
	Logo           string     `json:"logo,omitempty"`
	Group          string     `json:"group,omitempty"`
	Enabled        bool       `json:"enabled"`
	CheckStatus    *bool      `json:"check_status,omitempty"`
	CheckDate      *time.Time `json:"check_date,omitempty"`
	CheckError     string     `json:"check_error,omitempty"`
	CheckImage     string     `json:"check_image,omitempty"`
	CheckSource    string     `json:"check_source,omitempty"`
}

// Task is the wire form of a task record.
type Task struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	Progress  int       `json:"progress"`
	Message   string    `json:"message,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DependencyStatus describes availability of an external binary.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// DaemonStatus is the /api/status payload.
type DaemonStatus struct {
	Running       bool               `json:"running"`
	PID           int                `json:"pid"`
	Subscriptions int                `json:"subscriptions"`
	Channels      int                `json:"channels"`
	DatabasePath  string             `json:"database_path"`
	LockFilePath  string             `json:"lock_file_path"`
	Dependencies  []DependencyStatus `json:"dependencies"`
}

// SubscriptionRequest creates or updates a subscription.
type SubscriptionRequest struct {
	Name              string `json:"name"`
	URL               string `json:"url"`
	UserAgent         string `json:"user_agent,omitempty"`
	Headers           string `json:"headers,omitempty"`
	AutoUpdateMinutes int    `json:"auto_update_minutes"`
	Enabled           *bool  `json:"enabled,omitempty"`
}

// SubscriptionResponse returns a subscription, optionally with the task
// spawned to sync it.
type SubscriptionResponse struct {
	Subscription Subscription `json:"subscription"`
	TaskID       string       `json:"task_id,omitempty"`
}

// SubscriptionListResponse lists subscriptions.
type SubscriptionListResponse struct {
	Subscriptions []Subscription `json:"subscriptions"`
}

// ChannelListResponse lists channels.
type ChannelListResponse struct {
	Channels []Channel `json:"channels"`
}

// ChannelEnableRequest flips a channel's enabled flag.
type ChannelEnableRequest struct {
	Enabled bool `json:"enabled"`
}

// CheckRequest starts a deep check over the given channel ids.
type CheckRequest struct {
	ChannelIDs []int64 `json:"channel_ids"`
	Source     string  `json:"source,omitempty"`
}

// TaskResponse returns a single task.
type TaskResponse struct {
	Task Task `json:"task"`
}

// TaskListResponse lists recent tasks.
type TaskListResponse struct {
	Tasks []Task `json:"tasks"`
}

// TaskStartedResponse acknowledges a background operation.
type TaskStartedResponse struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message,omitempty"`
}

// FromSubscription converts a store row to its wire form.
func FromSubscription(sub *store.Subscription) Subscription {
	if sub == nil {
		return Subscription{}
	}
	return Subscription{
		ID:                sub.ID,
		Name:              sub.Name,
		URL:               sub.URL,
		UserAgent:         sub.UserAgent,
		Headers:           sub.Headers,
		AutoUpdateMinutes: sub.AutoUpdateMinutes,
		Enabled:           sub.Enabled,
		LastUpdated:       sub.LastUpdated,
		LastUpdateStatus:  sub.LastUpdateStatus,
	}
}

// FromSubscriptions converts a slice of store rows.
func FromSubscriptions(subs []*store.Subscription) []Subscription {
	out := make([]Subscription, 0, len(subs))
	for _, sub := range subs {
		out = append(out, FromSubscription(sub))
	}
	return out
}

// FromChannel converts a store row to its wire form.
func FromChannel(ch *store.Channel) Channel {
	if ch == nil {
		return Channel{}
	}
	return Channel{
		ID:             ch.ID,
		SubscriptionID: ch.SubscriptionID,
		Name:           ch.Name,
		URL:            ch.URL,
		TvgID:          ch.TvgID,
		Logo:           ch.Logo,
		Group:          ch.Group,
		Enabled:        ch.Enabled,
		CheckStatus:    ch.CheckStatus,
		CheckDate:      ch.CheckDate,
		CheckError:     ch.CheckError,
		CheckImage:     ch.CheckImage,
		CheckSource:    ch.CheckSource,
	}
}

// FromChannels converts a slice of store rows.
func FromChannels(channels []*store.Channel) []Channel {
	out := make([]Channel, 0, len(channels))
	for _, ch := range channels {
		out = append(out, FromChannel(ch))
	}
	return out
}

// FromTask converts a store row to its wire form.
func FromTask(task *store.Task) Task {
	if task == nil {
		return Task{}
	}
	return Task{
		ID:        task.ID,
		Name:      task.Name,
		Status:    string(task.Status),
		Progress:  task.Progress,
		Message:   task.Message,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

// FromTasks converts a slice of store rows.
func FromTasks(tasksList []*store.Task) []Task {
	out := make([]Task, 0, len(tasksList))
	for _, task := range tasksList {
		out = append(out, FromTask(task))
	}
	return out
}
