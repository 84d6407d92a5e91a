package store

import "time"

// TaskStatus represents the lifecycle of a check task.
type TaskStatus string

const (
	TaskPending TaskStatus = "pending"
	TaskRunning TaskStatus = "running"
	TaskSuccess TaskStatus = "success"
	TaskFailure TaskStatus = "failure"
)

// Terminal reports whether the status is final.
func (s TaskStatus) Terminal() bool {
	return s == TaskSuccess || s == TaskFailure
}

// CheckSource identifies what triggered a stream check.
const (
	SourceManual = "manual"
	SourceAuto   = "auto"
)

// Subscription is a feed of channels fetched from a remote playlist.
type Subscription struct {
	ID                int64
	Name              string
	URL               string
	UserAgent         string
	Headers           string // JSON object of extra HTTP headers
	AutoUpdateMinutes int
	Enabled           bool
	LastUpdated       *time.Time
	LastUpdateStatus  string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Channel is one streaming endpoint belonging to a subscription.
//
// The check_* fields cache the outcome of the most recent deep check.
// CheckStatus is nil until a channel has been checked at least once.
type Channel struct {
	ID             int64
	SubscriptionID int64
	Name           string
	URL            string
	TvgID          string
	Logo           string
	Group          string
	Enabled        bool
	CheckStatus    *bool
	CheckDate      *time.Time
	CheckError     string
	CheckImage     string
	CheckSource    string
}

// Task is a persisted record of a long-running background operation.
type Task struct {
	ID        string
	Name      string
	Status    TaskStatus
	Progress  int
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CheckUpdate carries one channel's probe outcome into writeback.
type CheckUpdate struct {
	ChannelID int64
	Success   bool
	Error     string
	Image     string
}

// EnablePolicy decides the enabled flag written back with a check result.
// The default policy disables a channel whose deep check failed.
type EnablePolicy func(success bool, currentlyEnabled bool) bool

// DisableFailed is the default enable policy: enabled follows success.
func DisableFailed(success bool, _ bool) bool { return success }

// KeepEnabled leaves the enabled flag untouched regardless of outcome.
func KeepEnabled(_ bool, currentlyEnabled bool) bool { return currentlyEnabled }
