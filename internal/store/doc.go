// Package store manages Aerial's persistence backed by SQLite. It owns
// the subscriptions, channels, and check_tasks tables, applies the
// schema version gate on open, and provides the transactional writeback
// used after a batch stream check.
package store
