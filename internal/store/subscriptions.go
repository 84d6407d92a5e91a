package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// CreateSubscription inserts a subscription and returns the stored row.
func (s *Store) CreateSubscription(ctx context.Context, sub *Subscription) (*Subscription, error) {
	if sub == nil {
		return nil, errors.New("subscription is nil")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO subscriptions (
            name, url, user_agent, headers, auto_update_minutes, enabled,
            last_updated, last_update_status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.Name,
		sub.URL,
		nullableString(sub.UserAgent),
		nullableString(sub.Headers),
		sub.AutoUpdateMinutes,
		boolToInt(sub.Enabled),
		nullableTime(sub.LastUpdated),
		nullableString(sub.LastUpdateStatus),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert subscription: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetSubscription(ctx, id)
}

// GetSubscription fetches a subscription by identifier.
func (s *Store) GetSubscription(ctx context.Context, id int64) (*Subscription, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`, id)
	sub, err := scanSubscription(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// ListSubscriptions returns all subscriptions ordered by identifier.
func (s *Store) ListSubscriptions(ctx context.Context) ([]*Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}
	return subs, nil
}

// UpdateSubscription persists changes to an existing subscription.
func (s *Store) UpdateSubscription(ctx context.Context, sub *Subscription) error {
	if sub == nil {
		return errors.New("subscription is nil")
	}
	sub.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE subscriptions
         SET name = ?, url = ?, user_agent = ?, headers = ?, auto_update_minutes = ?,
             enabled = ?, last_updated = ?, last_update_status = ?, updated_at = ?
         WHERE id = ?`,
		sub.Name,
		sub.URL,
		nullableString(sub.UserAgent),
		nullableString(sub.Headers),
		sub.AutoUpdateMinutes,
		boolToInt(sub.Enabled),
		nullableTime(sub.LastUpdated),
		nullableString(sub.LastUpdateStatus),
		sub.UpdatedAt.Format(time.RFC3339Nano),
		sub.ID,
	)
	if err != nil {
		return fmt.Errorf("update subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSubscription removes a subscription and its channels.
func (s *Store) DeleteSubscription(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM channels WHERE subscription_id = ?`, id); err != nil {
		return fmt.Errorf("delete channels: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM subscriptions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete subscription: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
