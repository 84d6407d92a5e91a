package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// GetChannel fetches a channel by identifier.
func (s *Store) GetChannel(ctx context.Context, id int64) (*Channel, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE id = ?`, id)
	ch, err := scanChannel(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get channel: %w", err)
	}
	return ch, nil
}

// ChannelsBySubscription returns the channels of one subscription ordered by id.
func (s *Store) ChannelsBySubscription(ctx context.Context, subID int64) ([]*Channel, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+channelColumns+` FROM channels WHERE subscription_id = ? ORDER BY id`,
		subID,
	)
	if err != nil {
		return nil, fmt.Errorf("channels by subscription: %w", err)
	}
	return collectChannels(rows)
}

// channelIDChunk keeps each IN clause well under SQLite's bound
// parameter limit; auto checks can submit every enabled channel at once.
const channelIDChunk = 500

// ChannelsByIDs loads the channels matching the given identifiers, ordered
// by id. Missing identifiers are silently absent from the result.
func (s *Store) ChannelsByIDs(ctx context.Context, ids []int64) ([]*Channel, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	sorted := make([]int64, len(ids))
	copy(sorted, ids)
	slices.Sort(sorted)

	var channels []*Channel
	for start := 0; start < len(sorted); start += channelIDChunk {
		chunk := sorted[start:min(start+channelIDChunk, len(sorted))]
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",")
		args := make([]any, len(chunk))
		for i, id := range chunk {
			args[i] = id
		}
		rows, err := s.db.QueryContext(
			ctx,
			`SELECT `+channelColumns+` FROM channels WHERE id IN (`+placeholders+`) ORDER BY id`,
			args...,
		)
		if err != nil {
			return nil, fmt.Errorf("channels by ids: %w", err)
		}
		batch, err := collectChannels(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, batch...)
	}
	return channels, nil
}

// EnabledChannels returns every enabled channel across all subscriptions.
func (s *Store) EnabledChannels(ctx context.Context) ([]*Channel, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+channelColumns+` FROM channels WHERE enabled = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("enabled channels: %w", err)
	}
	return collectChannels(rows)
}

// SetChannelEnabled flips the enabled flag for one channel.
func (s *Store) SetChannelEnabled(ctx context.Context, id int64, enabled bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE channels SET enabled = ? WHERE id = ?`, boolToInt(enabled), id)
	if err != nil {
		return fmt.Errorf("set channel enabled: %w", err)
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

// ReplaceChannels swaps a subscription's channel rows for the provided set
// and stamps the refresh outcome, all in one transaction. The channels are
// expected to already carry any state preserved by the reconciliation merge.
func (s *Store) ReplaceChannels(ctx context.Context, subID int64, channels []*Channel, updateStatus string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM channels WHERE subscription_id = ?`, subID); err != nil {
		return fmt.Errorf("clear channels: %w", err)
	}

	stmt, err := tx.PrepareContext(
		ctx,
		`INSERT INTO channels (
            subscription_id, name, url, tvg_id, logo, group_title, enabled,
            check_status, check_date, check_error, check_image, check_source
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("prepare channel insert: %w", err)
	}
	defer stmt.Close()

	for _, ch := range channels {
		if ch == nil {
			continue
		}
		if _, err := stmt.ExecContext(
			ctx,
			subID,
			ch.Name,
			ch.URL,
			nullableString(ch.TvgID),
			nullableString(ch.Logo),
			nullableString(ch.Group),
			boolToInt(ch.Enabled),
			nullableBool(ch.CheckStatus),
			nullableTime(ch.CheckDate),
			nullableString(ch.CheckError),
			nullableString(ch.CheckImage),
			nullableString(ch.CheckSource),
		); err != nil {
			return fmt.Errorf("insert channel %q: %w", ch.Name, err)
		}
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	if _, err := tx.ExecContext(
		ctx,
		`UPDATE subscriptions SET last_updated = ?, last_update_status = ?, updated_at = ? WHERE id = ?`,
		now,
		nullableString(updateStatus),
		now,
		subID,
	); err != nil {
		return fmt.Errorf("stamp subscription: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func collectChannels(rows *sql.Rows) ([]*Channel, error) {
	defer rows.Close()
	var channels []*Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("scan channel: %w", err)
		}
		channels = append(channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate channels: %w", err)
	}
	return channels, nil
}
