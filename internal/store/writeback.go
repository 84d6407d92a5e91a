package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ApplyCheckUpdates commits a completed batch of probe outcomes in a single
// transaction. Updates whose channel no longer exists are skipped silently;
// any statement failure rolls the entire batch back. The policy decides the
// channel's enabled flag; a nil policy disables channels that failed.
func (s *Store) ApplyCheckUpdates(ctx context.Context, updates []CheckUpdate, source string, policy EnablePolicy) error {
	if len(updates) == 0 {
		return nil
	}
	if policy == nil {
		policy = DisableFailed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin writeback tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, upd := range updates {
		var enabled int
		row := tx.QueryRowContext(ctx, `SELECT enabled FROM channels WHERE id = ?`, upd.ChannelID)
		if err := row.Scan(&enabled); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Channel vanished between batch start and writeback.
				continue
			}
			return fmt.Errorf("load channel %d: %w", upd.ChannelID, err)
		}

		checkError := upd.Error
		if upd.Success {
			checkError = ""
		}
		if _, err := tx.ExecContext(
			ctx,
			`UPDATE channels
             SET check_status = ?, check_date = ?, check_error = ?, check_image = ?,
                 check_source = ?, enabled = ?
             WHERE id = ?`,
			boolToInt(upd.Success),
			now,
			nullableString(checkError),
			nullableString(upd.Image),
			nullableString(source),
			boolToInt(policy(upd.Success, enabled != 0)),
			upd.ChannelID,
		); err != nil {
			return fmt.Errorf("write check result for channel %d: %w", upd.ChannelID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit writeback: %w", err)
	}
	return nil
}
