package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// GetDraft returns a draft that has not expired at now
func (db *DB) GetDraft(ctx context.Context, sessionID string, now time.Time) (*Draft, error) {
	var data string
	var updatedAt, expiresAt int64
	err := db.QueryRowContext(ctx,
		"SELECT data, updated_at, expires_at FROM drafts WHERE session_id = ? AND expires_at > ?",
		sessionID, now.Unix(),
	).Scan(&data, &updatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &Draft{
		SessionID: sessionID,
		Data:      []byte(data),
		UpdatedAt: time.Unix(updatedAt, 0).UTC(),
		ExpiresAt: time.Unix(expiresAt, 0).UTC(),
	}, nil
}

// UpsertDraft stores a draft, replacing any previous data for the session
func (db *DB) UpsertDraft(ctx context.Context, d *Draft) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO drafts (session_id, data, updated_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at, expires_at = excluded.expires_at`,
		d.SessionID, string(d.Data), d.UpdatedAt.Unix(), d.ExpiresAt.Unix(),
	)
	return err
}

// MergeDraft merges patch into the stored top-level keys inside one transaction.
// An expired or missing draft is treated as empty.
func (db *DB) MergeDraft(ctx context.Context, sessionID string, patch map[string]json.RawMessage, now, expiresAt time.Time) (map[string]json.RawMessage, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	merged := map[string]json.RawMessage{}
	var data string
	err = tx.QueryRowContext(ctx,
		"SELECT data FROM drafts WHERE session_id = ? AND expires_at > ?", sessionID, now.Unix(),
	).Scan(&data)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal([]byte(data), &merged); err != nil {
			return nil, fmt.Errorf("corrupt draft %s: %w", sessionID, err)
		}
	}

	for k, v := range patch {
		merged[k] = v
	}
	encoded, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO drafts (session_id, data, updated_at, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(session_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at, expires_at = excluded.expires_at`,
		sessionID, string(encoded), now.Unix(), expiresAt.Unix(),
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return merged, nil
}

// DeleteDraft removes a draft; deleting a missing draft is not an error
func (db *DB) DeleteDraft(ctx context.Context, sessionID string) error {
	_, err := db.ExecContext(ctx, "DELETE FROM drafts WHERE session_id = ?", sessionID)
	return err
}

// DeleteExpiredDrafts removes drafts that expired at or before now
func (db *DB) DeleteExpiredDrafts(ctx context.Context, now time.Time) (int64, error) {
	res, err := db.ExecContext(ctx, "DELETE FROM drafts WHERE expires_at <= ?", now.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
