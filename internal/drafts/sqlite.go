package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hireportal/internal/db"
)

// SQLiteStore keeps drafts in the gateway database
type SQLiteStore struct {
	db  *db.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteStore creates a draft store on top of database
func NewSQLiteStore(database *db.DB, ttl time.Duration) *SQLiteStore {
	return &SQLiteStore{db: database, ttl: ttl, now: time.Now}
}

func (s *SQLiteStore) Name() string { return "sqlite" }

func (s *SQLiteStore) Get(ctx context.Context, sessionID string) (*Draft, error) {
	d, err := s.db.GetDraft(ctx, sessionID, s.now())
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load draft: %w", err)
	}
	return &Draft{
		SessionID: d.SessionID,
		Data:      json.RawMessage(d.Data),
		UpdatedAt: d.UpdatedAt,
		ExpiresAt: d.ExpiresAt,
	}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, sessionID string, data map[string]json.RawMessage) (*Draft, error) {
	if data == nil {
		data = map[string]json.RawMessage{}
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	d := &db.Draft{
		SessionID: sessionID,
		Data:      encoded,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.db.UpsertDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return &Draft{SessionID: sessionID, Data: encoded, UpdatedAt: now, ExpiresAt: d.ExpiresAt}, nil
}

func (s *SQLiteStore) Merge(ctx context.Context, sessionID string, patch map[string]json.RawMessage) (*Draft, error) {
	now := s.now().UTC()
	expiresAt := now.Add(s.ttl)
	merged, err := s.db.MergeDraft(ctx, sessionID, patch, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to merge draft: %w", err)
	}
	encoded, err := json.Marshal(merged)
	if err != nil {
		return nil, err
	}
	return &Draft{SessionID: sessionID, Data: encoded, UpdatedAt: now, ExpiresAt: expiresAt}, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, sessionID string) error {
	return s.db.DeleteDraft(ctx, sessionID)
}

func (s *SQLiteStore) Purge(ctx context.Context) (int64, error) {
	return s.db.DeleteExpiredDrafts(ctx, s.now())
}
