// Package drafts keeps resumable multi-step form state keyed by session id.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

var ErrNotFound = errors.New("draft not found")

// Draft is the stored form state for one session
type Draft struct {
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
	UpdatedAt time.Time       `json:"updated_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// Store persists drafts with a fixed time to live
type Store interface {
	// Get returns ErrNotFound for unknown or expired sessions
	Get(ctx context.Context, sessionID string) (*Draft, error)
	// Put replaces the whole draft
	Put(ctx context.Context, sessionID string, data map[string]json.RawMessage) (*Draft, error)
	// Merge overwrites the given top-level keys and keeps the rest
	Merge(ctx context.Context, sessionID string, patch map[string]json.RawMessage) (*Draft, error)
	Delete(ctx context.Context, sessionID string) error
	// Purge removes expired drafts and reports how many were removed
	Purge(ctx context.Context) (int64, error)
	// Name identifies the backing store in logs and health output
	Name() string
}
