package domain

import (
	"context"
	"encoding/json"

	"github.com/hireportal/internal/db"
)

// ============================================================================
// Primary Ports (Use Cases)
// ============================================================================

// CompanyService serves the public company directory
type CompanyService interface {
	ListCompanies(ctx context.Context, search string, page PageRequest) (Page[*db.Company], error)
	GetCompany(ctx context.Context, id string) (*db.Company, error)
}

// DraftService manages resumable form drafts
type DraftService interface {
	CreateDraft(ctx context.Context) (*Draft, error)
	GetDraft(ctx context.Context, sessionID string) (*Draft, error)
	ReplaceDraft(ctx context.Context, sessionID string, body []byte) (*Draft, error)
	MergeDraft(ctx context.Context, sessionID string, body []byte) (*Draft, error)
	DeleteDraft(ctx context.Context, sessionID string) error
}

// ============================================================================
// Secondary Ports (Infrastructure)
// ============================================================================

// CompanyRepository is the company directory the gateway serves from its own store
type CompanyRepository interface {
	ListCompanies(ctx context.Context, filter db.CompanyFilter) ([]*db.Company, int, error)
	GetCompany(ctx context.Context, id string) (*db.Company, error)
}

// ============================================================================
// DTOs
// ============================================================================

// Draft is the draft representation returned to clients
type Draft struct {
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data"`
	ExpiresAt string          `json:"expires_at,omitempty"`
}
