package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hireportal/internal/domain"
	"github.com/hireportal/internal/drafts"
	"github.com/hireportal/internal/validation"
)

// draftService implements the DraftService interface
type draftService struct {
	store  drafts.Store
	logger *slog.Logger
}

// NewDraftService creates a draft service over store
func NewDraftService(store drafts.Store, logger *slog.Logger) domain.DraftService {
	return &draftService{
		store:  store,
		logger: logger,
	}
}

// CreateDraft allocates a new empty draft
func (s *draftService) CreateDraft(ctx context.Context) (*domain.Draft, error) {
	sessionID := uuid.New().String()
	d, err := s.store.Put(ctx, sessionID, nil)
	if err != nil {
		return nil, s.storeError(ctx, "create", sessionID, err)
	}
	s.logger.DebugContext(ctx, "draft created", "session_id", sessionID, "store", s.store.Name())
	return toDomainDraft(d), nil
}

// GetDraft returns the draft for sessionID
func (s *draftService) GetDraft(ctx context.Context, sessionID string) (*domain.Draft, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, domain.NewValidationError(err.Error(), err)
	}
	d, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, s.storeError(ctx, "get", sessionID, err)
	}
	return toDomainDraft(d), nil
}

// ReplaceDraft overwrites the draft with body, which must be a JSON object
func (s *draftService) ReplaceDraft(ctx context.Context, sessionID string, body []byte) (*domain.Draft, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, domain.NewValidationError(err.Error(), err)
	}
	fields, err := validation.ValidateDraftData(body)
	if err != nil {
		return nil, domain.NewValidationError(err.Error(), err)
	}
	d, err := s.store.Put(ctx, sessionID, fields)
	if err != nil {
		return nil, s.storeError(ctx, "replace", sessionID, err)
	}
	return toDomainDraft(d), nil
}

// MergeDraft overwrites the top-level keys present in body
func (s *draftService) MergeDraft(ctx context.Context, sessionID string, body []byte) (*domain.Draft, error) {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return nil, domain.NewValidationError(err.Error(), err)
	}
	fields, err := validation.ValidateDraftData(body)
	if err != nil {
		return nil, domain.NewValidationError(err.Error(), err)
	}
	d, err := s.store.Merge(ctx, sessionID, fields)
	if err != nil {
		return nil, s.storeError(ctx, "merge", sessionID, err)
	}
	return toDomainDraft(d), nil
}

// DeleteDraft removes the draft; unknown sessions are not an error
func (s *draftService) DeleteDraft(ctx context.Context, sessionID string) error {
	if err := validation.ValidateSessionID(sessionID); err != nil {
		return domain.NewValidationError(err.Error(), err)
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return s.storeError(ctx, "delete", sessionID, err)
	}
	return nil
}

func (s *draftService) storeError(ctx context.Context, op, sessionID string, err error) error {
	if errors.Is(err, drafts.ErrNotFound) {
		return domain.ErrDraftNotFound
	}
	s.logger.ErrorContext(ctx, "draft store failed",
		"op", op,
		"session_id", sessionID,
		"store", s.store.Name(),
		"error", err,
	)
	return domain.NewInternalError("failed to access draft store", err)
}

func toDomainDraft(d *drafts.Draft) *domain.Draft {
	out := &domain.Draft{SessionID: d.SessionID, Data: d.Data}
	if len(out.Data) == 0 {
		out.Data = []byte("{}")
	}
	if !d.ExpiresAt.IsZero() {
		out.ExpiresAt = d.ExpiresAt.UTC().Format(time.RFC3339)
	}
	return out
}
