package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/hireportal/internal/db"
	"github.com/hireportal/internal/domain"
	"github.com/hireportal/internal/drafts"
)

func setupTestDraftService(t *testing.T) domain.DraftService {
	t.Helper()
	database, err := db.Init(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewDraftService(drafts.NewSQLiteStore(database, time.Hour), slog.Default())
}

func TestDraftService_Lifecycle(t *testing.T) {
	svc := setupTestDraftService(t)
	ctx := context.Background()

	created, err := svc.CreateDraft(ctx)
	if err != nil {
		t.Fatalf("CreateDraft() error = %v", err)
	}
	if string(created.Data) != "{}" {
		t.Errorf("new draft data = %s, want {}", created.Data)
	}

	if _, err := svc.ReplaceDraft(ctx, created.SessionID, []byte(`{"step":1,"role":"employer"}`)); err != nil {
		t.Fatalf("ReplaceDraft() error = %v", err)
	}
	merged, err := svc.MergeDraft(ctx, created.SessionID, []byte(`{"step":2}`))
	if err != nil {
		t.Fatalf("MergeDraft() error = %v", err)
	}

	var data map[string]any
	json.Unmarshal(merged.Data, &data)
	if data["step"] != float64(2) || data["role"] != "employer" {
		t.Errorf("merged data = %v", data)
	}

	if err := svc.DeleteDraft(ctx, created.SessionID); err != nil {
		t.Fatalf("DeleteDraft() error = %v", err)
	}
	if _, err := svc.GetDraft(ctx, created.SessionID); !domain.IsNotFoundError(err) {
		t.Errorf("expected not found after delete, got %v", err)
	}
}

func TestDraftService_Validation(t *testing.T) {
	svc := setupTestDraftService(t)
	ctx := context.Background()
	valid := "6f1c2a4e-5b7d-4c1e-9f2a-3b4c5d6e7f80"

	tests := []struct {
		name string
		call func() error
	}{
		{"bad id get", func() error { _, err := svc.GetDraft(ctx, "nope"); return err }},
		{"bad id delete", func() error { return svc.DeleteDraft(ctx, "../x") }},
		{"array body", func() error { _, err := svc.ReplaceDraft(ctx, valid, []byte(`[1]`)); return err }},
		{"empty body", func() error { _, err := svc.MergeDraft(ctx, valid, nil); return err }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.call(); !domain.IsValidationError(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
