package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"notevault-ai/internal/pipeline"
)

type stubReindexer struct {
	err      error
	lastUser string
}

func (s *stubReindexer) Reindex(_ context.Context, userID string) error {
	s.lastUser = userID
	return s.err
}

func TestReindexHandler(t *testing.T) {
	reindexer := &stubReindexer{}
	handler := NewReindexHandler(reindexer)

	body := bytes.NewBufferString(`{"user_id": "u1"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reindex", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if reindexer.lastUser != "u1" {
		t.Errorf("reindex user = %v, want u1", reindexer.lastUser)
	}

	var resp ReindexResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "completed" {
		t.Errorf("status = %v, want completed", resp.Status)
	}
}

func TestReindexHandler_EmptyBodyMeansAllUsers(t *testing.T) {
	reindexer := &stubReindexer{lastUser: "sentinel"}
	handler := NewReindexHandler(reindexer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reindex", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if reindexer.lastUser != "" {
		t.Errorf("reindex user = %q, want empty (all users)", reindexer.lastUser)
	}
}

func TestReindexHandler_PartialFailure(t *testing.T) {
	reindexer := &stubReindexer{err: fmt.Errorf("%w: 2 of 10 notes failed", pipeline.ErrPartialReindex)}
	handler := NewReindexHandler(reindexer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reindex", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for partial failure", rec.Code)
	}
	var resp ReindexResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Status != "completed_with_errors" {
		t.Errorf("status = %v, want completed_with_errors", resp.Status)
	}
}

func TestReindexHandler_StoreFailure(t *testing.T) {
	reindexer := &stubReindexer{err: errors.New("failed to list notes for reindex: disk error")}
	handler := NewReindexHandler(reindexer)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/admin/reindex", http.NoBody)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500 when the rebuild could not run", rec.Code)
	}
}
