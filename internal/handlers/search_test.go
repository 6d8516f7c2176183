package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"notevault-ai/internal/search"
	"notevault-ai/internal/service"
	"notevault-ai/internal/storage"
)

type stubSearcher struct {
	resp    *search.Response
	err     error
	lastReq search.Request
}

func (s *stubSearcher) Search(_ context.Context, req search.Request) (*search.Response, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

func TestSearchHandler(t *testing.T) {
	searcher := &stubSearcher{resp: &search.Response{
		Results: []search.Result{
			{Note: &storage.NoteRecord{ID: "n1", InputType: storage.InputText, ProcessingStatus: storage.StatusCompleted}, Similarity: 0.87},
		},
		Total:    1,
		Page:     1,
		PageSize: 20,
	}}
	handler := NewSearchHandler(searcher)

	body := bytes.NewBufferString(`{"query": "japan", "use_semantic": true, "primary_tag": "Travel", "start_date": "2026-01-01"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", body)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	if searcher.lastReq.UserID != "u1" || !searcher.lastReq.Semantic {
		t.Errorf("coordinator request = %+v, want owner u1 semantic", searcher.lastReq)
	}
	if searcher.lastReq.StartDate == nil || !searcher.lastReq.StartDate.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("coordinator StartDate = %v, want 2026-01-01", searcher.lastReq.StartDate)
	}
	if searcher.lastReq.Page != 1 || searcher.lastReq.PageSize != 20 {
		t.Errorf("coordinator paging = %d/%d, want defaults 1/20", searcher.lastReq.Page, searcher.lastReq.PageSize)
	}

	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Note.ID != "n1" {
		t.Errorf("results = %+v, want one hit for n1", resp.Results)
	}
	if resp.Results[0].Similarity != 0.87 {
		t.Errorf("similarity = %v, want 0.87", resp.Results[0].Similarity)
	}
}

func TestSearchHandler_BadInput(t *testing.T) {
	handler := NewSearchHandler(&stubSearcher{err: &service.ValidationError{Field: "date_range", Message: "start date is after end date"}})

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query": `},
		{"bad date format", `{"start_date": "January 1"}`},
		{"inverted range", `{"start_date": "2026-02-01", "end_date": "2026-01-01"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/search", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestSearchHandler_DegradedStillOK(t *testing.T) {
	searcher := &stubSearcher{resp: &search.Response{
		Results:  []search.Result{},
		Page:     1,
		PageSize: 20,
		Degraded: true,
	}}
	handler := NewSearchHandler(searcher)

	body := bytes.NewBufferString(`{"query": "anything", "use_semantic": true}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for degraded search", rec.Code)
	}
	var resp SearchResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !resp.Degraded {
		t.Error("degraded flag not surfaced")
	}
	if resp.Results == nil {
		t.Error("results should encode as an empty array, not null")
	}
}
