package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"notevault-ai/internal/insight"
	"notevault-ai/internal/service"
)

type stubInsightEngine struct {
	lastReq insight.Request
	resp    insight.Response
	err     error
}

func (s *stubInsightEngine) Generate(_ context.Context, req insight.Request) (insight.Response, error) {
	s.lastReq = req
	return s.resp, s.err
}

func TestInsightHandler(t *testing.T) {
	engine := &stubInsightEngine{
		resp: insight.Response{
			Answer:     "You spent most of April planning the Japan trip.",
			References: []string{"n1", "n2"},
		},
	}
	handler := NewInsightHandler(engine)

	body := bytes.NewBufferString(`{"query": "what were my travel plans?", "primary_tag": "Travel", "start_date": "2026-04-01", "max_notes": 3}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/insights", body)
	req.Header.Set("X-User-ID", "u1")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	if engine.lastReq.UserID != "u1" {
		t.Errorf("user = %v, want u1", engine.lastReq.UserID)
	}
	if engine.lastReq.Query != "what were my travel plans?" {
		t.Errorf("query = %v", engine.lastReq.Query)
	}
	if engine.lastReq.PrimaryTag != "Travel" {
		t.Errorf("primaryTag = %v, want Travel", engine.lastReq.PrimaryTag)
	}
	if engine.lastReq.StartDate == nil || engine.lastReq.StartDate.Format("2006-01-02") != "2026-04-01" {
		t.Errorf("startDate = %v, want 2026-04-01", engine.lastReq.StartDate)
	}
	if engine.lastReq.MaxNotes != 3 {
		t.Errorf("maxNotes = %d, want 3", engine.lastReq.MaxNotes)
	}

	var resp InsightResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Answer != engine.resp.Answer {
		t.Errorf("answer = %v", resp.Answer)
	}
	if len(resp.References) != 2 || resp.References[0] != "n1" {
		t.Errorf("references = %v, want [n1 n2]", resp.References)
	}
}

func TestInsightHandler_BadInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"query":`},
		{"missing query", `{"primary_tag": "Travel"}`},
		{"bad start date", `{"query": "q", "start_date": "April 1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &stubInsightEngine{}
			handler := NewInsightHandler(engine)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/insights", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestInsightHandler_LLMFailure(t *testing.T) {
	engine := &stubInsightEngine{err: service.WrapError(service.ErrExternalService, "failed to generate insight")}
	handler := NewInsightHandler(engine)

	body := bytes.NewBufferString(`{"query": "anything"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/insights", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
}
