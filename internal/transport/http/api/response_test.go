package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFailWithDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FailWithDetails(rec, http.StatusBadRequest, "validation_error", "name is required", map[string]any{"field": "name"}, "req-1")

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var env struct {
		Success bool `json:"success"`
		Error   struct {
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"error"`
		RequestID string `json:"requestId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Success || env.Error.Code != "validation_error" || env.Error.Details["field"] != "name" || env.RequestID != "req-1" {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestSuccessOmitsError(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"ok": "yes"}, "")
	if rec.Header().Get("Content-Type") != "application/json" {
		t.Fatalf("unexpected content type %q", rec.Header().Get("Content-Type"))
	}
	if got := rec.Body.String(); got != `{"success":true,"data":{"ok":"yes"}}`+"\n" {
		t.Fatalf("unexpected body %q", got)
	}
}

func TestAttachmentHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	Attachment(rec, "application/pdf", "attendance report.pdf", []byte("%PDF"))

	if got := rec.Header().Get("Content-Disposition"); got != `attachment; filename="attendance report.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if rec.Header().Get("Content-Length") != "4" || rec.Body.String() != "%PDF" {
		t.Fatalf("unexpected body %q", rec.Body.String())
	}
}
