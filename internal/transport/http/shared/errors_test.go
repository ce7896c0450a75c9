package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ems/internal/domain/attendance"
	"ems/internal/domain/employees"
	"ems/internal/domain/leave"
	"ems/internal/domain/validation"
)

func TestWriteErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", validation.New("reason", "reason is required"), http.StatusBadRequest, "validation_error"},
		{"overlap", leave.ErrOverlap, http.StatusBadRequest, "leave_overlap"},
		{"invalid state", leave.ErrInvalidState, http.StatusBadRequest, "invalid_state"},
		{"wrapped not found", fmt.Errorf("get: %w", employees.ErrNotFound), http.StatusNotFound, "not_found"},
		{"completed", attendance.ErrAlreadyCompleted, http.StatusConflict, "attendance_completed"},
		{"unknown", errors.New("db down"), http.StatusInternalServerError, "leave_failed"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, httptest.NewRequest(http.MethodGet, "/", nil), tc.err, "leave")
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			var env struct {
				Error struct {
					Code    string `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Error.Code != tc.wantCode {
				t.Fatalf("expected code %q, got %q", tc.wantCode, env.Error.Code)
			}
			if tc.wantStatus == http.StatusInternalServerError && strings.Contains(env.Error.Message, "db down") {
				t.Fatal("internal error details must not leak")
			}
		})
	}
}

type createPayload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"omitempty,oneof=employee admin"`
}

func TestDecodeJSONValidatesTags(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","role":"owner"}`))
	var payload createPayload
	if DecodeJSON(rec, req, &payload) {
		t.Fatal("expected validation failure")
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{`"field":"name"`, `"field":"email"`, `"field":"role"`, "must be one of employee admin"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %s in %s", want, body)
		}
	}
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	var payload createPayload
	if DecodeJSON(rec, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`)), &payload) {
		t.Fatal("expected decode failure")
	}
	if !strings.Contains(rec.Body.String(), "invalid_payload") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}
