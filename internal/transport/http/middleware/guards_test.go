package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecureHeaders(t *testing.T) {
	tests := []struct {
		name     string
		prod     bool
		wantHSTS bool
	}{
		{name: "development", prod: false, wantHSTS: false},
		{name: "production", prod: true, wantHSTS: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			SecureHeaders(tt.prod)(noContent).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			assert.Equal(t, tt.wantHSTS, rec.Header().Get("Strict-Transport-Security") != "")
		})
	}
}

func TestBodyLimit(t *testing.T) {
	readAll := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	limited := BodyLimit(8)(readAll)

	tests := []struct {
		name    string
		method  string
		body    string
		chunked bool
		want    int
	}{
		{name: "small post", method: http.MethodPost, body: "1234", want: http.StatusNoContent},
		{name: "declared oversize", method: http.MethodPut, body: "123456789", want: http.StatusRequestEntityTooLarge},
		{name: "undeclared oversize", method: http.MethodPost, body: "123456789", chunked: true, want: http.StatusBadRequest},
		{name: "get ignored", method: http.MethodGet, body: "123456789", want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/", strings.NewReader(tt.body))
			if tt.chunked {
				req.ContentLength = -1
			}
			rec := httptest.NewRecorder()
			limited.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
