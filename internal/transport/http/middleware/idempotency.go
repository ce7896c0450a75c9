package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"ems/internal/platform/querier"
	"ems/internal/transport/http/api"
)

var ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")

const (
	selectIdempotencySQL = `
    SELECT request_hash, status_code, response_body
    FROM idempotency_keys
    WHERE employee_id = $1 AND key = $2 AND endpoint = $3
  `
	insertIdempotencySQL = `
    INSERT INTO idempotency_keys (employee_id, key, endpoint, request_hash, status_code, response_body)
    VALUES ($1, $2, $3, $4, $5, $6)
    ON CONFLICT (employee_id, key, endpoint)
    DO UPDATE SET response_body = EXCLUDED.response_body, status_code = EXCLUDED.status_code
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
  `
)

type IdempotencyStore struct {
	db querier.Querier
}

func NewIdempotencyStore(db querier.Querier) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// StoredResponse is a response replayed for a repeated key.
type StoredResponse struct {
	Status int
	Body   []byte
}

func (s *IdempotencyStore) Check(ctx context.Context, employeeID, endpoint, key, requestHash string) (StoredResponse, bool, error) {
	if s == nil || s.db == nil {
		return StoredResponse{}, false, nil
	}
	var storedHash string
	var stored StoredResponse
	err := s.db.QueryRow(ctx, selectIdempotencySQL, employeeID, key, endpoint).Scan(&storedHash, &stored.Status, &stored.Body)
	if querier.IsNoRows(err) {
		return StoredResponse{}, false, nil
	}
	if err != nil {
		return StoredResponse{}, false, err
	}
	if storedHash != requestHash {
		return StoredResponse{}, false, ErrIdempotencyConflict
	}
	return stored, true, nil
}

func (s *IdempotencyStore) Save(ctx context.Context, employeeID, endpoint, key, requestHash string, resp StoredResponse) error {
	if s == nil || s.db == nil {
		return nil
	}
	tag, err := s.db.Exec(ctx, insertIdempotencySQL, employeeID, key, endpoint, requestHash, resp.Status, resp.Body)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

type captureWriter struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	c.body.Write(p)
	return c.ResponseWriter.Write(p)
}

// Idempotent replays the stored response when an authenticated caller
// repeats an Idempotency-Key with the same body. Reusing a key with a
// different body is a 409. Only 2xx responses are stored.
func Idempotent(store *IdempotencyStore, endpoint string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := r.Header.Get("Idempotency-Key")
			user, ok := GetUser(r.Context())
			if key == "" || !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			reqID := GetRequestID(r.Context())

			body, err := io.ReadAll(r.Body)
			if err != nil {
				api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))
			hash := RequestHash(body)

			stored, found, err := store.Check(r.Context(), user.EmployeeID, endpoint, key, hash)
			if errors.Is(err, ErrIdempotencyConflict) {
				api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key reused with a different payload", reqID)
				return
			}
			if err != nil {
				slog.Error("idempotency lookup failed", "endpoint", endpoint, "requestId", reqID, "err", err)
				api.Fail(w, http.StatusInternalServerError, "idempotency_failed", "failed to check idempotency key", reqID)
				return
			}
			if found {
				w.Header().Set("Content-Type", "application/json")
				w.Header().Set("Idempotent-Replayed", "true")
				w.WriteHeader(stored.Status)
				_, _ = w.Write(stored.Body)
				return
			}

			capture := &captureWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			if capture.status < 200 || capture.status >= 300 {
				return
			}
			resp := StoredResponse{Status: capture.status, Body: capture.body.Bytes()}
			if err := store.Save(r.Context(), user.EmployeeID, endpoint, key, hash, resp); err != nil {
				slog.Warn("idempotency save failed", "endpoint", endpoint, "requestId", reqID, "err", err)
			}
		})
	}
}
