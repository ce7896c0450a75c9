package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ems/internal/domain/auth"
)

func TestRequestHashDeterministic(t *testing.T) {
	hash1 := RequestHash([]byte("payload"))
	hash2 := RequestHash([]byte("payload"))
	hash3 := RequestHash([]byte("other"))

	if hash1 != hash2 {
		t.Fatal("expected deterministic hash")
	}
	if hash1 == hash3 {
		t.Fatal("expected different hash for different payload")
	}
}

func idempotentRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/leave/requests", bytes.NewBufferString(body))
	req.Header.Set("Idempotency-Key", "key-1")
	return req.WithContext(WithUser(req.Context(), auth.UserContext{EmployeeID: "e1", Role: auth.RoleEmployee}))
}

func TestIdempotentStoresFirstResponse(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	body := `{"leave_type":"sick"}`
	hash := RequestHash([]byte(body))
	mock.ExpectQuery(regexp.QuoteMeta(selectIdempotencySQL)).
		WithArgs("e1", "key-1", "leave.create").
		WillReturnRows(pgxmock.NewRows([]string{"request_hash", "status_code", "response_body"}))
	mock.ExpectExec(regexp.QuoteMeta(insertIdempotencySQL)).
		WithArgs("e1", "key-1", "leave.create", hash, http.StatusCreated, []byte(`{"ok":true}`)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	calls := 0
	handler := Idempotent(NewIdempotencyStore(mock), "leave.create")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(body))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotentReplaysAndRejectsConflicts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	body := `{"leave_type":"sick"}`
	mock.ExpectQuery(regexp.QuoteMeta(selectIdempotencySQL)).
		WithArgs("e1", "key-1", "leave.create").
		WillReturnRows(pgxmock.NewRows([]string{"request_hash", "status_code", "response_body"}).
			AddRow(RequestHash([]byte(body)), http.StatusCreated, []byte(`{"ok":true}`)))
	mock.ExpectQuery(regexp.QuoteMeta(selectIdempotencySQL)).
		WithArgs("e1", "key-1", "leave.create").
		WillReturnRows(pgxmock.NewRows([]string{"request_hash", "status_code", "response_body"}).
			AddRow(RequestHash([]byte(body)), http.StatusCreated, []byte(`{"ok":true}`)))

	handler := Idempotent(NewIdempotencyStore(mock), "leave.create")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for a stored key")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(body))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("Idempotent-Replayed"))
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, idempotentRequest(`{"leave_type":"vacation"}`))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
