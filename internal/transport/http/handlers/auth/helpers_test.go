package authhandler

import (
	"encoding/json"
	"testing"
)

func extractData(t *testing.T, body []byte) string {
	t.Helper()
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	return string(env.Data)
}
