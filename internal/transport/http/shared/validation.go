package shared

import (
	"cmp"
	"net/http"
	"slices"
	"strings"
	"time"

	"ems/internal/domain/calendar"
	"ems/internal/transport/http/api"
)

type ValidationIssue struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// Validator collects query-string issues that struct tags cannot express,
// such as date ranges.
type Validator struct {
	issues []ValidationIssue
}

func NewValidator() *Validator {
	return &Validator{}
}

func (v *Validator) Add(field, reason string) {
	if reason = strings.TrimSpace(reason); reason == "" {
		return
	}
	v.issues = append(v.issues, ValidationIssue{Field: strings.TrimSpace(field), Reason: reason})
}

// Date parses raw as YYYY-MM-DD.
func (v *Validator) Date(field, raw string) (time.Time, bool) {
	parsed, err := calendar.ParseDay(raw)
	if err != nil {
		v.Add(field, "must be a valid date in YYYY-MM-DD format")
		return time.Time{}, false
	}
	return parsed, true
}

func (v *Validator) DateOrder(startField string, start time.Time, endField string, end time.Time) {
	if start.IsZero() || end.IsZero() || !end.Before(start) {
		return
	}
	v.Add(endField, "must be on or after "+startField)
}

func (v *Validator) HasIssues() bool {
	return len(v.issues) > 0
}

// Issues returns the collected issues sorted by field.
func (v *Validator) Issues() []ValidationIssue {
	if len(v.issues) == 0 {
		return nil
	}
	out := slices.Clone(v.issues)
	slices.SortStableFunc(out, func(a, b ValidationIssue) int {
		return cmp.Or(cmp.Compare(a.Field, b.Field), cmp.Compare(a.Reason, b.Reason))
	})
	return out
}

// Reject writes a validation_error response when issues exist.
func (v *Validator) Reject(w http.ResponseWriter, requestID string) bool {
	if !v.HasIssues() {
		return false
	}
	FailValidation(w, requestID, v.Issues())
	return true
}

func FailValidation(w http.ResponseWriter, requestID string, issues []ValidationIssue) {
	api.FailWithDetails(w, http.StatusBadRequest, "validation_error", "payload validation failed",
		map[string]any{"fields": issues}, requestID)
}
