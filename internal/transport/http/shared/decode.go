package shared

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"ems/internal/transport/http/api"
	"ems/internal/transport/http/middleware"
)

var structValidator = newStructValidator()

func newStructValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateStruct runs the validate tags of payload and returns one issue
// per failing field.
func ValidateStruct(payload any) []ValidationIssue {
	err := structValidator.Struct(payload)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []ValidationIssue{{Field: "", Reason: err.Error()}}
	}
	v := NewValidator()
	for _, fe := range fieldErrs {
		v.Add(fe.Field(), issueReason(fe))
	}
	return v.Issues()
}

func issueReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of " + fe.Param()
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "uuid":
		return "must be a valid id"
	case "datetime":
		return "must be a valid date in YYYY-MM-DD format"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

// DecodeJSON decodes the body into dst and validates it. On failure the
// response is written and false is returned.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	reqID := middleware.GetRequestID(r.Context())
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return false
	}
	if issues := ValidateStruct(dst); len(issues) > 0 {
		FailValidation(w, reqID, issues)
		return false
	}
	return true
}
