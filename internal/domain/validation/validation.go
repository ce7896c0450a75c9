package validation

import "errors"

// Error reports a rejected input field. Services return it for anything a
// client can fix by changing the request.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func New(field, message string) error {
	return &Error{Field: field, Message: message}
}

// As extracts a validation error from err.
func As(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
