package requestctx

import "context"

type ctxKey string

const requestIDKey ctxKey = "request_id"

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

type userKey struct{}

// WithEmployeeID stores the authenticated employee id for log correlation.
func WithEmployeeID(ctx context.Context, employeeID string) context.Context {
	return context.WithValue(ctx, userKey{}, employeeID)
}

func GetEmployeeID(ctx context.Context) string {
	if value, ok := ctx.Value(userKey{}).(string); ok {
		return value
	}
	return ""
}
