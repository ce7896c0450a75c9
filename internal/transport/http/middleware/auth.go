package middleware

import (
	"context"
	"net/http"
	"strings"

	"ems/internal/domain/auth"
	"ems/internal/platform/requestctx"
)

type ctxKey string

const ctxKeyUser ctxKey = "user"

// Authenticator resolves a bearer token to a live session identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (auth.UserContext, error)
}

// Auth attaches the user only when the token verifies and its session is
// live. Requests without a valid token pass through anonymously.
func Auth(authn Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" || authn == nil {
				next.ServeHTTP(w, r)
				return
			}

			user, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyUser, user)
			ctx = requestctx.WithEmployeeID(ctx, user.EmployeeID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(header string) string {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}

func GetUser(ctx context.Context) (auth.UserContext, bool) {
	user, ok := ctx.Value(ctxKeyUser).(auth.UserContext)
	return user, ok
}

// WithUser attaches user to ctx. Handler tests use it to skip token setup.
func WithUser(ctx context.Context, user auth.UserContext) context.Context {
	return context.WithValue(ctx, ctxKeyUser, user)
}
