package http

import (
	"context"
	"net/http"

	context_ "github.com/mkrupp/bestiary/internal/infra/context"
)

// Authenticator resolves the Authorization header of a request to a user id.
// It returns 0 for a missing, malformed or invalid credential.
type Authenticator interface {
	UserIDFromAuthorization(ctx context.Context, authorization string) int64
}

// AuthenticatingMiddleware resolves the caller once per request and stores the
// result (0 for anonymous) in the request context. It never rejects a request;
// handlers decide whether an anonymous caller is acceptable.
func AuthenticatingMiddleware(auth Authenticator) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := auth.UserIDFromAuthorization(r.Context(), r.Header.Get("Authorization"))

			next.ServeHTTP(w, r.WithContext(context_.WithUserID(r.Context(), userID)))
		})
	}
}
