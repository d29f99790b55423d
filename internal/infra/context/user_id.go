package context

import (
	"context"
)

const contextKeyUserID = contextKey("userID")

// UserIDFromContext returns the id of the user authenticated for this request.
// The boolean is false when authentication has not run for the context at all;
// an anonymous request yields (0, true).
func UserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(contextKeyUserID).(int64)

	return userID, ok
}

// WithUserID returns a copy of ctx carrying the resolved user id (0 for anonymous).
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, contextKeyUserID, userID)
}
