package server

import (
	"context"
	"net/http"
)

type contextKey string

const (
	userIDKey   contextKey = "user_id"
	userRoleKey contextKey = "user_role"
)

// identity reads the caller's identity from the opaque headers set by the
// authentication layer in front of this service. Absent headers mean an
// anonymous caller with the default role.
func identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if id := r.Header.Get("X-User-ID"); id != "" {
			ctx = context.WithValue(ctx, userIDKey, id)
		}
		role := r.Header.Get("X-User-Role")
		if role == "" {
			role = "user"
		}
		ctx = context.WithValue(ctx, userRoleKey, role)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func callerID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}

func callerRole(ctx context.Context) string {
	role, _ := ctx.Value(userRoleKey).(string)
	if role == "" {
		role = "user"
	}
	return role
}
