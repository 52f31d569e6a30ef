package common

import "context"

type ctxKey string

const (
	userIDKey    ctxKey = "auth/user-id"
	userEmailKey ctxKey = "auth/user-email"
	userRoleKey  ctxKey = "auth/user-role"
)

// Principal is the authenticated caller attached to a request.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

// WithPrincipal stores the authenticated caller on the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	ctx = context.WithValue(ctx, userIDKey, p.UserID)
	ctx = context.WithValue(ctx, userEmailKey, p.Email)
	return context.WithValue(ctx, userRoleKey, p.Role)
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(userIDKey).(string)
	return id, ok && id != ""
}

// CurrentPrincipal returns the caller stored by WithPrincipal.
func CurrentPrincipal(ctx context.Context) (Principal, bool) {
	id, ok := UserID(ctx)
	if !ok {
		return Principal{}, false
	}
	email, _ := ctx.Value(userEmailKey).(string)
	role, _ := ctx.Value(userRoleKey).(string)
	return Principal{UserID: id, Email: email, Role: role}, true
}
