package middleware

import (
	"context"

	"github.com/tillpoint/tillpoint-backend/internal/rbac"
)

type contextKey string

const (
	ctxUserID      contextKey = "user_id"
	ctxRole        contextKey = "actor_role"
	ctxBusinessID  contextKey = "business_id"
	ctxAuthContext contextKey = "auth_context"
)

func UserIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxUserID).(string); ok {
		return v
	}
	return ""
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// BusinessIDFromContext returns the active business carried in the token, if
// any. Route-level business IDs take precedence over this value.
func BusinessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxBusinessID).(string); ok {
		return v
	}
	return ""
}

// AuthContextFrom returns the resolved permission context for the request's
// principal, or nil when the request is unauthenticated.
func AuthContextFrom(ctx context.Context) *rbac.AuthContext {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxAuthContext).(*rbac.AuthContext); ok {
		return v
	}
	return nil
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithBusinessID injects the active business identifier for downstream handlers.
func WithBusinessID(ctx context.Context, businessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxBusinessID, businessID)
}

// WithAuthContext injects the resolved permission context.
func WithAuthContext(ctx context.Context, authCtx *rbac.AuthContext) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAuthContext, authCtx)
}
