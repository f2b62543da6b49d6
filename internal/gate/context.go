package gate

import (
	"context"

	"github.com/soley-bot/acadex-sub007/internal/auth"
)

type ctxKey string

const (
	identityKey  ctxKey = "gate.identity"
	requestIDKey ctxKey = "gate.request_id"
)

type identityValue struct {
	user *auth.Identity
	role string
}

// WithIdentity stashes the resolved identity for downstream handlers.
func WithIdentity(ctx context.Context, user *auth.Identity, role string) context.Context {
	return context.WithValue(ctx, identityKey, identityValue{user: user, role: role})
}

// IdentityFrom returns the identity resolved by the gate, if any.
func IdentityFrom(ctx context.Context) (*auth.Identity, string, bool) {
	v, ok := ctx.Value(identityKey).(identityValue)
	if !ok || v.user == nil {
		return nil, "", false
	}
	return v.user, v.role, true
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFrom returns the request ID assigned by the access log middleware.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
