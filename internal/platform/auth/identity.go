// Package auth extracts the buyer identity from incoming requests. A buyer is
// either an authenticated user (HMAC-signed bearer token) or an anonymous
// session identified by a client-generated header.
package auth

import "context"

// Identity captures the buyer making the current request.
type Identity struct {
	BuyerID   string
	Anonymous bool
}

type contextKey string

const identityContextKey contextKey = "github.com/craftmarket/api/internal/platform/auth/identity"

// WithIdentity stores the identity within the context for downstream
// handlers.
func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity previously stored in context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(Identity)
	if !ok || identity.BuyerID == "" {
		return Identity{}, false
	}
	return identity, true
}
