package contextx

import (
	"context"

	"github.com/platformkit/identity-service/internal/token"
)

// key is a private type to avoid collisions in request context keys.
type key string

// claimsKey is the context key under which the access guard stores the
// decoded session claims for the current request.
const claimsKey key = "sessionClaims"

// ClaimsKey exposes the claims key for adapters that set context values
// through their own APIs (e.g. huma.WithValue) instead of WithClaims.
func ClaimsKey() any { return claimsKey }

// WithClaims returns a context carrying the decoded session claims.
func WithClaims(ctx context.Context, c *token.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFrom extracts the session claims attached by the access guard.
// The second return is false on unguarded requests.
func ClaimsFrom(ctx context.Context) (*token.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*token.Claims)
	return c, ok
}
