package auth

import (
	"net/http"
	"strings"

	"github.com/craftmarket/api/internal/platform/httpx"
)

const (
	bearerPrefix       = "Bearer "
	maxAnonymousIDSize = 64
)

// Middleware resolves the buyer identity for every request. Authenticated
// buyers present a bearer token; anonymous buyers present the configured
// header. Requests carrying neither pass through without an identity and are
// rejected by RequireIdentity on routes that need one.
type Middleware struct {
	verifier        *Verifier
	anonymousHeader string
}

// NewMiddleware constructs the identity middleware.
func NewMiddleware(verifier *Verifier, anonymousHeader string) *Middleware {
	return &Middleware{
		verifier:        verifier,
		anonymousHeader: strings.TrimSpace(anonymousHeader),
	}
}

// Identify extracts the buyer identity and stores it on the request context.
// An invalid bearer token is rejected immediately; a missing one is not.
func (m *Middleware) Identify(next http.Handler) http.Handler {
	if next == nil {
		next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if header := strings.TrimSpace(r.Header.Get("Authorization")); header != "" {
			if !strings.HasPrefix(header, bearerPrefix) {
				httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "malformed authorization header", http.StatusUnauthorized))
				return
			}
			if m.verifier == nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "token verification unavailable", http.StatusUnauthorized))
				return
			}
			identity, err := m.verifier.Verify(strings.TrimPrefix(header, bearerPrefix))
			if err != nil {
				httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "invalid bearer token", http.StatusUnauthorized))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
			return
		}

		if m.anonymousHeader != "" {
			if anonymousID := sanitizeAnonymousID(r.Header.Get(m.anonymousHeader)); anonymousID != "" {
				identity := Identity{BuyerID: anonymousID, Anonymous: true}
				next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// RequireIdentity rejects requests that carry no buyer identity.
func RequireIdentity(next http.Handler) http.Handler {
	if next == nil {
		next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := IdentityFromContext(r.Context()); !ok {
			httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "buyer identity is required", http.StatusUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAuthenticated rejects anonymous and unidentified requests.
func RequireAuthenticated(next http.Handler) http.Handler {
	if next == nil {
		next = http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok || identity.Anonymous {
			httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "authenticated buyer is required", http.StatusUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func sanitizeAnonymousID(value string) string {
	value = strings.TrimSpace(value)
	if len(value) > maxAnonymousIDSize {
		value = value[:maxAnonymousIDSize]
	}
	for _, r := range value {
		if r < 0x21 || r > 0x7e {
			return ""
		}
	}
	return value
}
