package auth

import (
	"net/http"
	"strings"

	"github.com/shelfline/shelfline/internal/platform/httpx"
	"github.com/shelfline/shelfline/internal/shared"
)

// Middleware is the gate in front of protected routes. It verifies the
// bearer token locally (no store lookup) and injects the decoded identity
// into the request context. Absent and invalid tokens both answer 403,
// preserving the externally visible behavior of the original API.
type Middleware struct {
	tokens *TokenService
}

// NewMiddleware constructs the auth gate.
func NewMiddleware(tokens *TokenService) *Middleware {
	return &Middleware{tokens: tokens}
}

// RequireAuth rejects requests without a valid session token.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "access denied")
			return
		}

		claims, err := m.tokens.Verify(token, PurposeSession)
		if err != nil {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "invalid token")
			return
		}

		ctx := shared.ContextWithIdentity(r.Context(), shared.Identity{
			UserID:   claims.UserID,
			Username: claims.Username,
			Email:    claims.Email,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
