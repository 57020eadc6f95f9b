package middleware

import (
	"net/http"
	"strings"

	"github.com/policynav/policynav/internal/auth"
	"github.com/policynav/policynav/internal/http/respond"
	"github.com/policynav/policynav/internal/models"
)

// Session verifies a Bearer session token and passes the claims to the next
// handler through the request context. Purpose-scoped tokens are rejected
// here; they are not sessions.
func Session(tokens *auth.TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := bearerClaims(tokens, w, r)
		if !ok {
			return
		}
		if !claims.IsSession() {
			respond.Error(w, http.StatusUnauthorized, "token not valid for this operation")
			return
		}

		next(w, r.WithContext(auth.NewContext(r.Context(), claims)))
	}
}

// Admin is Session plus an explicit role check.
func Admin(tokens *auth.TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return Session(tokens, func(w http.ResponseWriter, r *http.Request) {
		claims, _ := auth.FromContext(r.Context())
		if claims.Role != models.RoleAdmin {
			respond.Error(w, http.StatusForbidden, "unauthorized access")
			return
		}

		next(w, r)
	})
}

func bearerClaims(tokens *auth.TokenManager, w http.ResponseWriter, r *http.Request) (*auth.Claims, bool) {
	header := r.Header.Get("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		respond.Error(w, http.StatusUnauthorized, "missing bearer token")
		return nil, false
	}

	claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid or expired token")
		return nil, false
	}

	return claims, true
}
