package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policynav/policynav/internal/auth"
	"github.com/policynav/policynav/internal/models"
)

func newTokens() *auth.TokenManager {
	return auth.NewTokenManager("middleware-test-secret", 30*time.Minute)
}

func runMiddleware(handler http.HandlerFunc, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestSession_PassesClaimsToHandler(t *testing.T) {
	tokens := newTokens()
	token, err := tokens.IssueSession("alice@example.com", "alice", models.RoleUser)
	require.NoError(t, err)

	var got *auth.Claims
	handler := Session(tokens, func(w http.ResponseWriter, r *http.Request) {
		got, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	rec := runMiddleware(handler, token)
	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, got)
	assert.Equal(t, "alice@example.com", got.Subject)
	assert.Equal(t, "alice", got.Username)
}

func TestSession_MissingOrMalformedHeader(t *testing.T) {
	tokens := newTokens()
	handler := Session(tokens, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	rec := runMiddleware(handler, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	rec = httptest.NewRecorder()
	handler(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSession_RejectsInvalidToken(t *testing.T) {
	tokens := newTokens()
	handler := Session(tokens, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	rec := runMiddleware(handler, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSession_RejectsPurposeScopedToken(t *testing.T) {
	tokens := newTokens()
	resetToken, err := tokens.IssueResetToken("alice@example.com")
	require.NoError(t, err)

	handler := Session(tokens, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run")
	})

	rec := runMiddleware(handler, resetToken)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not valid for this operation")
}

func TestAdmin_RoleGate(t *testing.T) {
	tokens := newTokens()

	adminToken, err := tokens.IssueSession("root@example.com", "admin", models.RoleAdmin)
	require.NoError(t, err)
	userToken, err := tokens.IssueSession("alice@example.com", "alice", models.RoleUser)
	require.NoError(t, err)

	ran := false
	handler := Admin(tokens, func(w http.ResponseWriter, r *http.Request) {
		ran = true
		w.WriteHeader(http.StatusOK)
	})

	rec := runMiddleware(handler, adminToken)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ran)

	rec = runMiddleware(handler, userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "unauthorized access")
}
