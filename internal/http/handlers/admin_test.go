package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policynav/policynav/internal/models"
)

func adminToken(t *testing.T, env *testEnv) string {
	t.Helper()
	require.NoError(t, env.authService.EnsureAdmin(context.Background(), "root@example.com", "Bootstrap99"))

	token, err := env.tokens.IssueSession("root@example.com", "admin", models.RoleAdmin)
	require.NoError(t, err)
	return token
}

func TestAdminUsersEndpoint_List(t *testing.T) {
	env := newTestEnv(t)
	token := adminToken(t, env)
	env.signup(t, "alice@example.com")

	rec := env.do(t, http.MethodGet, "/api/admin/users", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "alice@example.com")
	assert.Contains(t, rec.Body.String(), "root@example.com")
	// Hashes are never serialized
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestAdminUsersEndpoint_RequiresAdminRole(t *testing.T) {
	env := newTestEnv(t)
	userToken := env.signup(t, "alice@example.com")

	rec := env.do(t, http.MethodGet, "/api/admin/users", nil, userToken)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/admin/users", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminUsersEndpoint_Delete(t *testing.T) {
	env := newTestEnv(t)
	token := adminToken(t, env)
	env.signup(t, "alice@example.com")

	rec := env.do(t, http.MethodDelete, "/api/admin/users", map[string]string{"email": "alice@example.com"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, ok := env.users.users["alice@example.com"]
	assert.False(t, ok)

	// Admin accounts are protected
	rec = env.do(t, http.MethodDelete, "/api/admin/users", map[string]string{"email": "root@example.com"}, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := adminToken(t, env)
	env.signup(t, "alice@example.com")

	until := time.Now().Add(5 * time.Minute)
	env.users.users["alice@example.com"].LockUntil = &until

	rec := env.do(t, http.MethodGet, "/api/admin/stats", nil, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"total_users":2`)
	assert.Contains(t, rec.Body.String(), `"locked_accounts":1`)
}

func TestAdminUnlockEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := adminToken(t, env)
	env.signup(t, "alice@example.com")

	until := time.Now().Add(5 * time.Minute)
	user := env.users.users["alice@example.com"]
	user.FailedAttempts = 3
	user.LockUntil = &until

	rec := env.do(t, http.MethodPost, "/api/admin/unlock", map[string]string{"email": "alice@example.com"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Zero(t, user.FailedAttempts)
	assert.Nil(t, user.LockUntil)

	rec = env.do(t, http.MethodPost, "/api/admin/unlock", map[string]string{"email": "ghost@example.com"}, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminPromoteEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := adminToken(t, env)
	env.signup(t, "alice@example.com")

	rec := env.do(t, http.MethodPost, "/api/admin/promote", map[string]string{"email": "alice@example.com"}, token)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.RoleAdmin, env.users.users["alice@example.com"].Role)

	rec = env.do(t, http.MethodPost, "/api/admin/promote", map[string]string{"email": "alice@example.com"}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminEndpoints_MissingEmail(t *testing.T) {
	env := newTestEnv(t)
	token := adminToken(t, env)

	rec := env.do(t, http.MethodPost, "/api/admin/unlock", map[string]string{}, token)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
