package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/policynav/policynav/internal/auth"
	"github.com/policynav/policynav/internal/http/respond"
	"github.com/policynav/policynav/internal/models"
	"github.com/policynav/policynav/internal/ratelimit"
	"github.com/policynav/policynav/internal/service"
	"github.com/policynav/policynav/pkg/errors"
)

// In-memory stand-ins for the storage and mail layers so handler tests
// exercise the full service path over HTTP.

type memUserRepo struct {
	users   map[string]*models.User
	history map[int][]models.PasswordHistoryEntry
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{
		users:   map[string]*models.User{},
		history: map[int][]models.PasswordHistoryEntry{},
	}
}

func (m *memUserRepo) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.users[user.Email]; ok {
		return errors.ErrUserAlreadyExists
	}
	user.ID = len(m.users) + 1
	user.CreatedAt = time.Now()
	m.users[user.Email] = user
	m.history[user.ID] = append(m.history[user.ID], models.PasswordHistoryEntry{
		UserID:       user.ID,
		PasswordHash: user.PasswordHash,
	})
	return nil
}

func (m *memUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := m.users[email]
	if !ok {
		return nil, errors.ErrUserNotFound
	}
	copied := *user
	return &copied, nil
}

func (m *memUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, user := range m.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, errors.ErrUserNotFound
}

func (m *memUserRepo) List(ctx context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, user := range m.users {
		copied := *user
		out = append(out, &copied)
	}
	return out, nil
}

func (m *memUserRepo) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	user, ok := m.users[email]
	if !ok {
		return errors.ErrUserNotFound
	}
	user.PasswordHash = passwordHash
	m.history[user.ID] = append(m.history[user.ID], models.PasswordHistoryEntry{
		UserID:       user.ID,
		PasswordHash: passwordHash,
	})
	return nil
}

func (m *memUserRepo) PasswordHistory(ctx context.Context, userID int) ([]models.PasswordHistoryEntry, error) {
	return m.history[userID], nil
}

func (m *memUserRepo) UpdateLastLogin(ctx context.Context, email string) error {
	if user, ok := m.users[email]; ok {
		now := time.Now()
		user.LastLogin = &now
		user.FailedAttempts = 0
		user.LockUntil = nil
	}
	return nil
}

func (m *memUserRepo) IncrementFailedAttempts(ctx context.Context, email string) (int, error) {
	user, ok := m.users[email]
	if !ok {
		return 0, errors.ErrUserNotFound
	}
	user.FailedAttempts++
	return user.FailedAttempts, nil
}

func (m *memUserRepo) ResetFailedAttempts(ctx context.Context, email string) error {
	if user, ok := m.users[email]; ok {
		user.FailedAttempts = 0
		user.LockUntil = nil
	}
	return nil
}

func (m *memUserRepo) LockUntil(ctx context.Context, email string, until time.Time) error {
	if user, ok := m.users[email]; ok {
		u := until
		user.LockUntil = &u
	}
	return nil
}

func (m *memUserRepo) SetRole(ctx context.Context, email, role string) error {
	user, ok := m.users[email]
	if !ok {
		return errors.ErrUserNotFound
	}
	user.Role = role
	return nil
}

func (m *memUserRepo) Delete(ctx context.Context, email string) error {
	if _, ok := m.users[email]; !ok {
		return errors.ErrUserNotFound
	}
	delete(m.users, email)
	return nil
}

func (m *memUserRepo) Stats(ctx context.Context) (*models.UserStats, error) {
	stats := &models.UserStats{TotalUsers: len(m.users)}
	for _, user := range m.users {
		if user.Locked(time.Now()) {
			stats.LockedAccounts++
		}
	}
	return stats, nil
}

type memOtpRepo struct {
	records map[string]*models.OtpRecord
}

func newMemOtpRepo() *memOtpRepo {
	return &memOtpRepo{records: map[string]*models.OtpRecord{}}
}

func (m *memOtpRepo) Get(ctx context.Context, email string) (*models.OtpRecord, error) {
	record, ok := m.records[email]
	if !ok {
		return nil, errors.ErrOtpNotFound
	}
	copied := *record
	return &copied, nil
}

func (m *memOtpRepo) Replace(ctx context.Context, record *models.OtpRecord) error {
	copied := *record
	m.records[record.Email] = &copied
	return nil
}

func (m *memOtpRepo) IncrementAttempts(ctx context.Context, email string) error {
	if record, ok := m.records[email]; ok {
		record.Attempts++
	}
	return nil
}

func (m *memOtpRepo) Delete(ctx context.Context, email string) error {
	delete(m.records, email)
	return nil
}

type memMailer struct {
	lastCode string
	sendErr  error
}

func (m *memMailer) SendOtp(ctx context.Context, to, code string) error {
	if m.sendErr != nil {
		return m.sendErr
	}
	m.lastCode = code
	return nil
}

// testEnv bundles everything a handler test touches.
type testEnv struct {
	mux    *http.ServeMux
	users  *memUserRepo
	otps   *memOtpRepo
	mailer *memMailer
	tokens *auth.TokenManager

	authService  *service.AuthService
	otpService   *service.OtpService
	adminService *service.AdminService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		mux:    http.NewServeMux(),
		users:  newMemUserRepo(),
		otps:   newMemOtpRepo(),
		mailer: &memMailer{},
		tokens: auth.NewTokenManager("handler-test-secret", 30*time.Minute),
	}

	env.authService = service.NewAuthService(env.users, env.tokens, nil)
	env.otpService = service.NewOtpService(env.otps, env.mailer, nil)
	env.adminService = service.NewAdminService(env.users, nil)

	limiter := ratelimit.NewLimiter(1000, 1000)
	NewAuthHandler(env.authService, env.otpService, env.tokens, limiter).Register(env.mux)
	NewAdminHandler(env.adminService, env.tokens).Register(env.mux)

	return env
}

// signup runs the real signup endpoint and returns the session token.
func (env *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	rec := env.postJSON(t, "/api/signup", models.SignupRequest{
		Username:         "alice",
		Email:            email,
		Password:         "Sunshine42",
		ConfirmPassword:  "Sunshine42",
		SecurityQuestion: "First pet?",
		SecurityAnswer:   "Rex",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token)
	return resp.Data.Token
}

func (env *testEnv) postJSON(t *testing.T, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	return env.do(t, http.MethodPost, path, payload, "")
}

func (env *testEnv) do(t *testing.T, method, path string, payload any, bearer string) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	env.mux.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) respond.Envelope {
	t.Helper()
	var env respond.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}
