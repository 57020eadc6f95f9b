package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/policynav/policynav/internal/audit"
	"github.com/policynav/policynav/internal/auth"
	"github.com/policynav/policynav/internal/models"
	"github.com/policynav/policynav/internal/security"
	"github.com/policynav/policynav/pkg/errors"
	"github.com/policynav/policynav/pkg/validator"
)

const (
	maxFailedAttempts = 3
	lockDuration      = 5 * time.Minute
)

type AuthService struct {
	users       UserRepository
	tokens      *auth.TokenManager
	hasher      *security.PasswordHasher
	validator   *validator.Validator
	auditLogger *audit.Logger
	now         func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(users UserRepository, tokens *auth.TokenManager, auditLogger *audit.Logger) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		hasher:      security.NewPasswordHasher(),
		validator:   validator.New(),
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Signup registers a new user and issues a session token. Account creation
// records the first password history entry.
func (s *AuthService) Signup(ctx context.Context, req *models.SignupRequest) (*models.LoginResponse, error) {
	req.Username = s.validator.SanitizeString(req.Username)
	req.Email = s.validator.NormalizeEmail(req.Email)

	if err := s.validator.ValidateUsername(req.Username); err != nil {
		return nil, err
	}
	if err := s.validator.ValidateEmail(req.Email); err != nil {
		return nil, err
	}
	if ok, feedback := security.CheckRequirements(req.Password); !ok {
		return nil, errors.NewAppError(errors.ErrWeakPassword, strings.Join(feedback, "; "), 400)
	}
	if req.Password != req.ConfirmPassword {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "passwords do not match", 400)
	}
	if err := s.validator.ValidateSecurityAnswer(req.SecurityAnswer); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.SecurityQuestion) == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "security question is mandatory", 400)
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	// Answers compare case-insensitively, so hash the lowercased form
	answerHash, err := s.hasher.Hash(strings.ToLower(strings.TrimSpace(req.SecurityAnswer)))
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:              req.Email,
		Username:           req.Username,
		PasswordHash:       passwordHash,
		SecurityQuestion:   req.SecurityQuestion,
		SecurityAnswerHash: answerHash,
		Role:               models.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		s.audit(audit.LevelWarning, req.Email, audit.ActionSignup, false, err.Error())
		return nil, err
	}

	token, err := s.tokens.IssueSession(user.Email, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.audit(audit.LevelInfo, user.Email, audit.ActionSignup, true, "")

	return &models.LoginResponse{User: user, Token: token}, nil
}

// Login verifies credentials subject to the lockout policy and, on success,
// issues a session token, stamps last_login, and resets the failure counter.
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {
	email := s.validator.NormalizeEmail(req.Email)

	if err := s.validator.ValidateEmail(email); err != nil {
		return nil, err
	}
	if req.Password == "" {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "password is required", 400)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now()

	if user.Locked(now) {
		// A locked attempt is rejected outright and does not consume an attempt
		remaining := ceilMinutes(user.LockUntil.Sub(now))
		s.audit(audit.LevelWarning, email, audit.ActionLogin, false, "account locked")
		return nil, errors.NewAppError(errors.ErrAccountLocked,
			fmt.Sprintf("account locked, try again in %d minute(s)", remaining), 403)
	}

	if user.LockUntil != nil {
		// Lock window has elapsed; the counter restarts from zero
		if err := s.users.ResetFailedAttempts(ctx, email); err != nil {
			return nil, err
		}
		user.FailedAttempts = 0
		user.LockUntil = nil
	}

	if !s.hasher.Verify(req.Password, user.PasswordHash) {
		attempts, err := s.users.IncrementFailedAttempts(ctx, email)
		if err != nil {
			return nil, err
		}

		if attempts >= maxFailedAttempts {
			if err := s.users.LockUntil(ctx, email, now.Add(lockDuration)); err != nil {
				return nil, err
			}
			s.audit(audit.LevelCritical, email, audit.ActionLockout, false,
				fmt.Sprintf("account locked after %d failed attempts", attempts))
			return nil, errors.NewAppError(errors.ErrAccountLocked,
				fmt.Sprintf("account locked due to %d failed login attempts, try again after %d minutes",
					maxFailedAttempts, int(lockDuration.Minutes())), 403)
		}

		s.audit(audit.LevelWarning, email, audit.ActionLogin, false, "incorrect password")
		return nil, errors.NewAppError(errors.ErrInvalidCredentials,
			fmt.Sprintf("incorrect password, %d attempt(s) remaining", maxFailedAttempts-attempts), 401)
	}

	if err := s.users.UpdateLastLogin(ctx, email); err != nil {
		return nil, err
	}
	user.FailedAttempts = 0
	user.LockUntil = nil
	user.LastLogin = &now

	token, err := s.tokens.IssueSession(user.Email, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	s.audit(audit.LevelInfo, email, audit.ActionLogin, true, "")

	return &models.LoginResponse{User: user, Token: token}, nil
}

// SecurityQuestion returns the question registered for an email address,
// starting the forgotten-password flow.
func (s *AuthService) SecurityQuestion(ctx context.Context, email string) (string, error) {
	user, err := s.users.GetByEmail(ctx, s.validator.NormalizeEmail(email))
	if err != nil {
		return "", err
	}

	return user.SecurityQuestion, nil
}

// CheckSecurityAnswer verifies the stored answer, case-insensitively
func (s *AuthService) CheckSecurityAnswer(ctx context.Context, email, answer string) error {
	user, err := s.users.GetByEmail(ctx, s.validator.NormalizeEmail(email))
	if err != nil {
		return err
	}

	if !s.hasher.Verify(strings.ToLower(strings.TrimSpace(answer)), user.SecurityAnswerHash) {
		return errors.ErrWrongSecurityAnswer
	}

	return nil
}

// IsReused reports whether the candidate matches any hash ever stored for
// the user. The history is unbounded, so this is a linear scan over all of it.
func (s *AuthService) IsReused(ctx context.Context, userID int, candidate string) (bool, error) {
	entries, err := s.users.PasswordHistory(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, entry := range entries {
		if s.hasher.Verify(candidate, entry.PasswordHash) {
			return true, nil
		}
	}

	return false, nil
}

// ResetPassword sets a new password after the caller has verified a
// purpose-scoped reset token. Weak or previously used passwords are rejected
// with no state change.
func (s *AuthService) ResetPassword(ctx context.Context, email, newPassword, confirmPassword string) error {
	email = s.validator.NormalizeEmail(email)

	if newPassword != confirmPassword {
		return errors.NewAppError(errors.ErrInvalidInput, "passwords do not match", 400)
	}
	if ok, feedback := security.CheckRequirements(newPassword); !ok {
		return errors.NewAppError(errors.ErrWeakPassword, strings.Join(feedback, "; "), 400)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	reused, err := s.IsReused(ctx, user.ID, newPassword)
	if err != nil {
		return err
	}
	if reused {
		s.audit(audit.LevelWarning, email, audit.ActionReset, false, "password reuse rejected")
		return errors.ErrPasswordReused
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, email, hash); err != nil {
		return err
	}

	s.audit(audit.LevelInfo, email, audit.ActionReset, true, "")

	return nil
}

// EnsureAdmin creates the bootstrap admin account if it does not exist yet
func (s *AuthService) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	email = s.validator.NormalizeEmail(email)
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	answerHash, err := s.hasher.Hash("admin")
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:              email,
		Username:           "admin",
		PasswordHash:       passwordHash,
		SecurityQuestion:   "System Generated",
		SecurityAnswerHash: answerHash,
		Role:               models.RoleAdmin,
	}

	return s.users.Create(ctx, admin)
}

func (s *AuthService) audit(level audit.LogLevel, email, action string, success bool, errMsg string) {
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.Log(&audit.Event{
		Level:    level,
		Email:    email,
		Action:   action,
		Success:  success,
		ErrorMsg: errMsg,
	})
}

// ceilMinutes rounds a duration up to whole minutes
func ceilMinutes(d time.Duration) int {
	return int((d + time.Minute - 1) / time.Minute)
}
