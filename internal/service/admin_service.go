package service

import (
	"context"

	"github.com/policynav/policynav/internal/audit"
	"github.com/policynav/policynav/internal/models"
	"github.com/policynav/policynav/pkg/errors"
	"github.com/policynav/policynav/pkg/validator"
)

// AdminService backs the user-management panel. Authorization (role=admin)
// is enforced by the caller before any of these run.
type AdminService struct {
	users       UserRepository
	validator   *validator.Validator
	auditLogger *audit.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(users UserRepository, auditLogger *audit.Logger) *AdminService {
	return &AdminService{
		users:       users,
		validator:   validator.New(),
		auditLogger: auditLogger,
	}
}

// ListUsers returns all users for the management panel
func (s *AdminService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.users.List(ctx)
}

// Stats returns aggregate account counts
func (s *AdminService) Stats(ctx context.Context) (*models.UserStats, error) {
	return s.users.Stats(ctx)
}

// Unlock clears a user's lockout state immediately
func (s *AdminService) Unlock(ctx context.Context, email string) error {
	email = s.validator.NormalizeEmail(email)

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		return err
	}

	if err := s.users.ResetFailedAttempts(ctx, email); err != nil {
		return err
	}

	s.audit(email, audit.ActionUnlock)

	return nil
}

// Promote raises a user to the admin role
func (s *AdminService) Promote(ctx context.Context, email string) error {
	email = s.validator.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return errors.NewAppError(errors.ErrInvalidInput, "user is already an admin", 400)
	}

	if err := s.users.SetRole(ctx, email, models.RoleAdmin); err != nil {
		return err
	}

	s.audit(email, audit.ActionRolePromote)

	return nil
}

// Delete removes a user account. Admin accounts cannot be deleted.
func (s *AdminService) Delete(ctx context.Context, email string) error {
	email = s.validator.NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return errors.NewAppError(errors.ErrUnauthorized, "admin accounts cannot be deleted", 403)
	}

	if err := s.users.Delete(ctx, email); err != nil {
		return err
	}

	s.audit(email, audit.ActionUserDelete)

	return nil
}

func (s *AdminService) audit(email, action string) {
	if s.auditLogger == nil {
		return
	}
	s.auditLogger.Log(&audit.Event{
		Level:   audit.LevelInfo,
		Email:   email,
		Action:  action,
		Success: true,
	})
}
