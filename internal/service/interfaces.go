package service

import (
	"context"
	"time"

	"github.com/policynav/policynav/internal/models"
)

// UserRepository is the credential store contract consumed by services
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	PasswordHistory(ctx context.Context, userID int) ([]models.PasswordHistoryEntry, error)
	UpdateLastLogin(ctx context.Context, email string) error
	IncrementFailedAttempts(ctx context.Context, email string) (int, error)
	ResetFailedAttempts(ctx context.Context, email string) error
	LockUntil(ctx context.Context, email string, until time.Time) error
	SetRole(ctx context.Context, email, role string) error
	Delete(ctx context.Context, email string) error
	Stats(ctx context.Context) (*models.UserStats, error)
}

// OtpRepository is the single-row-per-email code store
type OtpRepository interface {
	Get(ctx context.Context, email string) (*models.OtpRecord, error)
	Replace(ctx context.Context, record *models.OtpRecord) error
	IncrementAttempts(ctx context.Context, email string) error
	Delete(ctx context.Context, email string) error
}

// OtpMailer is the email transport capability consumed by the OTP manager
type OtpMailer interface {
	SendOtp(ctx context.Context, to, code string) error
}
