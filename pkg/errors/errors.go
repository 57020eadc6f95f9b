package errors

import (
	"errors"
	"fmt"
)

// Custom error types for better error handling
var (
	// Authentication errors
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUserNotFound        = errors.New("user not found")
	ErrUserAlreadyExists   = errors.New("email or username already exists")
	ErrUnauthorized        = errors.New("unauthorized access")
	ErrAccountLocked       = errors.New("account is temporarily locked")
	ErrWrongSecurityAnswer = errors.New("incorrect security answer")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrWeakPassword    = errors.New("password does not meet requirements")
	ErrInvalidEmail    = errors.New("invalid email format")
	ErrInvalidUsername = errors.New("invalid username format")
	ErrPasswordReused  = errors.New("password was used before")

	// OTP errors
	ErrOtpNotFound      = errors.New("no pending verification code")
	ErrOtpExpired       = errors.New("verification code expired")
	ErrOtpInvalid       = errors.New("invalid verification code")
	ErrOtpInvalidFormat = errors.New("verification code must be a 6-digit number")
	ErrOtpBlocked       = errors.New("too many incorrect attempts, verification blocked")
	ErrOtpTooSoon       = errors.New("wait before requesting another verification code")

	// Token errors
	ErrInvalidToken = errors.New("invalid or expired token")
	ErrWrongPurpose = errors.New("token not valid for this operation")

	// Database errors
	ErrDatabaseConnection = errors.New("database connection failed")
	ErrTransactionFailed  = errors.New("transaction failed")
	ErrRecordNotFound     = errors.New("record not found")

	// Email transport errors
	ErrEmailSendFailed = errors.New("failed to send email")

	// Rate limiting errors
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
)

// AppError wraps errors with additional context
type AppError struct {
	Err     error
	Message string
	Code    int
}

func (e *AppError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new application error
func NewAppError(err error, message string, code int) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}
