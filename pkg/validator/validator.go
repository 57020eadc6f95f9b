package validator

import (
	"regexp"
	"strings"

	"github.com/policynav/policynav/pkg/errors"
)

var (
	// Username: 3-20 alphanumeric characters and underscores
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

	// Email: basic email validation
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

	// OTP: exactly six digits
	otpRegex = regexp.MustCompile(`^[0-9]{6}$`)
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// ValidateUsername checks if username is valid
func (v *Validator) ValidateUsername(username string) error {
	if !usernameRegex.MatchString(username) {
		return errors.ErrInvalidUsername
	}

	return nil
}

// ValidateEmail checks if email format is valid
func (v *Validator) ValidateEmail(email string) error {
	if len(email) == 0 || len(email) > 255 {
		return errors.ErrInvalidEmail
	}

	if !emailRegex.MatchString(email) {
		return errors.ErrInvalidEmail
	}

	return nil
}

// ValidateOtpFormat checks the code shape before any hash comparison is attempted
func (v *Validator) ValidateOtpFormat(code string) error {
	if !otpRegex.MatchString(code) {
		return errors.ErrOtpInvalidFormat
	}

	return nil
}

// ValidateSecurityAnswer ensures the answer is non-empty and bounded
func (v *Validator) ValidateSecurityAnswer(answer string) error {
	answer = strings.TrimSpace(answer)

	if len(answer) == 0 {
		return errors.NewAppError(errors.ErrInvalidInput, "security answer is mandatory", 400)
	}

	if len(answer) > 255 {
		return errors.NewAppError(errors.ErrInvalidInput, "security answer too long (max 255 characters)", 400)
	}

	return nil
}

// SanitizeString removes dangerous characters and null bytes
func (v *Validator) SanitizeString(input string) string {
	// Remove null bytes
	input = strings.ReplaceAll(input, "\x00", "")

	// Trim whitespace
	input = strings.TrimSpace(input)

	return input
}

// NormalizeEmail lowercases and trims an email address for use as a lookup key
func (v *Validator) NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
