package security

import (
	"fmt"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is the fixed work factor for every stored hash
const bcryptCost = 12

// maxPasswordBytes is bcrypt's input limit; anything longer must be caught
// by policy before hashing is attempted
const maxPasswordBytes = 72

type PasswordHasher struct {
	cost int
}

func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{cost: bcryptCost}
}

// Hash generates a salted bcrypt hash from the password
func (ph *PasswordHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), ph.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Verify checks if password matches the hash
func (ph *PasswordHasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// StrengthScore rates a password 0-100, awarding 25 points each for length,
// uppercase, lowercase, and digit. Any character outside the alphanumeric
// set forces the score to 0.
func StrengthScore(password string) int {
	if !isAlphanumeric(password) {
		return 0
	}

	score := 0

	if len(password) >= 8 {
		score += 25
	}
	if containsFunc(password, unicode.IsUpper) {
		score += 25
	}
	if containsFunc(password, unicode.IsLower) {
		score += 25
	}
	if containsFunc(password, unicode.IsDigit) {
		score += 25
	}

	return score
}

// CheckRequirements reports every unmet password rule. An empty feedback
// slice means the password is acceptable; callers block signup and reset on
// any feedback, never just warn.
func CheckRequirements(password string) (bool, []string) {
	var feedback []string

	if !isAlphanumeric(password) {
		feedback = append(feedback, "Password must contain only letters and numbers (no special characters).")
	}
	if len(password) < 8 {
		feedback = append(feedback, "At least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		feedback = append(feedback, "At most 72 characters")
	}
	if !containsFunc(password, unicode.IsUpper) {
		feedback = append(feedback, "At least one uppercase letter")
	}
	if !containsFunc(password, unicode.IsLower) {
		feedback = append(feedback, "At least one lowercase letter")
	}
	if !containsFunc(password, unicode.IsDigit) {
		feedback = append(feedback, "At least one number")
	}

	return len(feedback) == 0, feedback
}

func isAlphanumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

func containsFunc(s string, fn func(rune) bool) bool {
	for _, r := range s {
		if fn(r) {
			return true
		}
	}
	return false
}
