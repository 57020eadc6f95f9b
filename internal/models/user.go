package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID                 int        `json:"id"`
	Email              string     `json:"email"`
	Username           string     `json:"username"`
	PasswordHash       string     `json:"-"` // Never expose in JSON
	SecurityQuestion   string     `json:"security_question"`
	SecurityAnswerHash string     `json:"-"`
	Role               string     `json:"role"`
	CreatedAt          time.Time  `json:"created_at"`
	LastLogin          *time.Time `json:"last_login,omitempty"`
	FailedAttempts     int        `json:"-"`
	LockUntil          *time.Time `json:"-"`
}

// Locked reports whether the account is still inside its lock window.
func (u *User) Locked(now time.Time) bool {
	return u.LockUntil != nil && now.Before(*u.LockUntil)
}

type PasswordHistoryEntry struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	PasswordHash string    `json:"-"`
	ChangedAt    time.Time `json:"changed_at"`
}

type SignupRequest struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	ConfirmPassword  string `json:"confirm_password"`
	SecurityQuestion string `json:"security_question"`
	SecurityAnswer   string `json:"security_answer"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type ResetPasswordRequest struct {
	Token           string `json:"token"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type UserStats struct {
	TotalUsers     int `json:"total_users"`
	LockedAccounts int `json:"locked_accounts"`
}
