package audit

import "time"

type LogLevel string

const (
	LevelInfo     LogLevel = "INFO"
	LevelWarning  LogLevel = "WARNING"
	LevelError    LogLevel = "ERROR"
	LevelCritical LogLevel = "CRITICAL"
)

// Actions recorded by the authentication core
const (
	ActionSignup      = "SIGNUP"
	ActionLogin       = "LOGIN"
	ActionLockout     = "LOCKOUT"
	ActionUnlock      = "UNLOCK"
	ActionOtpIssued   = "OTP_ISSUED"
	ActionOtpVerify   = "OTP_VERIFY"
	ActionOtpBlocked  = "OTP_BLOCKED"
	ActionReset       = "PASSWORD_RESET"
	ActionRolePromote = "ROLE_PROMOTE"
	ActionUserDelete  = "USER_DELETE"
)

type Event struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Level     LogLevel  `json:"level"`
	Email     string    `json:"email,omitempty"`
	Action    string    `json:"action"`
	Success   bool      `json:"success"`
	ErrorMsg  string    `json:"error_msg,omitempty"`
}
