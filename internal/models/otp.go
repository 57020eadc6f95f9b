package models

import "time"

// OtpRecord is the single pending verification code for an email address.
// A new request replaces any prior record; the code itself is stored only
// as a one-way hash.
type OtpRecord struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	CodeHash  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Attempts  int       `json:"attempts"`
}

// Expired reports whether the record is past its deadline.
func (r *OtpRecord) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
