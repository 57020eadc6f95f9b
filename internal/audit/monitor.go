package audit

import (
	"fmt"
	"log"
	"time"
)

type Monitor struct {
	logger *Logger
}

// NewMonitor creates a new security monitor
func NewMonitor(logger *Logger) *Monitor {
	return &Monitor{logger: logger}
}

// DetectFailedLogins flags addresses with repeated failed login attempts in
// the last five minutes. The lockout guard already throttles per-account;
// this surfaces the pattern for operators.
func (m *Monitor) DetectFailedLogins() error {
	since := time.Now().Add(-5 * time.Minute)

	counts, err := m.logger.FailuresSince(ActionLogin, since)
	if err != nil {
		return fmt.Errorf("failed to query failed logins: %w", err)
	}

	for email, count := range counts {
		if count >= 5 {
			log.Printf("SECURITY ALERT: %s has %d failed login attempts in last 5 minutes", email, count)

			m.logger.Log(&Event{
				Level:    LevelCritical,
				Email:    email,
				Action:   ActionLockout,
				Success:  false,
				ErrorMsg: fmt.Sprintf("%d failed attempts detected", count),
			})
		}
	}

	return nil
}
