package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/policynav/policynav/internal/audit"
	"github.com/policynav/policynav/internal/models"
	"github.com/policynav/policynav/internal/security"
	"github.com/policynav/policynav/pkg/errors"
	"github.com/policynav/policynav/pkg/validator"
)

const (
	otpTTL           = 120 * time.Second
	otpMaxAttempts   = 5
	otpReissueWindow = 30 * time.Second
)

// OtpService manages the one-time-code lifecycle: issue, verify, expire,
// block. Codes are stored only as bcrypt hashes; a transport failure rolls
// the issuance back so no unreachable pending code survives.
type OtpService struct {
	otps        OtpRepository
	mailer      OtpMailer
	hasher      *security.PasswordHasher
	validator   *validator.Validator
	auditLogger *audit.Logger
	now         func() time.Time
}

// NewOtpService creates a new OTP manager
func NewOtpService(otps OtpRepository, mailer OtpMailer, auditLogger *audit.Logger) *OtpService {
	return &OtpService{
		otps:        otps,
		mailer:      mailer,
		hasher:      security.NewPasswordHasher(),
		validator:   validator.New(),
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// Initiate issues a fresh code for the email and delivers it. Issuing
// replaces any prior pending code, and is allowed at most once per 30
// seconds measured from the prior code's creation.
func (s *OtpService) Initiate(ctx context.Context, email string) error {
	email = s.validator.NormalizeEmail(email)
	now := s.now()

	if existing, err := s.otps.Get(ctx, email); err == nil {
		if now.Sub(existing.CreatedAt) < otpReissueWindow {
			return errors.NewAppError(errors.ErrOtpTooSoon,
				fmt.Sprintf("wait %d seconds before requesting another code", int(otpReissueWindow.Seconds())), 429)
		}
	}

	code, err := generateCode()
	if err != nil {
		return fmt.Errorf("failed to generate otp: %w", err)
	}

	codeHash, err := s.hasher.Hash(code)
	if err != nil {
		return err
	}

	record := &models.OtpRecord{
		Email:     email,
		CodeHash:  codeHash,
		CreatedAt: now,
		ExpiresAt: now.Add(otpTTL),
	}

	if err := s.otps.Replace(ctx, record); err != nil {
		return err
	}

	if err := s.mailer.SendOtp(ctx, email, code); err != nil {
		// Roll back so no unusable pending code survives a failed send
		if delErr := s.otps.Delete(ctx, email); delErr != nil {
			log.Printf("failed to roll back undeliverable otp for %s: %v", email, delErr)
		}
		s.audit(audit.LevelError, email, audit.ActionOtpIssued, false, err.Error())
		return errors.NewAppError(errors.ErrEmailSendFailed, "failed to send OTP email, please try again", 502)
	}

	s.audit(audit.LevelInfo, email, audit.ActionOtpIssued, true, "")

	return nil
}

// Verify checks a submitted code. A correct code consumes the record; the
// fifth wrong attempt deletes it and reports a blocked outcome; an expired
// record is deleted on check and treated as absent.
func (s *OtpService) Verify(ctx context.Context, email, code string) error {
	email = s.validator.NormalizeEmail(email)

	record, err := s.otps.Get(ctx, email)
	if err != nil {
		return err
	}

	if record.Attempts >= otpMaxAttempts {
		s.otps.Delete(ctx, email)
		s.audit(audit.LevelWarning, email, audit.ActionOtpBlocked, false, "attempt limit reached")
		return errors.ErrOtpBlocked
	}

	if record.Expired(s.now()) {
		s.otps.Delete(ctx, email)
		return errors.ErrOtpExpired
	}

	// Format gate runs before any hash comparison
	if err := s.validator.ValidateOtpFormat(code); err != nil {
		return err
	}

	if !s.hasher.Verify(code, record.CodeHash) {
		if err := s.otps.IncrementAttempts(ctx, email); err != nil {
			return err
		}

		if record.Attempts+1 >= otpMaxAttempts {
			s.otps.Delete(ctx, email)
			s.audit(audit.LevelWarning, email, audit.ActionOtpBlocked, false, "too many incorrect attempts")
			return errors.ErrOtpBlocked
		}

		s.audit(audit.LevelWarning, email, audit.ActionOtpVerify, false, "incorrect code")
		return errors.ErrOtpInvalid
	}

	// Consumed: a code verifies at most once
	if err := s.otps.Delete(ctx, email); err != nil {
		return err
	}

	s.audit(audit.LevelInfo, email, audit.ActionOtpVerify, true, "")

	return nil
}

// generateCode draws a 6-digit code uniformly from [100000, 999999]
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

func (s *OtpService) audit(level audit.LogLevel, email, action string, success bool, errMsg string) {
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
