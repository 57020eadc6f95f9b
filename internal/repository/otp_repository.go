package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/policynav/policynav/internal/database"
	"github.com/policynav/policynav/internal/models"
	"github.com/policynav/policynav/pkg/errors"
)

type OtpRepository struct {
	db *sql.DB
}

// NewOtpRepository creates a new OTP repository
func NewOtpRepository(db *sql.DB) *OtpRepository {
	return &OtpRepository{db: db}
}

// Get returns the pending record for an email, or ErrOtpNotFound
func (r *OtpRepository) Get(ctx context.Context, email string) (*models.OtpRecord, error) {
	record := &models.OtpRecord{}
	err := r.db.QueryRowContext(ctx, `
        SELECT id, email, otp_hash, created_at, expires_at, attempts
        FROM otp_codes
        WHERE email = ?
    `, email).Scan(
		&record.ID,
		&record.Email,
		&record.CodeHash,
		&record.CreatedAt,
		&record.ExpiresAt,
		&record.Attempts,
	)

	if err == sql.ErrNoRows {
		return nil, errors.ErrOtpNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get otp record: %w", err)
	}

	return record, nil
}

// Replace deletes any prior record for the email and inserts the new one,
// atomically, so at most one live record exists per address.
func (r *OtpRepository) Replace(ctx context.Context, record *models.OtpRecord) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM otp_codes WHERE email = ?`, record.Email); err != nil {
			return fmt.Errorf("failed to delete prior otp: %w", err)
		}

		result, err := tx.ExecContext(ctx, `
        INSERT INTO otp_codes (email, otp_hash, created_at, expires_at, attempts)
        VALUES (?, ?, ?, ?, 0)
    `, record.Email, record.CodeHash, record.CreatedAt, record.ExpiresAt)
		if err != nil {
			return fmt.Errorf("failed to insert otp: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get otp ID: %w", err)
		}
		record.ID = int(id)

		return nil
	})
}

// IncrementAttempts bumps the attempt counter for a wrong code
func (r *OtpRepository) IncrementAttempts(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE otp_codes SET attempts = attempts + 1 WHERE email = ?
    `, email)
	if err != nil {
		return fmt.Errorf("failed to increment otp attempts: %w", err)
	}

	return nil
}

// Delete removes the record for an email. Deleting an absent record is not
// an error; expiry and consumption both funnel through here.
func (r *OtpRepository) Delete(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM otp_codes WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("failed to delete otp: %w", err)
	}

	return nil
}
