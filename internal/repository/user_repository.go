package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/policynav/policynav/internal/database"
	"github.com/policynav/policynav/internal/models"
	"github.com/policynav/policynav/pkg/errors"
)

const userColumns = `id, email, username, password_hash, security_question,
               security_answer_hash, role, created_at, last_login,
               failed_attempts, lock_until`

type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user and the first password history entry in one
// transaction. A uniqueness violation on email or username yields
// ErrUserAlreadyExists with no partial write.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	now := time.Now()

	err := database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
        INSERT INTO users (email, username, password_hash, security_question,
                           security_answer_hash, role, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)
    `,
			user.Email,
			user.Username,
			user.PasswordHash,
			user.SecurityQuestion,
			user.SecurityAnswerHash,
			user.Role,
			now,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return errors.ErrUserAlreadyExists
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get user ID: %w", err)
		}
		user.ID = int(id)

		if _, err := tx.ExecContext(ctx, `
        INSERT INTO password_history (user_id, password_hash, changed_at)
        VALUES (?, ?, ?)
    `, user.ID, user.PasswordHash, now); err != nil {
			return fmt.Errorf("failed to record password history: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	user.CreatedAt = now
	return nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = ?`, userColumns)
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE username = ?`, userColumns)
	return r.scanUser(r.db.QueryRowContext(ctx, query, username))
}

// List returns all users ordered for the admin panel
func (r *UserRepository) List(ctx context.Context) ([]*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users ORDER BY role DESC, username ASC`, userColumns)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := scanUserFields(rows, user); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, user)
	}

	return users, rows.Err()
}

// UpdatePassword stores a new password hash and appends exactly one history
// entry, atomically.
func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return database.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		var userID int
		err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE email = ?`, email).Scan(&userID)
		if err == sql.ErrNoRows {
			return errors.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to find user: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
        UPDATE users SET password_hash = ? WHERE email = ?
    `, passwordHash, email); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
        INSERT INTO password_history (user_id, password_hash, changed_at)
        VALUES (?, ?, ?)
    `, userID, passwordHash, time.Now()); err != nil {
			return fmt.Errorf("failed to record password history: %w", err)
		}

		return nil
	})
}

// PasswordHistory returns every stored hash for the user, oldest first.
// The log is append-only and never pruned, so this is an unbounded scan.
func (r *UserRepository) PasswordHistory(ctx context.Context, userID int) ([]models.PasswordHistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, user_id, password_hash, changed_at
        FROM password_history
        WHERE user_id = ?
        ORDER BY changed_at ASC
    `, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query password history: %w", err)
	}
	defer rows.Close()

	var entries []models.PasswordHistoryEntry
	for rows.Next() {
		var e models.PasswordHistoryEntry
		if err := rows.Scan(&e.ID, &e.UserID, &e.PasswordHash, &e.ChangedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// UpdateLastLogin stamps a successful login and clears the lockout state
func (r *UserRepository) UpdateLastLogin(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE users
        SET last_login = ?, failed_attempts = 0, lock_until = NULL
        WHERE email = ?
    `, time.Now(), email)
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}

	return nil
}

// IncrementFailedAttempts bumps the counter and returns the new value
func (r *UserRepository) IncrementFailedAttempts(ctx context.Context, email string) (int, error) {
	_, err := r.db.ExecContext(ctx, `
        UPDATE users
        SET failed_attempts = failed_attempts + 1
        WHERE email = ?
    `, email)
	if err != nil {
		return 0, fmt.Errorf("failed to increment failed attempts: %w", err)
	}

	var attempts int
	err = r.db.QueryRowContext(ctx, `
        SELECT failed_attempts FROM users WHERE email = ?
    `, email).Scan(&attempts)
	if err != nil {
		return 0, fmt.Errorf("failed to read failed attempts: %w", err)
	}

	return attempts, nil
}

// ResetFailedAttempts zeroes the counter and clears any lock
func (r *UserRepository) ResetFailedAttempts(ctx context.Context, email string) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE users
        SET failed_attempts = 0, lock_until = NULL
        WHERE email = ?
    `, email)
	if err != nil {
		return fmt.Errorf("failed to reset failed attempts: %w", err)
	}

	return nil
}

// LockUntil locks the account until the given time
func (r *UserRepository) LockUntil(ctx context.Context, email string, until time.Time) error {
	_, err := r.db.ExecContext(ctx, `
        UPDATE users
        SET lock_until = ?
        WHERE email = ?
    `, until, email)
	if err != nil {
		return fmt.Errorf("failed to lock account: %w", err)
	}

	return nil
}

// SetRole updates a user's role
func (r *UserRepository) SetRole(ctx context.Context, email, role string) error {
	result, err := r.db.ExecContext(ctx, `
        UPDATE users SET role = ? WHERE email = ?
    `, role, email)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}

	return requireRowsAffected(result)
}

// Delete removes a user and, via cascade, their password history
func (r *UserRepository) Delete(ctx context.Context, email string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	return requireRowsAffected(result)
}

// Stats returns counts for the admin dashboard
func (r *UserRepository) Stats(ctx context.Context) (*models.UserStats, error) {
	stats := &models.UserStats{}

	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
        SELECT COUNT(*) FROM users WHERE lock_until IS NOT NULL AND lock_until > ?
    `, time.Now()).Scan(&stats.LockedAccounts)
	if err != nil {
		return nil, fmt.Errorf("failed to count locked users: %w", err)
	}

	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := scanUserFields(row, user)
	if err == sql.ErrNoRows {
		return nil, errors.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

func scanUserFields(row rowScanner, user *models.User) error {
	return row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.SecurityQuestion,
		&user.SecurityAnswerHash,
		&user.Role,
		&user.CreatedAt,
		&user.LastLogin,
		&user.FailedAttempts,
		&user.LockUntil,
	)
}

func requireRowsAffected(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return errors.ErrUserNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
