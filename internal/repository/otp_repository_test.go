package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/policynav/policynav/internal/models"
	"github.com/policynav/policynav/pkg/errors"
)

func newOtpRepoWithMock(t *testing.T) (*OtpRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewOtpRepository(db), mock, db
}

func TestOtpGet_Found(t *testing.T) {
	repo, mock, db := newOtpRepoWithMock(t)
	defer db.Close()

	created := time.Now()
	expires := created.Add(2 * time.Minute)
	mock.ExpectQuery(`SELECT .+ FROM otp_codes`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "otp_hash", "created_at", "expires_at", "attempts"}).
			AddRow(1, "alice@example.com", "codehash", created, expires, 2))

	record, err := repo.Get(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", record.Email)
	assert.Equal(t, "codehash", record.CodeHash)
	assert.Equal(t, 2, record.Attempts)
}

func TestOtpGet_NotFound(t *testing.T) {
	repo, mock, db := newOtpRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM otp_codes`).
		WithArgs("ghost@example.com").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), "ghost@example.com")
	assert.ErrorIs(t, err, errors.ErrOtpNotFound)
}

func TestOtpReplace_DeletesPriorRecord(t *testing.T) {
	repo, mock, db := newOtpRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	record := &models.OtpRecord{
		Email:     "alice@example.com",
		CodeHash:  "codehash",
		CreatedAt: now,
		ExpiresAt: now.Add(2 * time.Minute),
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM otp_codes WHERE email = ?")).
		WithArgs("alice@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO otp_codes")).
		WithArgs("alice@example.com", "codehash", now, record.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectCommit()

	err := repo.Replace(context.Background(), record)
	require.NoError(t, err)
	assert.Equal(t, 5, record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOtpReplace_InsertFailureRollsBack(t *testing.T) {
	repo, mock, db := newOtpRepoWithMock(t)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM otp_codes WHERE email = ?")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO otp_codes")).
		WillReturnError(stderrors.New("database is locked"))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), &models.OtpRecord{Email: "alice@example.com"})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOtpIncrementAttempts(t *testing.T) {
	repo, mock, db := newOtpRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE otp_codes SET attempts = attempts + 1")).
		WithArgs("alice@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.IncrementAttempts(context.Background(), "alice@example.com"))
}

func TestOtpDelete_AbsentRowIsNotAnError(t *testing.T) {
	repo, mock, db := newOtpRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM otp_codes WHERE email = ?")).
		WithArgs("ghost@example.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), "ghost@example.com"))
}
