package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarelab/wayfare/internal/domain"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
)

func newSessionTestFixture(t *testing.T) (*SessionRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	repo := NewSessionRepository(mock)
	return repo, mock
}

func sampleSession() *domain.Session {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &domain.Session{
		ID:         "s-1234",
		UserID:     "u-1234",
		TokenHash:  "deadbeef",
		UserAgent:  "Mozilla/5.0",
		IPAddress:  "192.0.2.1",
		Persistent: false,
		ExpiresAt:  now.Add(30 * 24 * time.Hour),
		CreatedAt:  now,
	}
}

func sessionTestColumns() []string {
	return []string{
		"id", "user_id", "token_hash", "user_agent", "ip_address",
		"persistent", "expires_at", "created_at",
	}
}

func sessionRow(s *domain.Session) *pgxmock.Rows {
	return pgxmock.NewRows(sessionTestColumns()).AddRow(
		s.ID, s.UserID, s.TokenHash, s.UserAgent, s.IPAddress,
		s.Persistent, s.ExpiresAt, s.CreatedAt,
	)
}

func TestSessionRepository_Create_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(
			s.ID, s.UserID, s.TokenHash, s.UserAgent, s.IPAddress,
			s.Persistent, s.ExpiresAt, s.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Create(context.Background(), s)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByTokenHash_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE token_hash =").
		WithArgs(s.TokenHash).
		WillReturnRows(sessionRow(s))

	got, err := repo.GetByTokenHash(context.Background(), s.TokenHash)
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, s.UserID, got.UserID)
	assert.Equal(t, s.ExpiresAt, got.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByTokenHash_ReturnsExpiredRow(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	// Expired rows come back unfiltered; the caller decides what to do.
	s := sampleSession()
	s.ExpiresAt = time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE token_hash =").
		WithArgs(s.TokenHash).
		WillReturnRows(sessionRow(s))

	got, err := repo.GetByTokenHash(context.Background(), s.TokenHash)
	require.NoError(t, err)
	assert.True(t, got.Expired(time.Now().UTC()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_GetByTokenHash_NotFound(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE token_hash =").
		WithArgs("unknown-hash").
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.GetByTokenHash(context.Background(), "unknown-hash")
	assert.Nil(t, got)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound), "expected ErrNotFound, got: %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ExtendExpiry_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	newExpiry := time.Now().UTC().Add(365 * 24 * time.Hour)

	mock.ExpectExec(`UPDATE sessions SET expires_at = \$1 WHERE id = \$2 AND expires_at < \$1`).
		WithArgs(newExpiry, "s-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := repo.ExtendExpiry(context.Background(), "s-1234", newExpiry)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ExtendExpiry_NoMatchIsNotAnError(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	// A concurrent renewal already pushed the expiry further out.
	newExpiry := time.Now().UTC().Add(365 * 24 * time.Hour)

	mock.ExpectExec(`UPDATE sessions SET expires_at = \$1 WHERE id = \$2 AND expires_at < \$1`).
		WithArgs(newExpiry, "s-1234").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.ExtendExpiry(context.Background(), "s-1234", newExpiry)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_Delete_NotFound(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE id =").
		WithArgs("missing-id").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), "missing-id")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteByUser_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE user_id =").
		WithArgs("u-1234").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	err := repo.DeleteByUser(context.Background(), "u-1234")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_DeleteExpired_ReturnsCount(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectExec("DELETE FROM sessions WHERE expires_at <=").
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := repo.DeleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ListByUser_Success(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	s := sampleSession()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE user_id =").
		WithArgs(s.UserID).
		WillReturnRows(sessionRow(s))

	sessions, err := repo.ListByUser(context.Background(), s.UserID)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, s.ID, sessions[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_ListByUser_Empty(t *testing.T) {
	repo, mock := newSessionTestFixture(t)
	defer mock.Close()

	mock.ExpectQuery("SELECT .+ FROM sessions WHERE user_id =").
		WithArgs("u-none").
		WillReturnRows(pgxmock.NewRows(sessionTestColumns()))

	sessions, err := repo.ListByUser(context.Background(), "u-none")
	require.NoError(t, err)
	assert.NotNil(t, sessions)
	assert.Empty(t, sessions)
	assert.NoError(t, mock.ExpectationsWereMet())
}
