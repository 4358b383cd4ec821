package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"tripsync/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestLoginCodeRepository_Latest(t *testing.T) {
	ctx := context.Background()
	expiresAt := time.Date(2026, 6, 1, 12, 10, 0, 0, time.UTC)

	t.Run("returns the newest unexpired code", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM login_codes`).
			WithArgs("+14155550123").
			WillReturnRows(sqlmock.NewRows([]string{"id", "phone", "code_hash", "expires_at"}).
				AddRow("code-uuid-1", "+14155550123", "$2a$06$hash", expiresAt))

		repo := NewLoginCodeRepository(db)
		lc, err := repo.Latest(ctx, "+14155550123")
		require.NoError(t, err)
		require.Equal(t, "code-uuid-1", lc.ID)
		require.Equal(t, "$2a$06$hash", lc.CodeHash)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("none outstanding", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT .+ FROM login_codes`).
			WithArgs("+14155550123").
			WillReturnError(sql.ErrNoRows)

		repo := NewLoginCodeRepository(db)
		_, err = repo.Latest(ctx, "+14155550123")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLoginCodeRepository_CreateAndDelete(t *testing.T) {
	ctx := context.Background()
	expiresAt := time.Date(2026, 6, 1, 12, 10, 0, 0, time.UTC)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO login_codes`).
		WithArgs("+14155550123", "$2a$06$hash", expiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM login_codes`).
		WithArgs("code-uuid-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewLoginCodeRepository(db)
	require.NoError(t, repo.Create(ctx, "+14155550123", "$2a$06$hash", expiresAt))
	require.NoError(t, repo.Delete(ctx, "code-uuid-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
