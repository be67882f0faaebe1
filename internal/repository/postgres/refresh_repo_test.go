package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/devfolio/internal/errs"
)

func TestRefreshRepo_Persist(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRefreshRepo(db)
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())
	exp := time.Now().Add(time.Hour)

	mock.ExpectExec(`INSERT INTO refresh_tokens \(token, user_id, expires_at\) VALUES \(\$1, \$2, \$3\)`).
		WithArgs("tok", uid, exp).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, r.Persist(ctx, "tok", uid, exp))

	mock.ExpectExec(`INSERT INTO refresh_tokens`).
		WithArgs("tok", uid, exp).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Persist(ctx, "tok", uid, exp), errs.ErrConflict)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRepo_LookupActive(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRefreshRepo(db)
	ctx := context.Background()
	uid := uuid.Must(uuid.NewV4())
	exp := time.Now().Add(time.Hour)

	mock.ExpectQuery(`WHERE token = \$1 AND revoked = FALSE AND expires_at > now\(\)`).
		WithArgs("tok").
		WillReturnRows(pgxmock.NewRows([]string{"token", "user_id", "expires_at", "revoked", "created_at"}).
			AddRow("tok", uid, exp, false, time.Now()))
	rt, err := r.LookupActive(ctx, "tok")
	require.NoError(t, err)
	require.Equal(t, uid, rt.UserID)
	require.False(t, rt.Revoked)

	// revoked, expired and unknown all look the same from here
	mock.ExpectQuery(`FROM refresh_tokens`).WithArgs("gone").WillReturnError(pgx.ErrNoRows)
	_, err = r.LookupActive(ctx, "gone")
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshRepo_Revoke_Idempotent(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewRefreshRepo(db)
	ctx := context.Background()

	uid := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`UPDATE refresh_tokens SET revoked = TRUE WHERE token = \$1 AND revoked = FALSE RETURNING user_id`).
		WithArgs("tok").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(uid))
	owner, changed, err := r.Revoke(ctx, "tok")
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, uid, owner)

	mock.ExpectQuery(`UPDATE refresh_tokens SET revoked = TRUE`).
		WithArgs("tok").
		WillReturnError(pgx.ErrNoRows)
	owner, changed, err = r.Revoke(ctx, "tok")
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, uuid.Nil, owner)

	require.NoError(t, mock.ExpectationsWereMet())
}
