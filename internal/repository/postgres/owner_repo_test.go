package postgres

import (
	"context"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"

	"github.com/and161185/devfolio/internal/errs"
)

func TestOwnerRepo_OwnerOf(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewOwnerRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	owner := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT "user_id" FROM "projects" WHERE id = \$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(owner))
	got, err := r.OwnerOf(ctx, "projects", "user_id", id)
	require.NoError(t, err)
	require.Equal(t, owner, got)

	mock.ExpectQuery(`SELECT "receiver_id" FROM "inquiries" WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.OwnerOf(ctx, "inquiries", "receiver_id", id)
	require.ErrorIs(t, err, errs.ErrNotFound)

	require.NoError(t, mock.ExpectationsWereMet())
}
