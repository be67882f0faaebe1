package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// OwnerRepo reads owner attributes of ownable rows.
type OwnerRepo struct{ db *DB }

// NewOwnerRepo constructs an owner lookup.
func NewOwnerRepo(db *DB) *OwnerRepo { return &OwnerRepo{db: db} }

// OwnerOf returns the owner column of row id in table. Table and column are
// quoted identifiers and must come from code, never from a request.
func (r *OwnerRepo) OwnerOf(ctx context.Context, table, column string, id uuid.UUID) (uuid.UUID, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`,
		pgx.Identifier{column}.Sanitize(), pgx.Identifier{table}.Sanitize())
	var owner uuid.UUID
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&owner); err != nil {
		return uuid.Nil, mapRowErr(err, "owner of "+table)
	}
	return owner, nil
}
