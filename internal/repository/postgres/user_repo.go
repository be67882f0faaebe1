package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
)

const userCols = `u.id, u.username, u.email, u.password_hash, u.role_id, r.name,
u.bio, u.github_url, u.linkedin_url, u.portfolio_url, u.profile_picture_url, u.created_at, u.updated_at`

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	var role string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PwdHash, &u.RoleID, &role,
		&u.Bio, &u.GithubURL, &u.LinkedinURL, &u.PortfolioURL, &u.ProfilePictureURL, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	return &u, nil
}

// Create inserts a new user row with the role looked up by name.
func (r *UserRepo) Create(ctx context.Context, u *model.User, role model.Role) error {
	const q = `
INSERT INTO users (id, username, email, password_hash, role_id)
SELECT $1, $2, $3, $4, id FROM roles WHERE name = $5
RETURNING role_id, created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, u.ID, u.Username, u.Email, u.PwdHash, string(role)).
		Scan(&u.RoleID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		// no row back means the role itself is missing: a seeding problem, not a client error
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("create user: role %q not seeded", role)
		}
		return mapWriteErr(err, "create user")
	}
	u.Role = role
	return nil
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.id = $1`
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, id))
	if err != nil {
		return nil, mapRowErr(err, "get user")
	}
	return u, nil
}

// GetByEmail selects a user by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.email = $1`
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, email))
	if err != nil {
		return nil, mapRowErr(err, "get user by email")
	}
	return u, nil
}

// GetByUsername selects a user by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	q := `SELECT ` + userCols + ` FROM users u JOIN roles r ON r.id = u.role_id WHERE u.username = $1`
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, username))
	if err != nil {
		return nil, mapRowErr(err, "get user by username")
	}
	return u, nil
}

// GetIdentity reads the current username and role name.
func (r *UserRepo) GetIdentity(ctx context.Context, id uuid.UUID) (model.Identity, error) {
	const q = `
SELECT u.id, u.username, r.name
FROM users u JOIN roles r ON r.id = u.role_id
WHERE u.id = $1`
	var ident model.Identity
	var role string
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&ident.ID, &ident.Username, &role); err != nil {
		return model.Identity{}, mapRowErr(err, "get identity")
	}
	ident.Role = model.Role(role)
	return ident, nil
}

// List returns all users.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	q := `SELECT ` + userCols + ` FROM users u JOIN roles r ON r.id = u.role_id ORDER BY u.created_at ASC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// Update applies the non-nil fields of p.
func (r *UserRepo) Update(ctx context.Context, id uuid.UUID, p model.UserPatch) (*model.User, error) {
	if p.Empty() {
		return r.GetByID(ctx, id)
	}
	q := `
WITH u AS (
  UPDATE users SET
    username = COALESCE($2, username),
    email = COALESCE($3, email),
    password_hash = COALESCE($4, password_hash),
    bio = COALESCE($5, bio),
    github_url = COALESCE($6, github_url),
    linkedin_url = COALESCE($7, linkedin_url),
    portfolio_url = COALESCE($8, portfolio_url),
    profile_picture_url = COALESCE($9, profile_picture_url),
    updated_at = now()
  WHERE id = $1
  RETURNING *
)
SELECT ` + userCols + ` FROM u JOIN roles r ON r.id = u.role_id`
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, id,
		p.Username, p.Email, p.PwdHash, p.Bio, p.GithubURL, p.LinkedinURL, p.PortfolioURL, p.ProfilePictureURL))
	if err != nil {
		return nil, mapWriteErr(err, "update user")
	}
	return u, nil
}

// SetRole points the user at the named role.
func (r *UserRepo) SetRole(ctx context.Context, id uuid.UUID, role model.Role) (*model.User, error) {
	q := `
WITH u AS (
  UPDATE users SET role_id = (SELECT id FROM roles WHERE name = $2), updated_at = now()
  WHERE id = $1
  RETURNING *
)
SELECT ` + userCols + ` FROM u JOIN roles r ON r.id = u.role_id`
	u, err := scanUser(r.db.Pool.QueryRow(ctx, q, id, string(role)))
	if err != nil {
		return nil, mapWriteErr(err, "set role")
	}
	return u, nil
}

// Delete revokes every outstanding refresh token of the user and removes the
// row in one transaction. Ledger rows are kept for audit.
func (r *UserRepo) Delete(ctx context.Context, id uuid.UUID) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = fmt.Errorf("commit: %w", e)
		}
	}()

	if _, err = tx.Exec(ctx, `UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`, id); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete user: %w", errs.ErrNotFound)
	}
	return nil
}
