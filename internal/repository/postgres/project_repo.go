package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
)

const projectCols = `id, user_id, name, description, tech_stack, project_url, github_repo_url, image_url, created_at, updated_at`

// ProjectRepo implements ProjectRepository using PostgreSQL.
type ProjectRepo struct{ db *DB }

// NewProjectRepo constructs a project repository.
func NewProjectRepo(db *DB) *ProjectRepo { return &ProjectRepo{db: db} }

func scanProject(row pgx.Row) (*model.Project, error) {
	var p model.Project
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Description, &p.TechStack,
		&p.ProjectURL, &p.GithubRepoURL, &p.ImageURL, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProjectRepo) list(ctx context.Context, q string, args ...any) ([]model.Project, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var out []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Create inserts a project.
func (r *ProjectRepo) Create(ctx context.Context, p *model.Project) error {
	const q = `
INSERT INTO projects (id, user_id, name, description, tech_stack, project_url, github_repo_url, image_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at`
	err := r.db.Pool.QueryRow(ctx, q, p.ID, p.UserID, p.Name, p.Description, p.TechStack,
		p.ProjectURL, p.GithubRepoURL, p.ImageURL).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return mapWriteErr(err, "create project")
	}
	return nil
}

// GetByID selects a project.
func (r *ProjectRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	p, err := scanProject(r.db.Pool.QueryRow(ctx, `SELECT `+projectCols+` FROM projects WHERE id = $1`, id))
	if err != nil {
		return nil, mapRowErr(err, "get project")
	}
	return p, nil
}

// List returns all projects, newest first.
func (r *ProjectRepo) List(ctx context.Context) ([]model.Project, error) {
	return r.list(ctx, `SELECT `+projectCols+` FROM projects ORDER BY created_at DESC`)
}

// ListByUser returns the projects of one user, newest first.
func (r *ProjectRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Project, error) {
	return r.list(ctx, `SELECT `+projectCols+` FROM projects WHERE user_id = $1 ORDER BY created_at DESC`, userID)
}

// Update applies the non-nil fields of p.
func (r *ProjectRepo) Update(ctx context.Context, id uuid.UUID, p model.ProjectPatch) (*model.Project, error) {
	const q = `
UPDATE projects SET
  name = COALESCE($2, name),
  description = COALESCE($3, description),
  tech_stack = COALESCE($4, tech_stack),
  project_url = COALESCE($5, project_url),
  github_repo_url = COALESCE($6, github_repo_url),
  image_url = COALESCE($7, image_url),
  updated_at = now()
WHERE id = $1
RETURNING ` + projectCols
	out, err := scanProject(r.db.Pool.QueryRow(ctx, q, id,
		p.Name, p.Description, p.TechStack, p.ProjectURL, p.GithubRepoURL, p.ImageURL))
	if err != nil {
		return nil, mapRowErr(err, "update project")
	}
	return out, nil
}

// Delete removes a project.
func (r *ProjectRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete project: %w", errs.ErrNotFound)
	}
	return nil
}
