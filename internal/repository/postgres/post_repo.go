package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
)

const postCols = `id, user_id, title, content, is_published, created_at, updated_at`

// BlogPostRepo implements BlogPostRepository using PostgreSQL.
type BlogPostRepo struct{ db *DB }

// NewBlogPostRepo constructs a blog post repository.
func NewBlogPostRepo(db *DB) *BlogPostRepo { return &BlogPostRepo{db: db} }

func scanPost(row pgx.Row) (*model.BlogPost, error) {
	var p model.BlogPost
	if err := row.Scan(&p.ID, &p.UserID, &p.Title, &p.Content, &p.IsPublished, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *BlogPostRepo) list(ctx context.Context, q string, args ...any) ([]model.BlogPost, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()
	var out []model.BlogPost
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// Create inserts a blog post.
func (r *BlogPostRepo) Create(ctx context.Context, p *model.BlogPost) error {
	const q = `
INSERT INTO blog_posts (id, user_id, title, content, is_published)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at`
	if err := r.db.Pool.QueryRow(ctx, q, p.ID, p.UserID, p.Title, p.Content, p.IsPublished).
		Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return mapWriteErr(err, "create post")
	}
	return nil
}

// GetByID selects a post, hiding drafts unless includeDrafts is set.
func (r *BlogPostRepo) GetByID(ctx context.Context, id uuid.UUID, includeDrafts bool) (*model.BlogPost, error) {
	const q = `SELECT ` + postCols + ` FROM blog_posts WHERE id = $1 AND (is_published OR $2)`
	p, err := scanPost(r.db.Pool.QueryRow(ctx, q, id, includeDrafts))
	if err != nil {
		return nil, mapRowErr(err, "get post")
	}
	return p, nil
}

// ListPublished returns published posts, newest first.
func (r *BlogPostRepo) ListPublished(ctx context.Context) ([]model.BlogPost, error) {
	return r.list(ctx, `SELECT `+postCols+` FROM blog_posts WHERE is_published ORDER BY created_at DESC`)
}

// ListByUser returns the posts of one user.
func (r *BlogPostRepo) ListByUser(ctx context.Context, userID uuid.UUID, includeDrafts bool) ([]model.BlogPost, error) {
	return r.list(ctx, `SELECT `+postCols+` FROM blog_posts WHERE user_id = $1 AND (is_published OR $2) ORDER BY created_at DESC`,
		userID, includeDrafts)
}

// Update applies the non-nil fields of p.
func (r *BlogPostRepo) Update(ctx context.Context, id uuid.UUID, p model.BlogPostPatch) (*model.BlogPost, error) {
	const q = `
UPDATE blog_posts SET
  title = COALESCE($2, title),
  content = COALESCE($3, content),
  is_published = COALESCE($4, is_published),
  updated_at = now()
WHERE id = $1
RETURNING ` + postCols
	out, err := scanPost(r.db.Pool.QueryRow(ctx, q, id, p.Title, p.Content, p.IsPublished))
	if err != nil {
		return nil, mapRowErr(err, "update post")
	}
	return out, nil
}

// Delete removes a post.
func (r *BlogPostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete post: %w", errs.ErrNotFound)
	}
	return nil
}
