package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
)

// SkillRepo implements SkillRepository using PostgreSQL.
type SkillRepo struct{ db *DB }

// NewSkillRepo constructs a skill repository.
func NewSkillRepo(db *DB) *SkillRepo { return &SkillRepo{db: db} }

// Create inserts a catalogue skill.
func (r *SkillRepo) Create(ctx context.Context, name string) (*model.Skill, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	if _, err := r.db.Pool.Exec(ctx, `INSERT INTO skills (id, name) VALUES ($1, $2)`, id, name); err != nil {
		return nil, mapWriteErr(err, "create skill")
	}
	return &model.Skill{ID: id, Name: name}, nil
}

// GetByID selects a skill.
func (r *SkillRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Skill, error) {
	var s model.Skill
	if err := r.db.Pool.QueryRow(ctx, `SELECT id, name FROM skills WHERE id = $1`, id).Scan(&s.ID, &s.Name); err != nil {
		return nil, mapRowErr(err, "get skill")
	}
	return &s, nil
}

// List returns the catalogue ordered by name.
func (r *SkillRepo) List(ctx context.Context) ([]model.Skill, error) {
	rows, err := r.db.Pool.Query(ctx, `SELECT id, name FROM skills ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()
	var out []model.Skill
	for rows.Next() {
		var s model.Skill
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Rename changes a skill name.
func (r *SkillRepo) Rename(ctx context.Context, id uuid.UUID, name string) (*model.Skill, error) {
	var s model.Skill
	err := r.db.Pool.QueryRow(ctx, `UPDATE skills SET name = $2 WHERE id = $1 RETURNING id, name`, id, name).Scan(&s.ID, &s.Name)
	if err != nil {
		return nil, mapWriteErr(err, "rename skill")
	}
	return &s, nil
}

// Delete removes a skill and its user links (FK cascade).
func (r *SkillRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM skills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete skill: %w", errs.ErrNotFound)
	}
	return nil
}

// ListForUser returns the skills linked to a user.
func (r *SkillRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.UserSkill, error) {
	const q = `
SELECT us.user_id, us.skill_id, s.name, us.proficiency_level
FROM user_skills us JOIN skills s ON s.id = us.skill_id
WHERE us.user_id = $1
ORDER BY s.name ASC`
	rows, err := r.db.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list user skills: %w", err)
	}
	defer rows.Close()
	var out []model.UserSkill
	for rows.Next() {
		var us model.UserSkill
		if err := rows.Scan(&us.UserID, &us.SkillID, &us.SkillName, &us.Proficiency); err != nil {
			return nil, fmt.Errorf("scan user skill: %w", err)
		}
		out = append(out, us)
	}
	return out, rows.Err()
}

// AddToUser links skillID to userID.
func (r *SkillRepo) AddToUser(ctx context.Context, userID, skillID uuid.UUID, level string) (*model.UserSkill, error) {
	const q = `
WITH ins AS (
  INSERT INTO user_skills (user_id, skill_id, proficiency_level) VALUES ($1, $2, $3)
  RETURNING user_id, skill_id, proficiency_level
)
SELECT ins.user_id, ins.skill_id, s.name, ins.proficiency_level FROM ins JOIN skills s ON s.id = ins.skill_id`
	var us model.UserSkill
	if err := r.db.Pool.QueryRow(ctx, q, userID, skillID, level).
		Scan(&us.UserID, &us.SkillID, &us.SkillName, &us.Proficiency); err != nil {
		return nil, mapWriteErr(err, "add user skill")
	}
	return &us, nil
}

// SetProficiency changes the level of an existing link.
func (r *SkillRepo) SetProficiency(ctx context.Context, userID, skillID uuid.UUID, level string) (*model.UserSkill, error) {
	const q = `
WITH upd AS (
  UPDATE user_skills SET proficiency_level = $3 WHERE user_id = $1 AND skill_id = $2
  RETURNING user_id, skill_id, proficiency_level
)
SELECT upd.user_id, upd.skill_id, s.name, upd.proficiency_level FROM upd JOIN skills s ON s.id = upd.skill_id`
	var us model.UserSkill
	if err := r.db.Pool.QueryRow(ctx, q, userID, skillID, level).
		Scan(&us.UserID, &us.SkillID, &us.SkillName, &us.Proficiency); err != nil {
		return nil, mapRowErr(err, "set proficiency")
	}
	return &us, nil
}

// RemoveFromUser unlinks a skill.
func (r *SkillRepo) RemoveFromUser(ctx context.Context, userID, skillID uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM user_skills WHERE user_id = $1 AND skill_id = $2`, userID, skillID)
	if err != nil {
		return fmt.Errorf("remove user skill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("remove user skill: %w", errs.ErrNotFound)
	}
	return nil
}
