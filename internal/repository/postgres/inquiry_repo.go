package postgres

import (
	"context"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/devfolio/internal/errs"
	"github.com/and161185/devfolio/internal/model"
)

const inquiryCols = `id, sender_id, receiver_id, subject, message, read_status, sent_at`

// InquiryRepo implements InquiryRepository using PostgreSQL.
type InquiryRepo struct{ db *DB }

// NewInquiryRepo constructs an inquiry repository.
func NewInquiryRepo(db *DB) *InquiryRepo { return &InquiryRepo{db: db} }

func scanInquiry(row pgx.Row) (*model.Inquiry, error) {
	var in model.Inquiry
	if err := row.Scan(&in.ID, &in.SenderID, &in.ReceiverID, &in.Subject, &in.Message, &in.ReadStatus, &in.SentAt); err != nil {
		return nil, err
	}
	return &in, nil
}

func (r *InquiryRepo) list(ctx context.Context, q string, args ...any) ([]model.Inquiry, error) {
	rows, err := r.db.Pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	defer rows.Close()
	var out []model.Inquiry
	for rows.Next() {
		in, err := scanInquiry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan inquiry: %w", err)
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}

// Create inserts an inquiry. An unknown receiver surfaces as errs.ErrNotFound.
func (r *InquiryRepo) Create(ctx context.Context, in *model.Inquiry) error {
	const q = `
INSERT INTO inquiries (id, sender_id, receiver_id, subject, message)
VALUES ($1, $2, $3, $4, $5)
RETURNING read_status, sent_at`
	if err := r.db.Pool.QueryRow(ctx, q, in.ID, in.SenderID, in.ReceiverID, in.Subject, in.Message).
		Scan(&in.ReadStatus, &in.SentAt); err != nil {
		return mapWriteErr(err, "create inquiry")
	}
	return nil
}

// GetByID selects an inquiry.
func (r *InquiryRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Inquiry, error) {
	in, err := scanInquiry(r.db.Pool.QueryRow(ctx, `SELECT `+inquiryCols+` FROM inquiries WHERE id = $1`, id))
	if err != nil {
		return nil, mapRowErr(err, "get inquiry")
	}
	return in, nil
}

// List returns every inquiry, newest first.
func (r *InquiryRepo) List(ctx context.Context) ([]model.Inquiry, error) {
	return r.list(ctx, `SELECT `+inquiryCols+` FROM inquiries ORDER BY sent_at DESC`)
}

// ListReceived returns inquiries addressed to userID.
func (r *InquiryRepo) ListReceived(ctx context.Context, userID uuid.UUID) ([]model.Inquiry, error) {
	return r.list(ctx, `SELECT `+inquiryCols+` FROM inquiries WHERE receiver_id = $1 ORDER BY sent_at DESC`, userID)
}

// ListSent returns inquiries sent by userID.
func (r *InquiryRepo) ListSent(ctx context.Context, userID uuid.UUID) ([]model.Inquiry, error) {
	return r.list(ctx, `SELECT `+inquiryCols+` FROM inquiries WHERE sender_id = $1 ORDER BY sent_at DESC`, userID)
}

// SetReadStatus flips the read flag.
func (r *InquiryRepo) SetReadStatus(ctx context.Context, id uuid.UUID, read bool) (*model.Inquiry, error) {
	in, err := scanInquiry(r.db.Pool.QueryRow(ctx,
		`UPDATE inquiries SET read_status = $2 WHERE id = $1 RETURNING `+inquiryCols, id, read))
	if err != nil {
		return nil, mapRowErr(err, "set read status")
	}
	return in, nil
}

// Delete removes an inquiry.
func (r *InquiryRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM inquiries WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete inquiry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete inquiry: %w", errs.ErrNotFound)
	}
	return nil
}
