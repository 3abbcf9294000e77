package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"estate-admin/internal/models"
)

const verificationColumns = `id, entity_type, entity_id, document_type, document_url, status,
	review_notes, reviewed_by, reviewed_at, created_at, updated_at`

func scanVerification(row scanner) (*models.Verification, error) {
	var (
		v          models.Verification
		entityType string
		notes      sql.NullString
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
	)
	if err := row.Scan(&v.ID, &entityType, &v.EntityID, &v.DocumentType, &v.DocumentURL, &v.Status,
		&notes, &reviewedBy, &reviewedAt, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	ref, err := models.ParseEntityRef(entityType, v.EntityID)
	if err != nil {
		return nil, fmt.Errorf("verification %s: %w", v.ID, err)
	}
	v.Entity = ref
	v.EntityType = ref.EntityType()
	v.ReviewNotes = nullString(notes)
	v.ReviewedBy = nullString(reviewedBy)
	v.ReviewedAt = nullTime(reviewedAt)
	return &v, nil
}

// GetVerification loads one verification request.
func (s *Store) GetVerification(ctx context.Context, id string) (*models.Verification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications WHERE id = $1`, id)
	return scanVerification(row)
}

// LockVerification loads a verification and holds a row lock until the
// surrounding transaction ends. Outside a transaction it behaves like Get.
func (s *Store) LockVerification(ctx context.Context, id string) (*models.Verification, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications WHERE id = $1 FOR UPDATE`, id)
	return scanVerification(row)
}

func (s *Store) ListVerifications(ctx context.Context, f models.VerificationFilter) ([]models.Verification, error) {
	page := f.Page.Normalize()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications
		 WHERE ($1::text = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		string(f.Status), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Verification{}
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// ListStalePending returns pending verifications created before cutoff, oldest first.
func (s *Store) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Verification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+verificationColumns+` FROM verifications
		 WHERE status = 'pending' AND created_at < $1
		 ORDER BY created_at ASC
		 LIMIT $2`,
		cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Verification{}
	for rows.Next() {
		v, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

// DecideVerification writes status, reviewer, notes and reviewed_at.
func (s *Store) DecideVerification(ctx context.Context, d models.Decision) (*models.Verification, error) {
	var notes interface{}
	if d.ReviewNotes != "" {
		notes = d.ReviewNotes
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE verifications
		 SET status = $2, review_notes = $3, reviewed_by = $4, reviewed_at = $5, updated_at = $5
		 WHERE id = $1
		 RETURNING `+verificationColumns,
		d.VerificationID, string(d.Status), notes, d.ReviewerID, s.now())
	v, err := scanVerification(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return v, nil
}

// SetEntityStatus updates the verification_status of the referenced agent
// or property. It returns ErrNotFound when the row is gone.
func (s *Store) SetEntityStatus(ctx context.Context, ref models.EntityRef, status models.EntityVerificationStatus) error {
	var query string
	switch ref.(type) {
	case models.AgentRef:
		query = `UPDATE agents SET verification_status = $2, updated_at = $3 WHERE id = $1`
	case models.PropertyRef:
		query = `UPDATE properties SET verification_status = $2, updated_at = $3 WHERE id = $1`
	default:
		return fmt.Errorf("unsupported entity ref %T", ref)
	}

	res, err := s.db.ExecContext(ctx, query, ref.EntityID(), string(status), s.now())
	if err != nil {
		return err
	}
	return requireOneRow(res)
}

// EntityOwner returns the user who owns the referenced agent or property.
func (s *Store) EntityOwner(ctx context.Context, ref models.EntityRef) (*models.Owner, error) {
	var query string
	switch ref.(type) {
	case models.AgentRef:
		query = `SELECT u.id, u.email, u.full_name, u.phone
		         FROM agents a JOIN users u ON u.id = a.user_id WHERE a.id = $1`
	case models.PropertyRef:
		query = `SELECT u.id, u.email, u.full_name, u.phone
		         FROM properties p JOIN users u ON u.id = p.owner_id WHERE p.id = $1`
	default:
		return nil, fmt.Errorf("unsupported entity ref %T", ref)
	}

	var o models.Owner
	err := s.db.QueryRowContext(ctx, query, ref.EntityID()).Scan(&o.UserID, &o.Email, &o.FullName, &o.Phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}
