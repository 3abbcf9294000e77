package store

import (
	"context"
	"database/sql"
	"errors"

	"estate-admin/internal/models"
)

const reportColumns = `id, entity_type, entity_id, reporter_id, reason, description, status,
	admin_notes, reviewed_by, reviewed_at, created_at, updated_at`

func scanReport(row scanner) (*models.Report, error) {
	var (
		r          models.Report
		reporterID sql.NullString
		notes      sql.NullString
		reviewedBy sql.NullString
		reviewedAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.EntityType, &r.EntityID, &reporterID, &r.Reason, &r.Description, &r.Status,
		&notes, &reviewedBy, &reviewedAt, &r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	r.ReporterID = nullString(reporterID)
	r.AdminNotes = nullString(notes)
	r.ReviewedBy = nullString(reviewedBy)
	r.ReviewedAt = nullTime(reviewedAt)
	return &r, nil
}

func (s *Store) GetReport(ctx context.Context, id string) (*models.Report, error) {
	return scanReport(s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
}

func (s *Store) LockReport(ctx context.Context, id string) (*models.Report, error) {
	return scanReport(s.db.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1 FOR UPDATE`, id))
}

func (s *Store) ListReports(ctx context.Context, f models.ReportFilter) ([]models.Report, error) {
	page := f.Page.Normalize()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports
		 WHERE ($1::text = '' OR status = $1)
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		string(f.Status), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *r)
	}
	return out, rows.Err()
}

// UpdateReportStatus writes the new status and reviewer. admin_notes is only
// overwritten when the change carries notes.
func (s *Store) UpdateReportStatus(ctx context.Context, c models.ReportStatusChange) (*models.Report, error) {
	var notes interface{}
	if c.AdminNotes != nil {
		notes = *c.AdminNotes
	}
	row := s.db.QueryRowContext(ctx,
		`UPDATE reports
		 SET status = $2, admin_notes = COALESCE($3::text, admin_notes), reviewed_by = $4, reviewed_at = $5, updated_at = $5
		 WHERE id = $1
		 RETURNING `+reportColumns,
		c.ReportID, string(c.Status), notes, c.ReviewerID, s.now())
	r, err := scanReport(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return r, nil
}
