package store

import (
	"context"
	"database/sql"
	"errors"

	"estate-admin/internal/models"
)

const leadColumns = `id, agent_id, property_id, name, email, phone, status, priority, lead_score,
	source, closed_at, created_at, updated_at`

func scanLead(row scanner) (*models.Lead, error) {
	var (
		l          models.Lead
		propertyID sql.NullString
		closedAt   sql.NullTime
	)
	if err := row.Scan(&l.ID, &l.AgentID, &propertyID, &l.Name, &l.Email, &l.Phone, &l.Status, &l.Priority,
		&l.LeadScore, &l.Source, &closedAt, &l.CreatedAt, &l.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	l.PropertyID = nullString(propertyID)
	l.ClosedAt = nullTime(closedAt)
	return &l, nil
}

// AgentIDForUser returns the agents.id owned by a user.
func (s *Store) AgentIDForUser(ctx context.Context, userID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM agents WHERE user_id = $1`, userID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return id, err
}

// CreateLead inserts l and returns the stored row. Status, priority and
// score must already be defaulted and validated.
func (s *Store) CreateLead(ctx context.Context, l models.Lead) (*models.Lead, error) {
	var propertyID interface{}
	if l.PropertyID != nil {
		propertyID = *l.PropertyID
	}
	var closedAt interface{}
	now := s.now()
	if l.Status.Closed() {
		closedAt = now
	}

	row := s.db.QueryRowContext(ctx,
		`INSERT INTO leads (agent_id, property_id, name, email, phone, status, priority, lead_score, source, closed_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)
		 RETURNING `+leadColumns,
		l.AgentID, propertyID, l.Name, l.Email, l.Phone, string(l.Status), string(l.Priority), l.LeadScore, l.Source, closedAt, now)
	lead, err := scanLead(row)
	if err != nil {
		return nil, mapWriteError(err)
	}
	return lead, nil
}

func (s *Store) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	return scanLead(s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1`, id))
}

func (s *Store) LockLead(ctx context.Context, id string) (*models.Lead, error) {
	return scanLead(s.db.QueryRowContext(ctx, `SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, id))
}

func (s *Store) ListLeads(ctx context.Context, f models.LeadFilter) ([]models.Lead, error) {
	page := f.Page.Normalize()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+leadColumns+` FROM leads
		 WHERE ($1::text = '' OR agent_id::text = $1)
		   AND ($2::text = '' OR status = $2)
		 ORDER BY updated_at DESC
		 LIMIT $3 OFFSET $4`,
		f.AgentID, string(f.Status), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

// UpdateLeadStatus sets the status. Entering closed_won or closed_lost stamps
// closed_at; any other status leaves closed_at as it was.
func (s *Store) UpdateLeadStatus(ctx context.Context, id string, status models.LeadStatus) (*models.Lead, error) {
	row := s.db.QueryRowContext(ctx,
		`UPDATE leads
		 SET status = $2,
		     closed_at = CASE WHEN $3::boolean THEN $4 ELSE closed_at END,
		     updated_at = $4
		 WHERE id = $1
		 RETURNING `+leadColumns,
		id, string(status), status.Closed(), s.now())
	return scanLead(row)
}

func (s *Store) AddLeadActivity(ctx context.Context, a models.LeadActivity) (*models.LeadActivity, error) {
	var createdBy interface{}
	if a.CreatedBy != nil {
		createdBy = *a.CreatedBy
	}

	var (
		out models.LeadActivity
		by  sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO lead_activities (lead_id, activity_type, description, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, lead_id, activity_type, description, created_by, created_at`,
		a.LeadID, string(a.ActivityType), a.Description, createdBy, s.now()).
		Scan(&out.ID, &out.LeadID, &out.ActivityType, &out.Description, &by, &out.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	out.CreatedBy = nullString(by)
	return &out, nil
}

func (s *Store) ListLeadActivities(ctx context.Context, leadID string, page models.Page) ([]models.LeadActivity, error) {
	page = page.Normalize()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, activity_type, description, created_by, created_at
		 FROM lead_activities WHERE lead_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		leadID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.LeadActivity{}
	for rows.Next() {
		var (
			a  models.LeadActivity
			by sql.NullString
		)
		if err := rows.Scan(&a.ID, &a.LeadID, &a.ActivityType, &a.Description, &by, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.CreatedBy = nullString(by)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Store) AddLeadNote(ctx context.Context, n models.LeadNote) (*models.LeadNote, error) {
	var createdBy interface{}
	if n.CreatedBy != nil {
		createdBy = *n.CreatedBy
	}

	var (
		out models.LeadNote
		by  sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO lead_notes (lead_id, content, created_by, created_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, lead_id, content, created_by, created_at`,
		n.LeadID, n.Content, createdBy, s.now()).
		Scan(&out.ID, &out.LeadID, &out.Content, &by, &out.CreatedAt)
	if err != nil {
		return nil, mapWriteError(err)
	}
	out.CreatedBy = nullString(by)
	return &out, nil
}

func (s *Store) ListLeadNotes(ctx context.Context, leadID string, page models.Page) ([]models.LeadNote, error) {
	page = page.Normalize()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, lead_id, content, created_by, created_at
		 FROM lead_notes WHERE lead_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		leadID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.LeadNote{}
	for rows.Next() {
		var (
			n  models.LeadNote
			by sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.LeadID, &n.Content, &by, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.CreatedBy = nullString(by)
		out = append(out, n)
	}
	return out, rows.Err()
}
