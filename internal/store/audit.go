package store

import (
	"context"
	"encoding/json"
	"fmt"

	"estate-admin/internal/models"
)

// InsertAudit appends an audit_log row and fills in its id and created_at.
func (s *Store) InsertAudit(ctx context.Context, ev *models.AuditEvent) error {
	details := ev.Details
	if details == nil {
		details = map[string]interface{}{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode audit details: %w", err)
	}

	return s.db.QueryRowContext(ctx,
		`INSERT INTO audit_log (event_type, resource_type, resource_id, actor_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		ev.EventType, ev.ResourceType, ev.ResourceID, ev.ActorID, raw, s.now()).
		Scan(&ev.ID, &ev.CreatedAt)
}

// SearchAudit matches q against event, resource type and resource id.
func (s *Store) SearchAudit(ctx context.Context, q models.ActivityQuery) ([]models.AuditEvent, error) {
	page := q.Page.Normalize()
	pattern := "%" + q.Query + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, event_type, resource_type, resource_id, actor_id, details, created_at
		 FROM audit_log
		 WHERE ($1::text = '' OR event_type ILIKE $2 OR resource_type ILIKE $2 OR resource_id ILIKE $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		q.Query, pattern, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.AuditEvent{}
	for rows.Next() {
		var (
			ev  models.AuditEvent
			raw []byte
		)
		if err := rows.Scan(&ev.ID, &ev.EventType, &ev.ResourceType, &ev.ResourceID, &ev.ActorID, &raw, &ev.CreatedAt); err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &ev.Details); err != nil {
				return nil, fmt.Errorf("decode audit details %s: %w", ev.ID, err)
			}
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}
