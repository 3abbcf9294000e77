package store

import (
	"context"
	"time"

	"github.com/lib/pq"
)

// CountVerificationsByStatus counts verification requests in status.
func (s *Store) CountVerificationsByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM verifications WHERE status = $1`, status).Scan(&n)
	return n, err
}

// CountAgentsByStatus counts agents by verification_status.
func (s *Store) CountAgentsByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM agents WHERE verification_status = $1`, status).Scan(&n)
	return n, err
}

// CountPropertiesByStatus counts properties by verification_status.
func (s *Store) CountPropertiesByStatus(ctx context.Context, status string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM properties WHERE verification_status = $1`, status).Scan(&n)
	return n, err
}

// CountReportsIn counts reports whose status is any of statuses.
func (s *Store) CountReportsIn(ctx context.Context, statuses []string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM reports WHERE status = ANY($1)`, pq.Array(statuses)).Scan(&n)
	return n, err
}

func (s *Store) CountUsersByRole(ctx context.Context) (map[string]int, error) {
	return s.groupCount(ctx, `SELECT role, COUNT(*) FROM users GROUP BY role`)
}

func (s *Store) CountLeadsByStatus(ctx context.Context) (map[string]int, error) {
	return s.groupCount(ctx, `SELECT status, COUNT(*) FROM leads GROUP BY status`)
}

func (s *Store) CountLeadsSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM leads WHERE created_at >= $1`, since).Scan(&n)
	return n, err
}

func (s *Store) groupCount(ctx context.Context, query string, args ...interface{}) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			key string
			n   int
		)
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		out[key] = n
	}
	return out, rows.Err()
}
