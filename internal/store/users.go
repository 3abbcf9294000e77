package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"estate-admin/internal/models"
)

const userColumns = `id, email, full_name, phone, role, status, created_at, updated_at`

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Phone, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// ResolveAccount finds the users row behind an identity provider subject.
// A subject equal to users.id wins; otherwise the account is matched by
// email, case-insensitively.
func (s *Store) ResolveAccount(ctx context.Context, subject, email string) (*models.User, error) {
	return scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE id::text = $1 OR ($2 <> '' AND lower(email) = lower($2))
		 ORDER BY (id::text = $1) DESC
		 LIMIT 1`,
		subject, email))
}

func (s *Store) ListUsers(ctx context.Context, f models.UserFilter) ([]models.User, error) {
	page := f.Page.Normalize()
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE ($1::text = '' OR role = $1)
		   AND ($2::text = '' OR status = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`,
		string(f.Role), string(f.Status), page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

// UpdateUser applies the non-nil fields of upd.
func (s *Store) UpdateUser(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	sets := []string{}
	args := []interface{}{id}
	add := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if upd.Role != nil {
		add("role", string(*upd.Role))
	}
	if upd.Status != nil {
		add("status", string(*upd.Status))
	}
	if upd.FullName != nil {
		add("full_name", *upd.FullName)
	}
	if upd.Phone != nil {
		add("phone", *upd.Phone)
	}
	add("updated_at", s.now())

	query := `UPDATE users SET ` + strings.Join(sets, ", ") + ` WHERE id = $1 RETURNING ` + userColumns
	return scanUser(s.db.QueryRowContext(ctx, query, args...))
}
