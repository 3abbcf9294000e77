// Package store holds the Postgres repositories for the admin backend.
package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"estate-admin/internal/common/database"

	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when an addressed row does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrReferenceMissing is returned when a foreign key target does not exist.
	ErrReferenceMissing = errors.New("referenced record does not exist")
)

// Postgres error codes the repositories translate.
const (
	pqInvalidTextRepresentation = "22P02"
	pqForeignKeyViolation       = "23503"
)

// Store runs queries against a *sql.DB or, inside InTx, a *sql.Tx.
type Store struct {
	db   database.DBTX
	root *sql.DB
	now  func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, root: db, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the timestamp source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	cp := *s
	cp.now = now
	return &cp
}

// Now returns the store's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// InTx runs fn against a transaction-bound copy of the store. Calling InTx
// on a store that is already inside a transaction reuses it.
func (s *Store) InTx(ctx context.Context, fn func(tx *Store) error) error {
	if _, already := s.db.(*sql.Tx); already || s.root == nil {
		return fn(s)
	}
	return database.WithTx(ctx, s.root, func(tx database.DBTX) error {
		cp := *s
		cp.db = tx
		return fn(&cp)
	})
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func nullTime(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}

// mapWriteError converts foreign-key violations into ErrReferenceMissing.
func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqForeignKeyViolation {
		return ErrReferenceMissing
	}
	return err
}

// IsMalformedValue reports whether Postgres rejected a parameter that does
// not parse as its column type, e.g. a non-UUID string compared to a uuid id.
func IsMalformedValue(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pqInvalidTextRepresentation
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
