package users

import (
	"context"
	"regexp"
	"testing"
	"time"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
	"estate-admin/internal/services/activity"
	"estate-admin/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	admin = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
)

func newTestService(t *testing.T) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(db).WithClock(func() time.Time { return now })
	log := logger.NewTestLogger(t)
	return NewService(st, activity.New(st, nil, "admin-activity", log), log), mock
}

func userRow(role, status string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "full_name", "phone", "role", "status", "created_at", "updated_at"}).
		AddRow("u1", "kemi@example.com", "Kemi", "", role, status, now, now)
}

func TestUpdate_SuspendUser(t *testing.T) {
	svc, mock := newTestService(t)
	suspended := models.UserSuspended

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("u1", "suspended", now).
		WillReturnRows(userRow("user", "suspended"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("audit-1", now))

	u, err := svc.Update(context.Background(), admin, "u1", models.UserUpdate{Status: &suspended})
	require.NoError(t, err)
	assert.Equal(t, models.UserSuspended, u.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_Validation(t *testing.T) {
	svc, mock := newTestService(t)
	badRole := models.Role("owner")
	blank := " "
	badPhone := "12"

	for name, upd := range map[string]models.UserUpdate{
		"empty":      {},
		"bad role":   {Role: &badRole},
		"blank name": {FullName: &blank},
		"bad phone":  {Phone: &badPhone},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Update(context.Background(), admin, "u1", upd)
			assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdate_AdminCannotDemoteSelf(t *testing.T) {
	svc, _ := newTestService(t)
	role := models.RoleUser

	_, err := svc.Update(context.Background(), admin, admin.UserID, models.UserUpdate{Role: &role})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeForbidden))
}

func TestUpdate_NotFound(t *testing.T) {
	svc, mock := newTestService(t)
	name := "New Name"

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users")).WillReturnRows(
		sqlmock.NewRows([]string{"id", "email", "full_name", "phone", "role", "status", "created_at", "updated_at"}))

	_, err := svc.Update(context.Background(), admin, "ghost", models.UserUpdate{FullName: &name})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeNotFound))
}

func TestList(t *testing.T) {
	svc, mock := newTestService(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM users")).
		WithArgs("agent", "", models.DefaultPageLimit, 0).
		WillReturnRows(userRow("agent", "active"))

	out, err := svc.List(context.Background(), admin, models.UserFilter{Role: models.RoleAgent})
	require.NoError(t, err)
	assert.Len(t, out, 1)

	_, err = svc.List(context.Background(), admin, models.UserFilter{Status: "banned"})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))

	_, err = svc.List(context.Background(), models.Actor{UserID: "x", Role: models.RoleAgent}, models.UserFilter{})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeForbidden))
}
