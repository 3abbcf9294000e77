package stats

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"estate-admin/internal/common/database"
	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
	"estate-admin/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now   = time.Date(2026, 7, 7, 7, 0, 0, 0, time.UTC)
	admin = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
)

func newTestService(t *testing.T, cache Cache, ttl time.Duration) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)

	st := store.New(db).WithClock(func() time.Time { return now })
	return NewService(st, cache, ttl, logger.NewTestLogger(t)), mock
}

func countRow(n int) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"count"}).AddRow(n)
}

func expectAllCounts(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta("FROM verifications WHERE status = $1")).WithArgs("pending").WillReturnRows(countRow(4))
	mock.ExpectQuery(regexp.QuoteMeta("FROM agents WHERE verification_status = $1")).WithArgs("pending").WillReturnRows(countRow(3))
	mock.ExpectQuery(regexp.QuoteMeta("FROM properties WHERE verification_status = $1")).WithArgs("pending").WillReturnRows(countRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("FROM reports WHERE status = ANY($1)")).WillReturnRows(countRow(2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE created_at >= $1")).
		WithArgs(now.Add(-7 * 24 * time.Hour)).
		WillReturnRows(countRow(9))
	mock.ExpectQuery(regexp.QuoteMeta("FROM users GROUP BY role")).
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).AddRow("user", 40).AddRow("agent", 6).AddRow("admin", 2))
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("new", 5).AddRow("closed_won", 1))
}

func TestDashboard_Aggregates(t *testing.T) {
	svc, mock := newTestService(t, nil, 0)
	expectAllCounts(mock)

	out, err := svc.Dashboard(context.Background(), admin)
	require.NoError(t, err)

	assert.Equal(t, 4, out.PendingVerifications)
	assert.Equal(t, 3, out.PendingAgents)
	assert.Equal(t, 1, out.PendingProperties)
	assert.Equal(t, 2, out.OpenReports)
	assert.Equal(t, 9, out.NewLeadsLast7Days)
	assert.Equal(t, map[string]int{"user": 40, "agent": 6, "admin": 2}, out.UsersByRole)
	assert.Equal(t, 5, out.LeadsByStatus["new"])
	assert.Equal(t, now, out.GeneratedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDashboard_QueryFailure(t *testing.T) {
	svc, mock := newTestService(t, nil, 0)
	mock.ExpectQuery(regexp.QuoteMeta("FROM verifications")).WillReturnError(errors.New("too many connections"))
	mock.ExpectQuery(".*").WillReturnRows(countRow(0))
	mock.ExpectQuery(".*").WillReturnRows(countRow(0))
	mock.ExpectQuery(".*").WillReturnRows(countRow(0))
	mock.ExpectQuery(".*").WillReturnRows(countRow(0))
	mock.ExpectQuery(".*").WillReturnRows(sqlmock.NewRows([]string{"k", "count"}))
	mock.ExpectQuery(".*").WillReturnRows(sqlmock.NewRows([]string{"k", "count"}))

	_, err := svc.Dashboard(context.Background(), admin)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeDatabaseQueryFailed))
}

func TestDashboard_UsesRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	cache := database.NewJSONCache(rdb, "stats:")

	svc, mock := newTestService(t, cache, 30*time.Second)
	expectAllCounts(mock)

	first, err := svc.Dashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.True(t, mr.Exists("stats:dashboard"))

	// served from cache: no further query expectations are registered
	second, err := svc.Dashboard(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, first.PendingVerifications, second.PendingVerifications)
	assert.Equal(t, first.UsersByRole, second.UsersByRole)
	assert.NoError(t, mock.ExpectationsWereMet())

	mr.FastForward(31 * time.Second)
	assert.False(t, mr.Exists("stats:dashboard"))
}

func TestDashboard_RequiresAdmin(t *testing.T) {
	svc, _ := newTestService(t, nil, 0)

	_, err := svc.Dashboard(context.Background(), models.Actor{UserID: "u1", Role: models.RoleUser})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeForbidden))
}
