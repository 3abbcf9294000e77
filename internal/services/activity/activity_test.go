package activity

import (
	"context"
	"encoding/json"
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
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

var admin = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}

type fakeIndex struct {
	indexed   map[string]interface{}
	indexErr  error
	hits      []database.SearchHit
	searchErr error
	lastQuery map[string]interface{}
}

func (f *fakeIndex) IndexDocument(ctx context.Context, index, id string, doc interface{}) error {
	if f.indexErr != nil {
		return f.indexErr
	}
	if f.indexed == nil {
		f.indexed = map[string]interface{}{}
	}
	f.indexed[index+"/"+id] = doc
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, index string, query map[string]interface{}) ([]database.SearchHit, int, error) {
	f.lastQuery = query
	return f.hits, len(f.hits), f.searchErr
}

func newTestLog(t *testing.T, idx Index) (*Log, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	st := store.New(db).WithClock(func() time.Time { return now })
	return New(st, idx, "admin-activity", logger.NewTestLogger(t)), mock
}

func auditRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "event_type", "resource_type", "resource_id", "actor_id", "details", "created_at"}).
		AddRow("a1", "report.status_changed", "report", "r1", "admin-1", []byte(`{"status":"resolved"}`), now)
}

func TestRecord_WritesAndIndexes(t *testing.T) {
	idx := &fakeIndex{}
	l, mock := newTestLog(t, idx)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a1", now))

	ev := &models.AuditEvent{EventType: models.EventUserUpdated, ResourceType: "user", ResourceID: "u1", ActorID: "admin-1"}
	require.NoError(t, l.Record(context.Background(), ev))

	assert.Equal(t, "a1", ev.ID)
	assert.Contains(t, idx.indexed, "admin-activity/a1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecord_IndexFailureIsNotFatal(t *testing.T) {
	l, mock := newTestLog(t, &fakeIndex{indexErr: errors.New("cluster down")})

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a1", now))

	assert.NoError(t, l.Record(context.Background(), &models.AuditEvent{EventType: "x", ResourceType: "user", ResourceID: "u1"}))
}

func TestRecord_DatabaseFailure(t *testing.T) {
	l, mock := newTestLog(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_log")).WillReturnError(errors.New("conn reset"))

	err := l.Record(context.Background(), &models.AuditEvent{EventType: "x", ResourceType: "user", ResourceID: "u1"})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeDatabaseUpdateFailed))
}

func TestSearch_UsesIndex(t *testing.T) {
	doc, _ := json.Marshal(models.AuditEvent{ID: "a9", EventType: "lead.created", ResourceType: "lead", ResourceID: "l1", CreatedAt: now})
	idx := &fakeIndex{hits: []database.SearchHit{{ID: "a9", Source: doc}}}
	l, mock := newTestLog(t, idx)

	events, err := l.Search(context.Background(), admin, models.ActivityQuery{Query: "lead", Page: models.Page{Limit: 5}})
	require.NoError(t, err)

	require.Len(t, events, 1)
	assert.Equal(t, "a9", events[0].ID)
	assert.Equal(t, 5, idx.lastQuery["size"])
	assert.Contains(t, idx.lastQuery["query"], "multi_match")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSearch_FallsBackToPostgres(t *testing.T) {
	l, mock := newTestLog(t, &fakeIndex{searchErr: errors.New("index_not_found")})

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_log")).
		WithArgs("report", "%report%", models.DefaultPageLimit, 0).
		WillReturnRows(auditRows())

	events, err := l.Search(context.Background(), admin, models.ActivityQuery{Query: "report"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "resolved", events[0].Details["status"])
}

func TestSearch_WithoutIndex(t *testing.T) {
	l, mock := newTestLog(t, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_log")).WillReturnRows(auditRows())

	events, err := l.Search(context.Background(), admin, models.ActivityQuery{})
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestSearch_RequiresAdmin(t *testing.T) {
	l, _ := newTestLog(t, nil)

	_, err := l.Search(context.Background(), models.Actor{}, models.ActivityQuery{})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeUnauthorized))

	_, err = l.Search(context.Background(), models.Actor{UserID: "u", Role: models.RoleAgent}, models.ActivityQuery{})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeForbidden))
}
