package leads

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
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	now        = time.Date(2026, 6, 1, 11, 0, 0, 0, time.UTC)
	admin      = models.Actor{UserID: "admin-1", Role: models.RoleAdmin}
	agentActor = models.Actor{UserID: "user-7", Role: models.RoleAgent}
)

var leadCols = []string{"id", "agent_id", "property_id", "name", "email", "phone", "status", "priority",
	"lead_score", "source", "closed_at", "created_at", "updated_at"}

func leadRow(agentID, status string, closedAt interface{}) *sqlmock.Rows {
	return sqlmock.NewRows(leadCols).AddRow("l1", agentID, nil, "Buyer Bee", "bee@example.com", "+2348000000001",
		status, "medium", 40, "website", closedAt, now.Add(-24*time.Hour), now)
}

func newTestService(t *testing.T, strict bool) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	st := store.New(db).WithClock(func() time.Time { return now })
	log := logger.NewTestLogger(t)
	return NewService(st, activity.New(st, nil, "admin-activity", log), strict, log), mock
}

func expectAgentLookup(mock sqlmock.Sqlmock, agentID string) {
	rows := sqlmock.NewRows([]string{"id"})
	if agentID != "" {
		rows.AddRow(agentID)
	}
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM agents WHERE user_id = $1")).
		WithArgs(agentActor.UserID).
		WillReturnRows(rows)
}

func expectAudit(mock sqlmock.Sqlmock) {
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_log")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("audit-1", now))
}

func activityRow(description string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "lead_id", "activity_type", "description", "created_by", "created_at"}).
		AddRow("act-1", "l1", "status_change", description, "user-7", now)
}

// ==========================
// Create
// ==========================

func TestCreate_AgentDefaultsAndScope(t *testing.T) {
	svc, mock := newTestService(t, true)

	expectAgentLookup(mock, "agent-7")
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO leads")).
		WithArgs("agent-7", nil, "Buyer Bee", "bee@example.com", "", "new", "medium", 0, "website", nil, now).
		WillReturnRows(leadRow("agent-7", "new", nil))
	expectAudit(mock)

	lead, err := svc.Create(context.Background(), agentActor, NewLead{Name: "Buyer Bee", Email: "bee@example.com", Source: "website"})
	require.NoError(t, err)
	assert.Equal(t, "agent-7", lead.AgentID)
	assert.Equal(t, models.LeadNew, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Validation(t *testing.T) {
	svc, mock := newTestService(t, true)
	tooHigh := 101
	negative := -1

	tests := []struct {
		name string
		in   NewLead
	}{
		{"missing name", NewLead{AgentID: "a1"}},
		{"bad email", NewLead{AgentID: "a1", Name: "x", Email: "nope"}},
		{"bad status", NewLead{AgentID: "a1", Name: "x", Status: "lukewarm"}},
		{"bad priority", NewLead{AgentID: "a1", Name: "x", Priority: "asap"}},
		{"score above range", NewLead{AgentID: "a1", Name: "x", LeadScore: &tooHigh}},
		{"score below range", NewLead{AgentID: "a1", Name: "x", LeadScore: &negative}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), admin, tt.in)
			assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_AgentCannotCreateForOthers(t *testing.T) {
	svc, mock := newTestService(t, true)
	expectAgentLookup(mock, "agent-7")

	_, err := svc.Create(context.Background(), agentActor, NewLead{AgentID: "agent-9", Name: "x"})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeForbidden))
}

func TestCreate_AdminRequiresAgentAndMapsMissingAgent(t *testing.T) {
	svc, mock := newTestService(t, true)

	_, err := svc.Create(context.Background(), admin, NewLead{Name: "x"})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO leads")).WillReturnError(&pq.Error{Code: "23503"})
	_, err = svc.Create(context.Background(), admin, NewLead{AgentID: "ghost", Name: "x"})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))
}

// ==========================
// UpdateStatus
// ==========================

func TestUpdateStatus_ClosedWonStampsClosedAt(t *testing.T) {
	svc, mock := newTestService(t, true)

	mock.ExpectBegin()
	expectAgentLookup(mock, "agent-7")
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WithArgs("l1").WillReturnRows(leadRow("agent-7", "negotiating", nil))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE leads")).
		WithArgs("l1", "closed_won", true, now).
		WillReturnRows(leadRow("agent-7", "closed_won", now))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lead_activities")).
		WithArgs("l1", "status_change", "Status changed from negotiating to closed_won", "user-7", now).
		WillReturnRows(activityRow("Status changed from negotiating to closed_won"))
	expectAudit(mock)
	mock.ExpectCommit()

	lead, err := svc.UpdateStatus(context.Background(), agentActor, "l1", models.LeadClosedWon)
	require.NoError(t, err)
	require.NotNil(t, lead.ClosedAt)
	assert.Equal(t, now, *lead.ClosedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_OpenStatusKeepsClosedAt(t *testing.T) {
	svc, mock := newTestService(t, true)
	earlier := now.Add(-72 * time.Hour)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(leadRow("agent-7", "closed_lost", earlier))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE leads")).
		WithArgs("l1", "contacted", false, now).
		WillReturnRows(leadRow("agent-7", "contacted", earlier))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lead_activities")).WillReturnRows(activityRow("reopened"))
	expectAudit(mock)
	mock.ExpectCommit()

	lead, err := svc.UpdateStatus(context.Background(), admin, "l1", models.LeadContacted)
	require.NoError(t, err)
	require.NotNil(t, lead.ClosedAt)
	assert.Equal(t, earlier, *lead.ClosedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_ClosedWonIsTerminalWhenStrict(t *testing.T) {
	svc, mock := newTestService(t, true)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(leadRow("agent-7", "closed_won", now))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(context.Background(), admin, "l1", models.LeadNew)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeInvalidTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_OpenStatusMayRepeatWhenStrict(t *testing.T) {
	svc, mock := newTestService(t, true)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(leadRow("agent-7", "contacted", nil))
	mock.ExpectQuery(regexp.QuoteMeta("UPDATE leads")).
		WithArgs("l1", "contacted", false, now).
		WillReturnRows(leadRow("agent-7", "contacted", nil))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lead_activities")).
		WithArgs("l1", "status_change", "Status changed from contacted to contacted", "admin-1", now).
		WillReturnRows(activityRow("Status changed from contacted to contacted"))
	expectAudit(mock)
	mock.ExpectCommit()

	lead, err := svc.UpdateStatus(context.Background(), admin, "l1", models.LeadContacted)
	require.NoError(t, err)
	assert.Equal(t, models.LeadContacted, lead.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_ClosedWonCannotRepeatWhenStrict(t *testing.T) {
	svc, mock := newTestService(t, true)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(leadRow("agent-7", "closed_won", now))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(context.Background(), admin, "l1", models.LeadClosedWon)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeInvalidTransition))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_OtherAgentsLeadIsForbidden(t *testing.T) {
	svc, mock := newTestService(t, true)

	mock.ExpectBegin()
	expectAgentLookup(mock, "agent-7")
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).WillReturnRows(leadRow("agent-9", "new", nil))
	mock.ExpectRollback()

	_, err := svc.UpdateStatus(context.Background(), agentActor, "l1", models.LeadContacted)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeForbidden))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateStatus_RejectsBeforeQuerying(t *testing.T) {
	svc, mock := newTestService(t, true)

	_, err := svc.UpdateStatus(context.Background(), admin, "l1", "hot")
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))

	_, err = svc.UpdateStatus(context.Background(), models.Actor{}, "l1", models.LeadContacted)
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeUnauthorized))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Activities, notes, listing
// ==========================

func TestAddNote(t *testing.T) {
	svc, mock := newTestService(t, true)

	expectAgentLookup(mock, "agent-7")
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE id = $1")).WithArgs("l1").WillReturnRows(leadRow("agent-7", "new", nil))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lead_notes")).
		WithArgs("l1", "Prefers weekend viewings", "user-7", now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "content", "created_by", "created_at"}).
			AddRow("n1", "l1", "Prefers weekend viewings", "user-7", now))

	n, err := svc.AddNote(context.Background(), agentActor, "l1", "Prefers weekend viewings")
	require.NoError(t, err)
	assert.Equal(t, "n1", n.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddActivity_Validation(t *testing.T) {
	svc, _ := newTestService(t, true)

	_, err := svc.AddActivity(context.Background(), admin, "l1", "telepathy", "x")
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))

	_, err = svc.AddActivity(context.Background(), admin, "l1", models.ActivityCall, "")
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))
}

func TestGet_NotFound(t *testing.T) {
	svc, mock := newTestService(t, true)

	mock.ExpectQuery(regexp.QuoteMeta("FROM leads WHERE id = $1")).WillReturnRows(sqlmock.NewRows(leadCols))

	_, err := svc.Get(context.Background(), admin, "missing")
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeNotFound))
}

func TestList_AgentIsScoped(t *testing.T) {
	svc, mock := newTestService(t, true)

	expectAgentLookup(mock, "agent-7")
	mock.ExpectQuery(regexp.QuoteMeta("FROM leads")).
		WithArgs("agent-7", "", models.DefaultPageLimit, 0).
		WillReturnRows(leadRow("agent-7", "new", nil))

	out, err := svc.List(context.Background(), agentActor, models.LeadFilter{AgentID: "agent-9"})
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_UserWithoutAgentProfile(t *testing.T) {
	svc, mock := newTestService(t, true)
	expectAgentLookup(mock, "")

	_, err := svc.List(context.Background(), agentActor, models.LeadFilter{})
	assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeForbidden))
}
