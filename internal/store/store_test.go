package store

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"estate-admin/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(db).WithClock(func() time.Time { return fixedNow }), mock
}

func verificationRow(id, entityType, entityID, status string, notes interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "document_type", "document_url", "status",
		"review_notes", "reviewed_by", "reviewed_at", "created_at", "updated_at"}).
		AddRow(id, entityType, entityID, "license", "https://docs.example.com/a.pdf", status,
			notes, nil, nil, fixedNow.Add(-time.Hour), fixedNow.Add(-time.Hour))
}

// ==========================
// Verifications
// ==========================

func TestGetVerification_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM verifications WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := s.GetVerification(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetVerification_ParsesEntityRef(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM verifications WHERE id = $1")).
		WithArgs("v1").
		WillReturnRows(verificationRow("v1", "property", "p1", "pending", nil))

	v, err := s.GetVerification(context.Background(), "v1")
	require.NoError(t, err)
	assert.Equal(t, models.PropertyRef{ID: "p1"}, v.Entity)
	assert.Equal(t, models.VerificationPending, v.Status)
	assert.Nil(t, v.ReviewNotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideVerification(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE verifications")).
		WithArgs("v1", "rejected", "Expired ID", "admin-1", fixedNow).
		WillReturnRows(verificationRow("v1", "agent", "a1", "rejected", "Expired ID"))

	v, err := s.DecideVerification(context.Background(), models.Decision{
		VerificationID: "v1",
		Status:         models.VerificationRejected,
		ReviewNotes:    "Expired ID",
		ReviewerID:     "admin-1",
	})
	require.NoError(t, err)
	require.NotNil(t, v.ReviewNotes)
	assert.Equal(t, "Expired ID", *v.ReviewNotes)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDecideVerification_UnknownReviewerMapsToReferenceMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE verifications")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "verifications_reviewed_by_fkey"})

	_, err := s.DecideVerification(context.Background(), models.Decision{
		VerificationID: "v1",
		Status:         models.VerificationApproved,
		ReviewerID:     "6f1c2a9e-3b4d-4e5f-8a7b-9c0d1e2f3a4b",
	})
	assert.ErrorIs(t, err, ErrReferenceMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetEntityStatus(t *testing.T) {
	tests := []struct {
		name     string
		ref      models.EntityRef
		table    string
		affected int64
		wantErr  error
	}{
		{"agent", models.AgentRef{ID: "a1"}, "UPDATE agents", 1, nil},
		{"property", models.PropertyRef{ID: "p1"}, "UPDATE properties", 1, nil},
		{"deleted agent", models.AgentRef{ID: "gone"}, "UPDATE agents", 0, ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockStore(t)
			mock.ExpectExec(regexp.QuoteMeta(tt.table)).
				WithArgs(tt.ref.EntityID(), "verified", fixedNow).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := s.SetEntityStatus(context.Background(), tt.ref, models.EntityVerified)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEntityOwner_Agent(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM agents a JOIN users u ON u.id = a.user_id")).
		WithArgs("a1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "phone"}).
			AddRow("u1", "agent@example.com", "Ada Agent", "+2348000000000"))

	owner, err := s.EntityOwner(context.Background(), models.AgentRef{ID: "a1"})
	require.NoError(t, err)
	assert.Equal(t, "agent@example.com", owner.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_CommitsAndRollsBack(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE agents")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := s.InTx(context.Background(), func(tx *Store) error {
		return tx.SetEntityStatus(context.Background(), models.AgentRef{ID: "a1"}, models.EntityVerified)
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Reports
// ==========================

func TestUpdateReportStatus(t *testing.T) {
	s, mock := newMockStore(t)
	notes := "Refunded buyer"

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE reports")).
		WithArgs("r1", "resolved", notes, "admin-1", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "entity_type", "entity_id", "reporter_id", "reason", "description",
			"status", "admin_notes", "reviewed_by", "reviewed_at", "created_at", "updated_at"}).
			AddRow("r1", "property", "p1", "u9", "scam", "", "resolved", notes, "admin-1", fixedNow, fixedNow, fixedNow))

	r, err := s.UpdateReportStatus(context.Background(), models.ReportStatusChange{
		ReportID: "r1", Status: models.ReportResolved, AdminNotes: &notes, ReviewerID: "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReportResolved, r.Status)
	require.NotNil(t, r.ReviewedAt)
	assert.Equal(t, fixedNow, *r.ReviewedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateReportStatus_UnknownReviewerMapsToReferenceMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE reports")).
		WillReturnError(&pq.Error{Code: "23503", Constraint: "reports_reviewed_by_fkey"})

	_, err := s.UpdateReportStatus(context.Background(), models.ReportStatusChange{
		ReportID: "r1", Status: models.ReportDismissed, ReviewerID: "6f1c2a9e-3b4d-4e5f-8a7b-9c0d1e2f3a4b",
	})
	assert.ErrorIs(t, err, ErrReferenceMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Leads
// ==========================

func leadRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "agent_id", "property_id", "name", "email", "phone", "status", "priority",
		"lead_score", "source", "closed_at", "created_at", "updated_at"})
}

func TestUpdateLeadStatus_ClosedStampsClosedAt(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE leads")).
		WithArgs("l1", "closed_won", true, fixedNow).
		WillReturnRows(leadRows().AddRow("l1", "a1", nil, "Buyer", "b@example.com", "", "closed_won", "high", 80, "web", fixedNow, fixedNow, fixedNow))

	lead, err := s.UpdateLeadStatus(context.Background(), "l1", models.LeadClosedWon)
	require.NoError(t, err)
	require.NotNil(t, lead.ClosedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLeadStatus_OpenStatusKeepsClosedAt(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE leads")).
		WithArgs("l1", "contacted", false, fixedNow).
		WillReturnRows(leadRows().AddRow("l1", "a1", nil, "Buyer", "", "", "contacted", "medium", 10, "", nil, fixedNow, fixedNow))

	lead, err := s.UpdateLeadStatus(context.Background(), "l1", models.LeadContacted)
	require.NoError(t, err)
	assert.Nil(t, lead.ClosedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateLead_MissingAgentMapsToReferenceMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO leads")).
		WillReturnError(&pq.Error{Code: "23503", Message: "violates foreign key constraint"})

	_, err := s.CreateLead(context.Background(), models.Lead{
		AgentID: "nope", Name: "Buyer", Status: models.LeadNew, Priority: models.PriorityMedium,
	})
	assert.ErrorIs(t, err, ErrReferenceMissing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAgentIDForUser_NotFound(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM agents WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := s.AgentIDForUser(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Users, stats, audit
// ==========================

func TestUpdateUser_OnlySetsGivenFields(t *testing.T) {
	s, mock := newMockStore(t)
	status := models.UserSuspended

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE users SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("u1", "suspended", fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "full_name", "phone", "role", "status", "created_at", "updated_at"}).
			AddRow("u1", "x@example.com", "X", "", "user", "suspended", fixedNow, fixedNow))

	u, err := s.UpdateUser(context.Background(), "u1", models.UserUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.UserSuspended, u.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveAccount(t *testing.T) {
	const adminID = "6f1c2a9e-3b4d-4e5f-8a7b-9c0d1e2f3a4b"
	query := regexp.QuoteMeta("WHERE id::text = $1 OR")
	cols := []string{"id", "email", "full_name", "phone", "role", "status", "created_at", "updated_at"}

	t.Run("matched by email", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(query).
			WithArgs("kc-sub-7", "Ops@Estate.example").
			WillReturnRows(sqlmock.NewRows(cols).
				AddRow(adminID, "ops@estate.example", "Ops", "", "admin", "active", fixedNow, fixedNow))

		u, err := s.ResolveAccount(context.Background(), "kc-sub-7", "Ops@Estate.example")
		require.NoError(t, err)
		assert.Equal(t, adminID, u.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no account", func(t *testing.T) {
		s, mock := newMockStore(t)
		mock.ExpectQuery(query).WithArgs("kc-sub-7", "").WillReturnRows(sqlmock.NewRows(cols))

		_, err := s.ResolveAccount(context.Background(), "kc-sub-7", "")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCountReportsIn(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reports WHERE status = ANY($1)")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := s.CountReportsIn(context.Background(), []string{"new", "investigating"})
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountUsersByRole(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT role, COUNT(*) FROM users GROUP BY role")).
		WillReturnRows(sqlmock.NewRows([]string{"role", "count"}).AddRow("user", 10).AddRow("agent", 3))

	counts, err := s.CountUsersByRole(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"user": 10, "agent": 3}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertAndSearchAudit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO audit_log")).
		WithArgs("verification.approved", "verification", "v1", "admin-1", sqlmock.AnyArg(), fixedNow).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("ev1", fixedNow))

	ev := &models.AuditEvent{
		EventType: models.EventVerificationApproved, ResourceType: "verification", ResourceID: "v1", ActorID: "admin-1",
		Details: map[string]interface{}{"entity_type": "agent"},
	}
	require.NoError(t, s.InsertAudit(context.Background(), ev))
	assert.Equal(t, "ev1", ev.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_log")).
		WithArgs("verification", "%verification%", models.DefaultPageLimit, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "resource_type", "resource_id", "actor_id", "details", "created_at"}).
			AddRow("ev1", "verification.approved", "verification", "v1", "admin-1", []byte(`{"entity_type":"agent"}`), fixedNow))

	events, err := s.SearchAudit(context.Background(), models.ActivityQuery{Query: "verification"})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "agent", events[0].Details["entity_type"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
