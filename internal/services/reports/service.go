// Package reports handles admin triage of user-filed reports and disputes.
package reports

import (
	"context"
	"fmt"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/common/metrics"
	"estate-admin/internal/common/observability"
	"estate-admin/internal/common/validation"
	"estate-admin/internal/models"
	"estate-admin/internal/services"
	"estate-admin/internal/services/activity"
	"estate-admin/internal/store"

	"go.opentelemetry.io/otel/attribute"
)

type Service struct {
	store    *store.Store
	activity *activity.Log
	strict   bool
	logger   logger.Logger
}

func NewService(st *store.Store, act *activity.Log, strictTransitions bool, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{store: st, activity: act, strict: strictTransitions, logger: log}
}

// SetStatus moves a report to a new status and stamps the reviewer. Notes
// are only overwritten when given. No one is notified.
func (s *Service) SetStatus(ctx context.Context, actor models.Actor, reportID string, status models.ReportStatus, adminNotes *string) (report *models.Report, err error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if validation.IsBlank(reportID) {
		return nil, stderrors.NewValidationError("report_id is required")
	}
	if !status.Valid() {
		return nil, stderrors.NewValidationError(fmt.Sprintf("unknown report status %q", status))
	}

	ctx, span := observability.StartSpan(ctx, "report.set_status",
		attribute.String("report.id", reportID),
		attribute.String("report.status", string(status)))
	defer func() { observability.EndSpan(span, err) }()

	var (
		updated *models.Report
		event   *models.AuditEvent
	)
	err = s.store.InTx(ctx, func(tx *store.Store) error {
		current, err := tx.LockReport(ctx, reportID)
		if err != nil {
			return services.ReadError(err, "report", reportID, "lock_report")
		}
		if s.strict && !models.ReportTransitions.Allows(current.Status, status) {
			return stderrors.NewInvalidTransitionError("report", string(current.Status), string(status))
		}

		updated, err = tx.UpdateReportStatus(ctx, models.ReportStatusChange{
			ReportID:   reportID,
			Status:     status,
			AdminNotes: adminNotes,
			ReviewerID: actor.UserID,
		})
		if err != nil {
			return services.WriteError(err, "report", reportID, "update_report_status")
		}

		event = &models.AuditEvent{
			EventType:    models.EventReportStatusChanged,
			ResourceType: "report",
			ResourceID:   reportID,
			ActorID:      actor.UserID,
			Details: map[string]interface{}{
				"previous_status": current.Status,
				"status":          status,
				"notes_updated":   adminNotes != nil,
			},
		}
		return s.activity.Write(ctx, tx, event)
	})
	if err != nil {
		return nil, services.WriteError(err, "report", reportID, "commit_report_status")
	}

	metrics.StatusChanges.WithLabelValues("report", string(status)).Inc()
	s.activity.Index(ctx, *event)
	s.logger.Info("report status changed", map[string]interface{}{
		"report_id":   reportID,
		"status":      status,
		"reviewer_id": actor.UserID,
	})
	return updated, nil
}

func (s *Service) Get(ctx context.Context, actor models.Actor, id string) (*models.Report, error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}
	r, err := s.store.GetReport(ctx, id)
	if err != nil {
		return nil, services.ReadError(err, "report", id, "get_report")
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, actor models.Actor, f models.ReportFilter) ([]models.Report, error) {
	if err := services.RequireAdmin(actor); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, stderrors.NewValidationError(fmt.Sprintf("unknown report status %q", f.Status))
	}
	out, err := s.store.ListReports(ctx, f)
	if err != nil {
		return nil, services.ReadError(err, "report", "", "list_reports")
	}
	return out, nil
}
