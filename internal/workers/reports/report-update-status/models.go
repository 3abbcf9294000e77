package reportupdatestatus

import (
	"context"
	"time"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
)

type Input struct {
	ReportID   string  `json:"reportId"`
	Status     string  `json:"status"`
	AdminNotes *string `json:"adminNotes,omitempty"`
	ReviewerID string  `json:"reviewerId"`
}

type Output struct {
	ReportID     string     `json:"reportId"`
	ReportStatus string     `json:"reportStatus"`
	ReviewedBy   string     `json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time `json:"reviewedAt,omitempty"`
}

// StatusSetter is implemented by reports.Service.
type StatusSetter interface {
	SetStatus(ctx context.Context, actor models.Actor, reportID string, status models.ReportStatus, adminNotes *string) (*models.Report, error)
}

type ServiceDependencies struct {
	Reports StatusSetter
	Logger  logger.Logger
}
