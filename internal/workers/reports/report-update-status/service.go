package reportupdatestatus

import (
	"context"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
)

type Service struct {
	reports StatusSetter
	logger  logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{reports: deps.Reports, logger: deps.Logger}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	report, err := s.reports.SetStatus(ctx, models.SystemActor(input.ReviewerID), input.ReportID,
		models.ReportStatus(input.Status), input.AdminNotes)
	if err != nil {
		return nil, err
	}

	out := &Output{
		ReportID:     report.ID,
		ReportStatus: string(report.Status),
		ReviewedAt:   report.ReviewedAt,
	}
	if report.ReviewedBy != nil {
		out.ReviewedBy = *report.ReviewedBy
	}
	return out, nil
}
