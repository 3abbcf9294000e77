package leadupdatestatus

import (
	"context"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
)

type Service struct {
	leads  StatusUpdater
	logger logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{leads: deps.Leads, logger: deps.Logger}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	lead, err := s.leads.UpdateStatus(ctx, models.SystemActor(input.UpdatedBy), input.LeadID, models.LeadStatus(input.Status))
	if err != nil {
		return nil, err
	}
	return &Output{
		LeadID:       lead.ID,
		LeadStatus:   string(lead.Status),
		LeadClosed:   lead.ClosedAt != nil,
		LeadClosedAt: lead.ClosedAt,
	}, nil
}
