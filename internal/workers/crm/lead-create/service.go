package leadcreate

import (
	"context"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
	"estate-admin/internal/services/leads"
)

type Service struct {
	creator       Creator
	defaultSource string
	logger        logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{
		creator:       deps.Creator,
		defaultSource: deps.DefaultSource,
		logger:        deps.Logger,
	}
}

// Execute records the lead on behalf of createdBy. Status and priority
// defaults are applied by the lead service.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	source := input.Source
	if source == "" {
		source = s.defaultSource
	}

	lead, err := s.creator.Create(ctx, models.SystemActor(input.CreatedBy), leads.NewLead{
		AgentID:    input.AgentID,
		PropertyID: input.PropertyID,
		Name:       input.Name,
		Email:      input.Email,
		Phone:      input.Phone,
		Status:     models.LeadStatus(input.Status),
		Priority:   models.LeadPriority(input.Priority),
		LeadScore:  input.LeadScore,
		Source:     source,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Lead created", map[string]interface{}{
		"leadId":  lead.ID,
		"agentId": lead.AgentID,
		"source":  lead.Source,
	})
	return &Output{
		LeadID:       lead.ID,
		LeadStatus:   string(lead.Status),
		LeadPriority: string(lead.Priority),
		LeadScore:    lead.LeadScore,
	}, nil
}
