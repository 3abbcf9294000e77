package leadcreate

import (
	"context"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
	"estate-admin/internal/services/leads"
)

type Input struct {
	AgentID    string  `json:"agentId"`
	PropertyID *string `json:"propertyId,omitempty"`
	Name       string  `json:"name"`
	Email      string  `json:"email,omitempty"`
	Phone      string  `json:"phone,omitempty"`
	Status     string  `json:"status,omitempty"`
	Priority   string  `json:"priority,omitempty"`
	LeadScore  *int    `json:"leadScore,omitempty"`
	Source     string  `json:"source,omitempty"`
	CreatedBy  string  `json:"createdBy"`
}

type Output struct {
	LeadID       string `json:"leadId"`
	LeadStatus   string `json:"leadStatus"`
	LeadPriority string `json:"leadPriority"`
	LeadScore    int    `json:"leadScore"`
}

// Creator is implemented by leads.Service.
type Creator interface {
	Create(ctx context.Context, actor models.Actor, in leads.NewLead) (*models.Lead, error)
}

type ServiceDependencies struct {
	Creator       Creator
	DefaultSource string
	Logger        logger.Logger
}
