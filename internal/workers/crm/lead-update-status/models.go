package leadupdatestatus

import (
	"context"
	"time"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
)

type Input struct {
	LeadID    string `json:"leadId"`
	Status    string `json:"status"`
	UpdatedBy string `json:"updatedBy"`
}

type Output struct {
	LeadID       string     `json:"leadId"`
	LeadStatus   string     `json:"leadStatus"`
	LeadClosed   bool       `json:"leadClosed"`
	LeadClosedAt *time.Time `json:"leadClosedAt,omitempty"`
}

type StatusUpdater interface {
	UpdateStatus(ctx context.Context, actor models.Actor, leadID string, status models.LeadStatus) (*models.Lead, error)
}

type ServiceDependencies struct {
	Leads  StatusUpdater
	Logger logger.Logger
}
