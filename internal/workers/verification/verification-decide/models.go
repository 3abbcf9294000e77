package verificationdecide

import (
	"context"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
)

type Input struct {
	VerificationID string `json:"verificationId"`
	Decision       string `json:"decision"`
	ReviewNotes    string `json:"reviewNotes,omitempty"`
	ReviewerID     string `json:"reviewerId"`
}

type Output struct {
	VerificationID     string `json:"verificationId"`
	VerificationStatus string `json:"verificationStatus"`
	EntityType         string `json:"entityType"`
	EntityID           string `json:"entityId"`
	EntityStatus       string `json:"entityStatus"`
	NotificationSent   bool   `json:"notificationSent"`
	NotificationError  string `json:"notificationError,omitempty"`
	DecisionReplayed   bool   `json:"decisionReplayed"`
}

// Decider is implemented by verification.Service.
type Decider interface {
	Decide(ctx context.Context, actor models.Actor, d models.Decision) (*models.DecisionResult, error)
}

type ServiceDependencies struct {
	Decider Decider
	Logger  logger.Logger
}
