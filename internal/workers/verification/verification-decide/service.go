package verificationdecide

import (
	"context"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
)

type Service struct {
	decider Decider
	logger  logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{
		decider: deps.Decider,
		logger:  deps.Logger,
	}
}

// Execute applies the decision as the named reviewer. A failed owner
// notification is reported in the output, not as a job failure. A
// redelivered job whose decision already landed completes as a replay.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	result, err := s.decider.Decide(ctx, models.SystemActor(input.ReviewerID), models.Decision{
		VerificationID: input.VerificationID,
		Status:         models.VerificationStatus(input.Decision),
		ReviewNotes:    input.ReviewNotes,
	})
	if err != nil {
		return nil, err
	}

	v := result.Verification
	if !result.NotificationSent && !result.Replayed {
		s.logger.Warn("Owner notification not delivered", map[string]interface{}{
			"verificationId": v.ID,
			"error":          result.NotificationError,
		})
	}
	return &Output{
		VerificationID:     v.ID,
		VerificationStatus: string(v.Status),
		EntityType:         string(v.EntityType),
		EntityID:           v.EntityID,
		EntityStatus:       string(result.EntityStatus),
		NotificationSent:   result.NotificationSent,
		NotificationError:  result.NotificationError,
		DecisionReplayed:   result.Replayed,
	}, nil
}
