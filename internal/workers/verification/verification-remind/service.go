package verificationremind

import (
	"context"
	"time"

	"estate-admin/internal/common/logger"
)

type Service struct {
	reminder Reminder
	logger   logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{reminder: deps.Reminder, logger: deps.Logger}
}

func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	olderThan := time.Duration(input.OlderThanHours) * time.Hour

	result, err := s.reminder.SendReminders(ctx, olderThan)
	if err != nil {
		return nil, err
	}

	failed := result.Failed
	if failed == nil {
		failed = []string{}
	}
	if len(failed) > 0 {
		s.logger.Warn("Some reminders were not delivered", map[string]interface{}{
			"failed": failed,
		})
	}
	return &Output{
		RemindersChecked: result.Checked,
		RemindersSent:    result.Sent,
		RemindersFailed:  failed,
	}, nil
}
