package verificationremind

import (
	"context"
	"time"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
)

// Input is empty for a scheduled sweep; OlderThanHours overrides the
// configured threshold when set.
type Input struct {
	OlderThanHours int `json:"olderThanHours,omitempty"`
}

type Output struct {
	RemindersChecked int      `json:"remindersChecked"`
	RemindersSent    int      `json:"remindersSent"`
	RemindersFailed  []string `json:"remindersFailed"`
}

type Reminder interface {
	SendReminders(ctx context.Context, olderThan time.Duration) (*models.ReminderResult, error)
}

type ServiceDependencies struct {
	Reminder Reminder
	Logger   logger.Logger
}
