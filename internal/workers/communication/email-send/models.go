package emailsend

import (
	"context"
	"time"

	"estate-admin/internal/common/logger"
	"estate-admin/internal/models"
	"estate-admin/internal/notify"
)

type Input struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
	SentBy  string `json:"sentBy"`
}

type Output struct {
	EmailSent bool      `json:"emailSent"`
	MessageID string    `json:"messageId,omitempty"`
	Provider  string    `json:"provider"`
	SentAt    time.Time `json:"sentAt"`
}

// Mailer is implemented by messages.Service.
type Mailer interface {
	SendEmail(ctx context.Context, actor models.Actor, msg notify.Message) (notify.Result, error)
}

type ServiceDependencies struct {
	Mailer Mailer
	Logger logger.Logger
}
