package emailsend

import (
	"context"

	"estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/common/validation"
	"estate-admin/internal/models"
	"estate-admin/internal/notify"
)

type Service struct {
	mailer Mailer
	logger logger.Logger
}

func NewService(deps ServiceDependencies) *Service {
	return &Service{mailer: deps.Mailer, logger: deps.Logger}
}

// Execute sends one email. Unlike decision notifications a delivery
// failure fails the job so the broker can retry it.
func (s *Service) Execute(ctx context.Context, input *Input) (*Output, error) {
	if validation.IsBlank(input.HTML) && validation.IsBlank(input.Text) {
		return nil, errors.NewValidationError("one of html or text is required")
	}

	res, err := s.mailer.SendEmail(ctx, models.SystemActor(input.SentBy), notify.Message{
		To:      input.To,
		Subject: input.Subject,
		HTML:    input.HTML,
		Text:    input.Text,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		EmailSent: res.Delivered,
		MessageID: res.MessageID,
		Provider:  res.Provider,
		SentAt:    res.SentAt,
	}, nil
}
