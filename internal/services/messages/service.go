// Package messages sends ad-hoc admin email and records each delivery in
// the activity log.
package messages

import (
	"context"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/common/observability"
	"estate-admin/internal/models"
	"estate-admin/internal/notify"
	"estate-admin/internal/services"
	"estate-admin/internal/services/activity"

	"go.opentelemetry.io/otel/attribute"
)

// Sender is implemented by notify.Service.
type Sender interface {
	Send(ctx context.Context, msg notify.Message) notify.Result
}

type Service struct {
	sender   Sender
	activity *activity.Log
	logger   logger.Logger
}

func NewService(sender Sender, act *activity.Log, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Service{sender: sender, activity: act, logger: log}
}

// SendEmail delivers msg on behalf of an admin. Unlike decision
// notifications, a failed delivery is returned as an error.
func (s *Service) SendEmail(ctx context.Context, actor models.Actor, msg notify.Message) (res notify.Result, err error) {
	ctx, span := observability.StartSpan(ctx, "messages.send_email",
		attribute.String("actor.id", actor.UserID))
	defer func() { observability.EndSpan(span, err) }()

	if err := services.RequireAdmin(actor); err != nil {
		return notify.Result{}, err
	}

	res = s.sender.Send(ctx, msg)
	if res.Err != nil {
		if _, ok := stderrors.AsStandard(res.Err); ok {
			return res, res.Err
		}
		return res, stderrors.NewNotificationSendFailedError("email", res.Err)
	}

	if s.activity != nil {
		ev := &models.AuditEvent{
			EventType:    models.EventEmailSent,
			ResourceType: "email",
			ResourceID:   res.MessageID,
			ActorID:      actor.UserID,
			Details: map[string]interface{}{
				"to":       msg.To,
				"subject":  msg.Subject,
				"provider": res.Provider,
			},
		}
		// the mail is already out; a lost audit row must not turn it into a failure
		if err := s.activity.Record(ctx, ev); err != nil {
			s.logger.Warn("email audit failed", map[string]interface{}{
				"message_id": res.MessageID,
				"error":      err.Error(),
			})
		}
	}
	return res, nil
}
