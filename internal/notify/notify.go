// Package notify delivers transactional email and SMS. Every send returns
// its own Result; nothing about a previous send is retained.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"
	"estate-admin/internal/common/metrics"
	"estate-admin/internal/common/validation"
)

const (
	ProviderSMTP     = "smtp"
	ProviderSES      = "ses"
	ProviderSNS      = "sns"
	ProviderDisabled = "disabled"
)

var (
	ErrEmailDisabled = errors.New("email notifications are disabled")
	ErrSMSDisabled   = errors.New("sms notifications are disabled")
)

// Message is one outbound email. At least one of HTML and Text is required.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html,omitempty"`
	Text    string `json:"text,omitempty"`
}

func (m Message) Validate() error {
	switch {
	case validation.IsBlank(m.To):
		return stderrors.NewValidationError("to is required")
	case !validation.ValidateEmail(m.To):
		return stderrors.NewValidationError(fmt.Sprintf("to is not a valid email address: %s", m.To))
	case validation.IsBlank(m.Subject):
		return stderrors.NewValidationError("subject is required")
	case validation.IsBlank(m.HTML) && validation.IsBlank(m.Text):
		return stderrors.NewValidationError("html or text body is required")
	}
	return nil
}

// Result describes the outcome of a single send.
type Result struct {
	Delivered bool      `json:"delivered"`
	Provider  string    `json:"provider"`
	MessageID string    `json:"message_id,omitempty"`
	SentAt    time.Time `json:"sent_at,omitempty"`
	Err       error     `json:"-"`
}

// ErrorMessage returns the failure text, or "" when delivered.
func (r Result) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	if se, ok := stderrors.AsStandard(r.Err); ok && se.Details != "" {
		return se.Message + ": " + se.Details
	}
	return r.Err.Error()
}

// EmailSender is implemented by the SMTP and SES providers.
type EmailSender interface {
	Send(ctx context.Context, msg Message) Result
}

// SMSSender is implemented by the SNS provider.
type SMSSender interface {
	SendSMS(ctx context.Context, phone, text string) Result
}

// Service validates, renders and dispatches notifications.
type Service struct {
	email     EmailSender
	sms       SMSSender
	templates *Templates
	logger    logger.Logger
}

// NewService wires the providers. email or sms may be nil, in which case the
// channel reports itself disabled.
func NewService(email EmailSender, sms SMSSender, templates *Templates, log logger.Logger) *Service {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	if templates == nil {
		templates = DefaultTemplates("")
	}
	return &Service{email: email, sms: sms, templates: templates, logger: log}
}

func (s *Service) EmailEnabled() bool { return s.email != nil }

func (s *Service) SMSEnabled() bool { return s.sms != nil }

// Send delivers msg. A validation failure is returned as the Result error
// without contacting the provider.
func (s *Service) Send(ctx context.Context, msg Message) Result {
	if err := msg.Validate(); err != nil {
		return Result{Provider: s.emailProvider(), Err: err}
	}
	if s.email == nil {
		metrics.NotificationsSent.WithLabelValues("email", ProviderDisabled, "skipped").Inc()
		return Result{Provider: ProviderDisabled, Err: ErrEmailDisabled}
	}

	res := s.email.Send(ctx, msg)
	s.record("email", res, map[string]interface{}{
		"to":      msg.To,
		"subject": msg.Subject,
	})
	return res
}

// SendTemplate renders the named template with data and sends it to to.
func (s *Service) SendTemplate(ctx context.Context, to string, name TemplateName, data map[string]string) Result {
	msg, err := s.templates.Render(name, data)
	if err != nil {
		return Result{Provider: s.emailProvider(), Err: err}
	}
	msg.To = to
	return s.Send(ctx, msg)
}

func (s *Service) SendSMS(ctx context.Context, phone, text string) Result {
	if s.sms == nil {
		return Result{Provider: ProviderDisabled, Err: ErrSMSDisabled}
	}
	if validation.IsBlank(phone) || !validation.ValidatePhone(phone) {
		return Result{Provider: ProviderSNS, Err: stderrors.NewValidationError("phone number is missing or invalid")}
	}
	if validation.IsBlank(text) {
		return Result{Provider: ProviderSNS, Err: stderrors.NewValidationError("sms text is required")}
	}

	res := s.sms.SendSMS(ctx, phone, text)
	s.record("sms", res, map[string]interface{}{"phone": maskPhone(phone)})
	return res
}

func (s *Service) record(channel string, res Result, fields map[string]interface{}) {
	fields["provider"] = res.Provider
	if res.Delivered {
		metrics.NotificationsSent.WithLabelValues(channel, res.Provider, "delivered").Inc()
		fields["message_id"] = res.MessageID
		s.logger.Info("notification sent", fields)
		return
	}
	metrics.NotificationsSent.WithLabelValues(channel, res.Provider, "failed").Inc()
	fields["error"] = res.ErrorMessage()
	s.logger.Warn("notification failed", fields)
}

func (s *Service) emailProvider() string {
	switch s.email.(type) {
	case *SMTPSender:
		return ProviderSMTP
	case *SESSender:
		return ProviderSES
	case nil:
		return ProviderDisabled
	}
	return "custom"
}

func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// failed wraps a provider error into a NOTIFICATION_SEND_FAILED result.
func failed(provider string, err error) Result {
	return Result{Provider: provider, Err: stderrors.NewNotificationSendFailedError(provider, err)}
}
