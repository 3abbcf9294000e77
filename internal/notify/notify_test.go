package notify

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	stderrors "estate-admin/internal/common/errors"
	"estate-admin/internal/common/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
	calls         int
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	m.calls++
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type capturedMail struct {
	from string
	to   []string
	raw  string
}

func newTestSMTPSender(t *testing.T, sendErr error) (*SMTPSender, *[]capturedMail) {
	t.Helper()
	sender, err := NewSMTPSender(SMTPConfig{
		Host:      "smtp.example.com",
		Port:      587,
		FromEmail: "noreply@estate.example",
		FromName:  "Estate Marketplace",
	})
	require.NoError(t, err)

	sent := []capturedMail{}
	sender.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	sender.transport = func(_ context.Context, from string, to []string, msg []byte) error {
		if sendErr != nil {
			return sendErr
		}
		sent = append(sent, capturedMail{from: from, to: to, raw: string(msg)})
		return nil
	}
	return sender, &sent
}

// ==========================
// Tests
// ==========================

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     Message
		wantErr string
	}{
		{"valid html", Message{To: "a@b.co", Subject: "Hi", HTML: "<p>x</p>"}, ""},
		{"valid text", Message{To: "a@b.co", Subject: "Hi", Text: "x"}, ""},
		{"missing to", Message{Subject: "Hi", Text: "x"}, "to is required"},
		{"bad to", Message{To: "nope", Subject: "Hi", Text: "x"}, "not a valid email"},
		{"missing subject", Message{To: "a@b.co", Text: "x"}, "subject is required"},
		{"missing body", Message{To: "a@b.co", Subject: "Hi"}, "html or text body is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, stderrors.HasCode(err, stderrors.ErrCodeValidationFailed))
			se, _ := stderrors.AsStandard(err)
			assert.Contains(t, se.Details, tt.wantErr)
		})
	}
}

func TestSMTPSender_Send(t *testing.T) {
	sender, sent := newTestSMTPSender(t, nil)

	res := sender.Send(context.Background(), Message{
		To:      "owner@example.com",
		Subject: "Verification Approved",
		HTML:    "<p>approved</p>",
		Text:    "approved",
	})

	require.True(t, res.Delivered)
	assert.NoError(t, res.Err)
	assert.Equal(t, ProviderSMTP, res.Provider)
	assert.True(t, strings.HasSuffix(res.MessageID, "@smtp.example.com>"))

	require.Len(t, *sent, 1)
	mail := (*sent)[0]
	assert.Equal(t, "noreply@estate.example", mail.from)
	assert.Equal(t, []string{"owner@example.com"}, mail.to)
	assert.Contains(t, mail.raw, "To: owner@example.com\r\n")
	assert.Contains(t, mail.raw, "Subject: Verification Approved\r\n")
	assert.Contains(t, mail.raw, "multipart/alternative")
	assert.Contains(t, mail.raw, "Content-Type: text/plain")
	assert.Contains(t, mail.raw, "<p>approved</p>")
	assert.Contains(t, mail.raw, "Message-ID: "+res.MessageID)
}

func TestSMTPSender_SingleBody(t *testing.T) {
	sender, sent := newTestSMTPSender(t, nil)

	res := sender.Send(context.Background(), Message{To: "owner@example.com", Subject: "Hi", Text: "plain only"})
	require.True(t, res.Delivered)

	raw := (*sent)[0].raw
	assert.NotContains(t, raw, "multipart")
	assert.Contains(t, raw, "Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\nplain only")
}

func TestSMTPSender_TransportFailure(t *testing.T) {
	sender, _ := newTestSMTPSender(t, errors.New("connection refused"))

	res := sender.Send(context.Background(), Message{To: "owner@example.com", Subject: "Hi", Text: "x"})

	assert.False(t, res.Delivered)
	assert.True(t, stderrors.HasCode(res.Err, stderrors.ErrCodeNotificationSendFailed))
	assert.Contains(t, res.ErrorMessage(), "connection refused")
}

func TestNewSMTPSender_InvalidConfig(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{Port: 587, FromEmail: "a@b.co"})
	assert.EqualError(t, err, "smtp host is required")

	_, err = NewSMTPSender(SMTPConfig{Host: "h", Port: 0, FromEmail: "a@b.co"})
	assert.Error(t, err)

	_, err = NewSMTPSender(SMTPConfig{Host: "h", Port: 25})
	assert.EqualError(t, err, "from email is required")
}

func TestSESSender_Send(t *testing.T) {
	var got *ses.SendEmailInput
	mock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			got = params
			return &ses.SendEmailOutput{MessageId: aws.String("ses-123")}, nil
		},
	}
	sender := NewSESSender(mock, "noreply@estate.example", "Estate Marketplace")

	res := sender.Send(context.Background(), Message{To: "owner@example.com", Subject: "Hello", HTML: "<b>x</b>"})

	require.True(t, res.Delivered)
	assert.Equal(t, "ses-123", res.MessageID)
	assert.Equal(t, ProviderSES, res.Provider)
	require.NotNil(t, got)
	assert.Equal(t, "Estate Marketplace <noreply@estate.example>", aws.ToString(got.Source))
	assert.Equal(t, []string{"owner@example.com"}, got.Destination.ToAddresses)
	assert.Equal(t, "Hello", aws.ToString(got.Message.Subject.Data))
	assert.Equal(t, "<b>x</b>", aws.ToString(got.Message.Body.Html.Data))
	assert.Nil(t, got.Message.Body.Text)
}

func TestSESSender_Error(t *testing.T) {
	mock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return nil, errors.New("throttled")
		},
	}
	res := NewSESSender(mock, "noreply@estate.example", "").Send(context.Background(),
		Message{To: "owner@example.com", Subject: "Hello", Text: "x"})

	assert.False(t, res.Delivered)
	assert.True(t, stderrors.HasCode(res.Err, stderrors.ErrCodeNotificationSendFailed))
}

func TestSNSSender_SendSMS(t *testing.T) {
	var got *sns.PublishInput
	mock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			got = params
			return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
		},
	}

	res := NewSNSSender(mock, "ESTATE").SendSMS(context.Background(), "+2348012345678", "approved")

	require.True(t, res.Delivered)
	assert.Equal(t, "sns-1", res.MessageID)
	assert.Equal(t, "+2348012345678", aws.ToString(got.PhoneNumber))
	assert.Equal(t, "ESTATE", aws.ToString(got.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue))
	assert.Equal(t, "Transactional", aws.ToString(got.MessageAttributes["AWS.SNS.SMS.SMSType"].StringValue))
}

func TestService_SendValidatesBeforeProvider(t *testing.T) {
	mock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			return &ses.SendEmailOutput{MessageId: aws.String("x")}, nil
		},
	}
	svc := NewService(NewSESSender(mock, "noreply@estate.example", ""), nil, nil, logger.NewTestLogger(t))

	res := svc.Send(context.Background(), Message{To: "owner@example.com", Subject: "", Text: "x"})

	assert.False(t, res.Delivered)
	assert.Equal(t, ProviderSES, res.Provider)
	assert.True(t, stderrors.HasCode(res.Err, stderrors.ErrCodeValidationFailed))
	assert.Equal(t, 0, mock.calls)
}

func TestService_ResultsAreIndependent(t *testing.T) {
	fail := true
	mock := &MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			if fail {
				return nil, errors.New("boom")
			}
			return &ses.SendEmailOutput{MessageId: aws.String("ok")}, nil
		},
	}
	svc := NewService(NewSESSender(mock, "noreply@estate.example", ""), nil, nil, logger.NewTestLogger(t))
	msg := Message{To: "owner@example.com", Subject: "s", Text: "x"}

	first := svc.Send(context.Background(), msg)
	fail = false
	second := svc.Send(context.Background(), msg)

	assert.False(t, first.Delivered)
	assert.Error(t, first.Err)
	assert.True(t, second.Delivered)
	assert.NoError(t, second.Err)
	assert.Empty(t, second.ErrorMessage())
}

func TestService_DisabledChannels(t *testing.T) {
	svc := NewService(nil, nil, nil, logger.NewNoOpLogger())

	res := svc.Send(context.Background(), Message{To: "owner@example.com", Subject: "s", Text: "x"})
	assert.False(t, res.Delivered)
	assert.ErrorIs(t, res.Err, ErrEmailDisabled)
	assert.False(t, svc.EmailEnabled())

	sms := svc.SendSMS(context.Background(), "+2348012345678", "x")
	assert.ErrorIs(t, sms.Err, ErrSMSDisabled)
	assert.False(t, svc.SMSEnabled())
}

func TestService_SendSMSRejectsBadPhone(t *testing.T) {
	mock := &MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			t.Fatal("publish must not be called")
			return nil, nil
		},
	}
	svc := NewService(nil, NewSNSSender(mock, ""), nil, logger.NewNoOpLogger())

	res := svc.SendSMS(context.Background(), "123", "x")
	assert.True(t, stderrors.HasCode(res.Err, stderrors.ErrCodeValidationFailed))
}

func TestService_SendTemplate(t *testing.T) {
	sender, sent := newTestSMTPSender(t, nil)
	svc := NewService(sender, nil, DefaultTemplates("https://estate.example"), logger.NewTestLogger(t))

	res := svc.SendTemplate(context.Background(), "owner@example.com", TemplateVerificationRejected, map[string]string{
		"name":          "Ada",
		"entity_label":  "agent profile",
		"document_type": "national_id",
		"review_notes":  "Expired ID",
	})

	require.True(t, res.Delivered)
	require.Len(t, *sent, 1)
	assert.Contains(t, (*sent)[0].raw, "Verification Rejected")
	assert.Contains(t, (*sent)[0].raw, "Reviewer notes: Expired ID")
}

func TestTemplates_Render(t *testing.T) {
	tmpl := DefaultTemplates("https://estate.example")

	msg, err := tmpl.Render(TemplateVerificationApproved, map[string]string{
		"name":          "<script>alert(1)</script>",
		"entity_label":  "property listing",
		"document_type": "title_deed",
	})
	require.NoError(t, err)

	assert.Contains(t, msg.Subject, "Verification Approved")
	assert.Contains(t, msg.Subject, "property listing")
	assert.Contains(t, msg.HTML, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, msg.HTML, "<script>")
	assert.Contains(t, msg.Text, "<script>alert(1)</script>")
	assert.Contains(t, msg.HTML, `href="https://estate.example"`)
	assert.NotContains(t, msg.HTML, "{{")
	assert.NotContains(t, msg.HTML, "Reviewer notes")
	assert.Empty(t, msg.To)
}

func TestTemplates_DefaultsAndUnknown(t *testing.T) {
	tmpl := DefaultTemplates("")

	msg, err := tmpl.Render(TemplateVerificationReminder, map[string]string{"name": "  "})
	require.NoError(t, err)
	assert.Contains(t, msg.Subject, "Verification Pending")
	assert.Contains(t, msg.Text, "Hello there,")

	_, err = tmpl.Render("nope", nil)
	assert.Error(t, err)

	require.NoError(t, tmpl.Register("custom", Template{Subject: "Hi {{.name}}", Text: "x {{.missing}}"}))
	msg, err = tmpl.Render("custom", map[string]string{"name": "Bo"})
	require.NoError(t, err)
	assert.Equal(t, "Hi Bo", msg.Subject)
	assert.Equal(t, "x ", msg.Text)

	err = tmpl.Register("broken", Template{Subject: "Hi {{.name"})
	assert.Error(t, err)
}

func TestTemplates_RenderEscapesNotesInHTMLOnly(t *testing.T) {
	tmpl := DefaultTemplates("https://estate.example")

	msg, err := tmpl.Render(TemplateVerificationRejected, map[string]string{
		"entity_label":  "agent profile",
		"document_type": "national_id",
		"review_notes":  `Name "A & B" <mismatch>`,
	})
	require.NoError(t, err)

	assert.Contains(t, msg.HTML, "<p>Reviewer notes: Name &#34;A &amp; B&#34; &lt;mismatch&gt;</p>")
	assert.Contains(t, msg.Text, `Reviewer notes: Name "A & B" <mismatch>`)
	assert.Contains(t, msg.Text, "Hello there,")
}
