package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"
)

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SESSender sends email through Amazon SES.
type SESSender struct {
	client   SESService
	from     string
	fromName string
	now      func() time.Time
}

func NewSESSender(client SESService, fromEmail, fromName string) *SESSender {
	return &SESSender{client: client, from: fromEmail, fromName: fromName, now: time.Now}
}

func (s *SESSender) Send(ctx context.Context, msg Message) Result {
	source := s.from
	if s.fromName != "" {
		source = fmt.Sprintf("%s <%s>", s.fromName, s.from)
	}

	body := &sestypes.Body{}
	if msg.HTML != "" {
		body.Html = &sestypes.Content{Data: aws.String(msg.HTML), Charset: aws.String("UTF-8")}
	}
	if msg.Text != "" {
		body.Text = &sestypes.Content{Data: aws.String(msg.Text), Charset: aws.String("UTF-8")}
	}

	out, err := s.client.SendEmail(ctx, &ses.SendEmailInput{
		Source:      aws.String(source),
		Destination: &sestypes.Destination{ToAddresses: []string{msg.To}},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
			Body:    body,
		},
	})
	if err != nil {
		return failed(ProviderSES, err)
	}

	return Result{
		Delivered: true,
		Provider:  ProviderSES,
		MessageID: aws.ToString(out.MessageId),
		SentAt:    s.now().UTC(),
	}
}

// SNSSender sends transactional SMS through Amazon SNS.
type SNSSender struct {
	client   SNSService
	senderID string
	now      func() time.Time
}

func NewSNSSender(client SNSService, senderID string) *SNSSender {
	return &SNSSender{client: client, senderID: senderID, now: time.Now}
}

func (s *SNSSender) SendSMS(ctx context.Context, phone, text string) Result {
	attrs := map[string]snstypes.MessageAttributeValue{
		"AWS.SNS.SMS.SMSType": {
			DataType:    aws.String("String"),
			StringValue: aws.String("Transactional"),
		},
	}
	if s.senderID != "" {
		attrs["AWS.SNS.SMS.SenderID"] = snstypes.MessageAttributeValue{
			DataType:    aws.String("String"),
			StringValue: aws.String(s.senderID),
		}
	}

	out, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber:       aws.String(phone),
		Message:           aws.String(text),
		MessageAttributes: attrs,
	})
	if err != nil {
		return failed(ProviderSNS, err)
	}

	return Result{
		Delivered: true,
		Provider:  ProviderSNS,
		MessageID: aws.ToString(out.MessageId),
		SentAt:    s.now().UTC(),
	}
}
