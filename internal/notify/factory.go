package notify

import (
	"context"
	"fmt"

	awsclient "estate-admin/internal/common/aws"
	"estate-admin/internal/common/config"
	"estate-admin/internal/common/logger"
)

// NewFromConfig builds the notification service for the configured
// providers. AWS clients are only created when SES or SMS is enabled.
func NewFromConfig(ctx context.Context, cfg *config.Config, log logger.Logger) (*Service, error) {
	n := cfg.Notifications
	templates := DefaultTemplates(n.Email.SiteURL)

	needAWS := n.SMS.Enabled || (n.Email.Enabled && n.Email.Provider == ProviderSES)
	var awsCfg *awsConfigHolder
	if needAWS {
		c, err := awsclient.LoadConfig(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		awsCfg = &awsConfigHolder{ses: awsclient.NewSESClient(c), sns: awsclient.NewSNSClient(c)}
	}

	var email EmailSender
	if n.Email.Enabled {
		switch n.Email.Provider {
		case ProviderSES:
			email = NewSESSender(awsCfg.ses, n.Email.FromEmail, n.Email.FromName)
		case ProviderSMTP:
			smtpCfg := cfg.Integrations.SMTP
			sender, err := NewSMTPSender(SMTPConfig{
				Host:      smtpCfg.Host,
				Port:      smtpCfg.Port,
				Username:  smtpCfg.Username,
				Password:  smtpCfg.Password,
				UseTLS:    smtpCfg.UseTLS,
				FromEmail: n.Email.FromEmail,
				FromName:  n.Email.FromName,
			})
			if err != nil {
				return nil, fmt.Errorf("smtp provider: %w", err)
			}
			email = sender
		default:
			return nil, fmt.Errorf("unknown email provider %q", n.Email.Provider)
		}
	}

	var sms SMSSender
	if n.SMS.Enabled {
		sms = NewSNSSender(awsCfg.sns, n.SMS.SenderID)
	}

	return NewService(email, sms, templates, log), nil
}

type awsConfigHolder struct {
	ses *awsclient.SESClient
	sns *awsclient.SNSClient
}
