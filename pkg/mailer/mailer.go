package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/campuskit/campus-admin-api/pkg/config"
)

// Message is a single transactional email.
type Message struct {
	ToName  string
	ToEmail string
	Subject string
	HTML    string
	Text    string
}

// Mailer sends transactional email. Implementations must return
// errors.ErrEmailNotConfigured when no provider credentials are present and
// errors.ErrEmailSendFailed when delivery is rejected.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// New selects the Sendgrid mailer when an API key is configured and falls back
// to the console mailer for local development.
func New(cfg config.MailConfig, logger *zap.Logger) Mailer {
	if cfg.SendgridAPIKey != "" {
		return NewSendgrid(cfg, logger)
	}
	return NewConsole(cfg, logger)
}
