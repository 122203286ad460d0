package mailer

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"

	"github.com/campuskit/campus-admin-api/pkg/config"
	appErrors "github.com/campuskit/campus-admin-api/pkg/errors"
)

// SendgridMailer delivers email through the Sendgrid v3 API.
type SendgridMailer struct {
	client        *sendgrid.Client
	from          *sgmail.Email
	subjectPrefix string
	logger        *zap.Logger
}

// NewSendgrid constructs a Sendgrid-backed mailer.
func NewSendgrid(cfg config.MailConfig, logger *zap.Logger) *SendgridMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	var client *sendgrid.Client
	if cfg.SendgridAPIKey != "" {
		client = sendgrid.NewSendClient(cfg.SendgridAPIKey)
	}
	return &SendgridMailer{
		client:        client,
		from:          sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		subjectPrefix: cfg.SubjectPrefix,
		logger:        logger,
	}
}

// Send delivers a single message.
func (m *SendgridMailer) Send(ctx context.Context, msg Message) error {
	if m.client == nil {
		return appErrors.Clone(appErrors.ErrEmailNotConfigured, "")
	}

	to := sgmail.NewEmail(msg.ToName, msg.ToEmail)
	email := sgmail.NewSingleEmail(m.from, m.subjectPrefix+msg.Subject, to, msg.Text, msg.HTML)

	resp, err := m.client.SendWithContext(ctx, email)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrEmailSendFailed.Code, appErrors.ErrEmailSendFailed.Status, "email delivery failed")
	}
	if resp.StatusCode >= http.StatusBadRequest {
		m.logger.Warn("sendgrid rejected message",
			zap.Int("status", resp.StatusCode),
			zap.String("to", msg.ToEmail),
		)
		return appErrors.Wrap(
			fmt.Errorf("sendgrid responded with status %d", resp.StatusCode),
			appErrors.ErrEmailSendFailed.Code, appErrors.ErrEmailSendFailed.Status, "email delivery failed",
		)
	}

	return nil
}
