package mailer

import (
	"context"

	"go.uber.org/zap"

	"github.com/campuskit/campus-admin-api/pkg/config"
)

// ConsoleMailer logs outbound email instead of delivering it. Used in
// development when no Sendgrid credentials are configured.
type ConsoleMailer struct {
	subjectPrefix string
	logger        *zap.Logger
}

// NewConsole constructs the console mailer.
func NewConsole(cfg config.MailConfig, logger *zap.Logger) *ConsoleMailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleMailer{subjectPrefix: cfg.SubjectPrefix, logger: logger}
}

// Send logs the message and reports success.
func (m *ConsoleMailer) Send(_ context.Context, msg Message) error {
	m.logger.Info("outbound email (console mailer)",
		zap.String("to", msg.ToEmail),
		zap.String("subject", m.subjectPrefix+msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
