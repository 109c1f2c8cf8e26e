package notify

import (
	"context"
	"fmt"

	"github.com/dmehra2102/prod-golang-projects/clinicportal/internal/config"
	"go.uber.org/zap"
)

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

// NewMailer builds the provider selected by EMAIL_PROVIDER, wrapped in a
// circuit breaker.
func NewMailer(cfg config.EmailConfig, log *zap.Logger) (Mailer, error) {
	var m Mailer
	switch cfg.Provider {
	case config.ProviderSMTP:
		m = NewSMTPMailer(cfg)
	case config.ProviderSendGrid:
		m = NewSendGridMailer(cfg)
	case config.ProviderResend:
		m = NewResendMailer(cfg)
	case config.ProviderLog:
		m = NewLogMailer(log)
	default:
		return nil, fmt.Errorf("unsupported email provider %q", cfg.Provider)
	}
	return NewBreakerMailer(m, cfg.Provider, cfg.BreakerMaxFailures, cfg.BreakerOpenTimeout, log), nil
}

// LogMailer writes messages to the log instead of sending them. Used in
// development.
type LogMailer struct {
	log *zap.Logger
}

func NewLogMailer(log *zap.Logger) *LogMailer {
	return &LogMailer{log: log.Named("mail")}
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.log.Info("email",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.Int("html_bytes", len(msg.HTML)),
	)
	return nil
}
