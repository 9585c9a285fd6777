package smtp

import (
	"context"
	"fmt"

	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"

	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/core/port"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/config"
	"github.com/practiceaogoznak-del/C-ADDevProgramm/internal/infra/logger"
)

// Notifier delivers composed request notifications over SMTP. The original
// tool opened a reviewable mail draft on the requester's machine; as a
// service the dispatch policy is immediate submission to the relay.
type Notifier struct {
	cfg    config.SMTPSettings
	logger *zap.Logger
}

// NewNotifier constructs an SMTP-backed notifier.
func NewNotifier(cfg config.SMTPSettings, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Notifier{cfg: cfg, logger: log}
}

// Send submits one message addressed to all recipients. A transport error
// surfaces to the caller; the submission stays retryable.
func (n *Notifier) Send(ctx context.Context, recipients []string, subject, body string) error {
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients")
	}

	msg := gomail.NewMsg()
	if err := msg.From(n.cfg.From); err != nil {
		return fmt.Errorf("set sender: %w", err)
	}
	if err := msg.To(recipients...); err != nil {
		return fmt.Errorf("set recipients: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	opts := []gomail.Option{
		gomail.WithPort(n.cfg.Port),
	}
	if n.cfg.StartTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if n.cfg.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(n.cfg.Username),
			gomail.WithPassword(n.cfg.Password),
		)
	}

	client, err := gomail.NewClient(n.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}

	masked := make([]string, 0, len(recipients))
	for _, addr := range recipients {
		masked = append(masked, logger.MaskEmail(addr))
	}
	n.logger.Info("notification sent",
		zap.Strings("recipients", masked),
		zap.String("subject", subject),
	)

	return nil
}

// LoggingNotifier records composed notifications instead of delivering
// them. Used when no SMTP relay is configured.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier constructs a notifier backed by structured logging.
func NewLoggingNotifier(log *zap.Logger) *LoggingNotifier {
	if log == nil {
		log = zap.NewNop()
	}
	return &LoggingNotifier{logger: log}
}

func (n *LoggingNotifier) Send(_ context.Context, recipients []string, subject, body string) error {
	masked := make([]string, 0, len(recipients))
	for _, addr := range recipients {
		masked = append(masked, logger.MaskEmail(addr))
	}
	n.logger.Info("notification composed (delivery disabled)",
		zap.Strings("recipients", masked),
		zap.String("subject", subject),
		zap.Int("body_bytes", len(body)),
	)
	return nil
}

var (
	_ port.Notifier = (*Notifier)(nil)
	_ port.Notifier = (*LoggingNotifier)(nil)
)
