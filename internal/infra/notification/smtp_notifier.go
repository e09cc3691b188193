// Package notification delivers password reset tokens to their owners.
package notification

import (
	"context"
	"crypto/tls"
	"log/slog"
	"time"

	"tours/config"
	deliverycontext "tours/internal/delivery/context"
	"tours/internal/domain/service"

	mail "github.com/go-mail/mail"
	"github.com/pkg/errors"
	"github.com/sethvargo/go-retry"
	"go.uber.org/fx"
)

const sendBackoffBase = 200 * time.Millisecond

// mailSender is the part of *mail.Dialer the notifier needs.
type mailSender interface {
	DialAndSend(m ...*mail.Message) error
}

type smtpNotifier struct {
	sender   mailSender
	from     string
	baseURL  string
	validity time.Duration
	attempts uint64
	logger   *slog.Logger
}

// Params defines the required parameters
type Params struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

// New returns the SMTP notifier when mail.host is set and the log notifier otherwise.
func New(params Params) service.ResetNotifier {
	cfg := params.Config
	var validity time.Duration
	if cfg.Auth != nil {
		validity = cfg.Auth.ResetTokenTTL
	}
	if cfg.Mail == nil || cfg.Mail.Host == "" {
		return NewLogNotifier(params.Logger, cfg.App.BaseURL)
	}

	return newSMTPNotifier(newDialer(cfg.Mail), cfg.Mail.From, cfg.App.BaseURL, validity, cfg.Mail.Attempts, params.Logger)
}

func newSMTPNotifier(sender mailSender, from, baseURL string, validity time.Duration, attempts uint64, logger *slog.Logger) *smtpNotifier {
	if attempts == 0 {
		attempts = 1
	}

	return &smtpNotifier{
		sender:   sender,
		from:     from,
		baseURL:  baseURL,
		validity: validity,
		attempts: attempts,
		logger:   logger,
	}
}

func newDialer(cfg *config.MailConfig) *mail.Dialer {
	d := mail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}

	switch cfg.TLSMode {
	case "ssl":
		d.SSL = true
	case "starttls":
		d.StartTLSPolicy = mail.MandatoryStartTLS
	case "none":
		d.StartTLSPolicy = mail.NoStartTLS
	default:
		// "auto": go-mail negotiates STARTTLS when the server offers it.
	}

	return d
}

// SendPasswordReset mails the reset link, retrying transient SMTP failures.
func (n *smtpNotifier) SendPasswordReset(ctx context.Context, email, rawToken string) error {
	logger := deliverycontext.GetLoggerOrDefault(ctx, n.logger)

	content, err := renderResetEmail(n.baseURL, rawToken, n.validity)
	if err != nil {
		return err
	}

	m := mail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", email)
	m.SetHeader("Subject", content.Subject)
	m.SetBody("text/plain", content.Text)
	m.AddAlternative("text/html", content.HTML)

	backoff := retry.WithMaxRetries(n.attempts-1, retry.NewExponential(sendBackoffBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := n.sender.DialAndSend(m); err != nil {
			logger.WarnContext(ctx, "SMTP send failed", slog.String("to", email), slog.Any("error", err))

			return retry.RetryableError(err)
		}

		return nil
	})
	if err != nil {
		return errors.Wrap(err, "smtp send")
	}

	logger.InfoContext(ctx, "Password reset email sent", slog.String("to", email))

	return nil
}
