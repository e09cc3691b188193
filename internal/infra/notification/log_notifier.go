package notification

import (
	"context"
	"log/slog"

	deliverycontext "tours/internal/delivery/context"
	"tours/internal/domain/service"
)

// logNotifier writes the reset link to the log. Used in development when no SMTP host is set.
type logNotifier struct {
	logger  *slog.Logger
	baseURL string
}

// NewLogNotifier creates a notifier that only logs.
func NewLogNotifier(logger *slog.Logger, baseURL string) service.ResetNotifier {
	return &logNotifier{logger: logger, baseURL: baseURL}
}

func (n *logNotifier) SendPasswordReset(ctx context.Context, email, rawToken string) error {
	deliverycontext.GetLoggerOrDefault(ctx, n.logger).InfoContext(ctx, "Password reset requested",
		slog.String("to", email),
		slog.String("resetURL", resetURL(n.baseURL, rawToken)),
	)

	return nil
}
