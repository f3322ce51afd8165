package delivery

import (
	"context"

	"go.uber.org/zap"
)

// LoggingAdapter stands in for roles with no gateway configured; it
// logs the message instead of delivering it.
type LoggingAdapter struct {
	logger *zap.Logger
	role   string
}

// NewLoggingAdapter builds the fallback adapter for a role.
func NewLoggingAdapter(logger *zap.Logger, role string) *LoggingAdapter {
	return &LoggingAdapter{logger: logger, role: role}
}

// Send logs the would-be delivery and reports success.
func (a *LoggingAdapter) Send(ctx context.Context, contactAddress string, msg Message) error {
	a.logger.Info("delivery (no gateway configured)",
		zap.String("role", a.role),
		zap.String("contact_address", contactAddress),
		zap.Int64("ticket_id", msg.TicketID),
		zap.String("subject", msg.Subject))
	return nil
}
