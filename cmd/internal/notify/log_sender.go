package notify

import (
	"context"
	"log/slog"
)

// LogSender "delivers" messages by logging them. It is the development sender.
type LogSender struct {
	log *slog.Logger
}

// NewLogSender returns a LogSender writing to log (slog.Default when nil).
func NewLogSender(log *slog.Logger) *LogSender {
	if log == nil {
		log = slog.Default()
	}
	return &LogSender{log: log}
}

// SendConfirmation implements Sender.
func (s *LogSender) SendConfirmation(ctx context.Context, msg ConfirmationMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.LogAttrs(ctx, slog.LevelInfo, "notify.confirmation",
		slog.String("email", msg.Email),
		slog.String("username", msg.Username),
		slog.String("link", msg.Link()),
	)
	return nil
}
