package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. JSON in production so log
// pipelines can index request_id and payout_id fields; text for dev.
func New(env string) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}
