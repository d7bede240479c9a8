package logger

import (
	"context"
	"log/slog"
)

// LoggerFromCtx returns the default logger with the context's request fields
// attached, for call sites that log without passing ctx to every record.
func LoggerFromCtx(ctx context.Context) *slog.Logger {
	var args []any
	for _, field := range fields {
		if v, ok := ctx.Value(field).(string); ok && v != "" {
			args = append(args, slog.String(string(field), v))
		}
	}
	if len(args) == 0 {
		return slog.Default()
	}
	return slog.With(args...)
}
