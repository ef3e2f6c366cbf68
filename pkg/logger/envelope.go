package logger

import (
	"context"
	"log/slog"
)

// LogEnvelope logs a routing decision for an envelope at the given level,
// attaching the fields every dispatcher/transport log line needs instead of
// repeating them at each call site.
func LogEnvelope(ctx context.Context, level slog.Level, msg, uuid, class, handler string) {
	L().Log(ctx, level, msg,
		"envelope_uuid", uuid,
		"message_class", class,
		"handler", handler,
	)
}

// LogHandlerError logs a handler failure with the envelope identity and the
// error, the shape pkg/dispatcher uses for every handler_error counter
// increment.
func LogHandlerError(ctx context.Context, uuid, class, handler string, err error) {
	L().ErrorContext(ctx, "handler invocation failed",
		"envelope_uuid", uuid,
		"message_class", class,
		"handler", handler,
		"error", err,
	)
}
