// Package monitoring reports degraded operations: error logs and Sentry
// alerts through Sink, CloudWatch counters through CloudWatchMetrics.
package monitoring

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"

	"entityemailer/internal/types"
)

// Sink implements types.Monitor. Alerts go to Sentry as messages; with a nil
// hub they are only logged.
type Sink struct {
	logger *slog.Logger
	hub    *sentry.Hub
}

// NewSink creates a Sink. Pass sentry.CurrentHub() once Sentry is
// initialised, or nil to disable alerts.
func NewSink(logger *slog.Logger, hub *sentry.Hub) *Sink {
	return &Sink{logger: logger, hub: hub}
}

// LogError writes an error record, through the request logger carried by ctx
// when there is one.
func (s *Sink) LogError(ctx context.Context, message string, args ...any) {
	if l := types.LoggerFromContext(ctx); l != nil {
		l.Error(message, args...)
		return
	}
	s.logger.ErrorContext(ctx, message, args...)
}

// CaptureAlert raises message at level. The request's trace id, when set,
// is attached as a tag.
func (s *Sink) CaptureAlert(ctx context.Context, message string, level types.AlertLevel) {
	hub := s.hub
	if hub == nil {
		s.logger.WarnContext(ctx, "alert (sentry disabled)", "alert", message, "level", string(level))
		return
	}
	// Clone so concurrent alerts do not share scope.
	hub = hub.Clone()
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetLevel(sentryLevel(level))
		if traceID := types.GetRequestID(ctx); traceID != "" {
			scope.SetTag("trace_id", traceID)
		}
		hub.CaptureMessage(message)
	})
}

func sentryLevel(level types.AlertLevel) sentry.Level {
	switch level {
	case types.AlertLevelWarning:
		return sentry.LevelWarning
	case types.AlertLevelInfo:
		return sentry.LevelInfo
	default:
		return sentry.LevelError
	}
}

var _ types.Monitor = (*Sink)(nil)
