package types

import "context"

// Logger is the structured logging contract shared by every package.
type Logger interface {
	Info(msg string, args ...any)
	Error(msg string, args ...any)
	Warn(msg string, args ...any)
	With(args ...any) Logger
}

// AlertLevel is the severity attached to a monitoring alert.
type AlertLevel string

const (
	AlertLevelError   AlertLevel = "error"
	AlertLevelWarning AlertLevel = "warning"
	AlertLevelInfo    AlertLevel = "info"
)

// Monitor is the monitoring sink for degraded operations: an error log line
// plus an operator-facing alert (a Sentry message in production).
type Monitor interface {
	LogError(ctx context.Context, message string, args ...any)
	CaptureAlert(ctx context.Context, message string, level AlertLevel)
}

// TokenSource yields the bearer token used to call the legal, pay and auth APIs.
type TokenSource interface {
	Token(ctx context.Context) (SecretString, error)
}
