// Package logging builds the service logger: JSON to stdout, plus Sentry
// logs for warnings and errors when a DSN is configured.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	sentryslog "github.com/getsentry/sentry-go/slog"

	"entityemailer/internal/types"
)

// Options configures New.
type Options struct {
	Level       string // debug, info, warn or error
	SentryDSN   string
	Environment string
	Release     string

	// Output defaults to os.Stdout.
	Output io.Writer
}

// ParseLevel maps a LOG_LEVEL value to a slog level; unknown values mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// levelFatal is never logged by the service, so no record becomes an issue.
const levelFatal = slog.Level(12)

// New creates the service logger. Without a DSN, or if Sentry fails to
// initialise, only stdout logging is enabled. The returned flush function
// drains buffered Sentry events and must be called before the process exits.
//
// Log records are stored as Sentry logs, never as issues: issues are raised
// only by explicit alerts (see monitoring.Sink).
func New(opts Options) (*slog.Logger, func()) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	stdoutHandler := slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: ParseLevel(opts.Level),
	})

	noop := func() {}
	if opts.SentryDSN == "" {
		return slog.New(stdoutHandler), noop
	}

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         opts.SentryDSN,
		Environment: opts.Environment,
		Release:     opts.Release,
		EnableLogs:  true,
	}); err != nil {
		logger := slog.New(stdoutHandler)
		logger.Error("failed to initialize Sentry", "error", err.Error())
		return logger, noop
	}

	sentryHandler := sentryslog.Option{
		EventLevel: []slog.Level{levelFatal},
		LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
	}.NewSentryHandler(context.Background())

	flush := func() { sentry.Flush(2 * time.Second) }
	return slog.New(newMultiHandler(stdoutHandler, sentryHandler)), flush
}

// Adapter wraps *slog.Logger to implement types.Logger. slog.Logger has
// Info, Error and Warn, but its With returns *slog.Logger.
type Adapter struct {
	logger *slog.Logger
}

// NewAdapter wraps logger.
func NewAdapter(logger *slog.Logger) *Adapter {
	return &Adapter{logger: logger}
}

func (a *Adapter) Info(msg string, args ...any)  { a.logger.Info(msg, args...) }
func (a *Adapter) Error(msg string, args ...any) { a.logger.Error(msg, args...) }
func (a *Adapter) Warn(msg string, args ...any)  { a.logger.Warn(msg, args...) }
func (a *Adapter) With(args ...any) types.Logger {
	return &Adapter{logger: a.logger.With(args...)}
}

// Slog returns the wrapped logger.
func (a *Adapter) Slog() *slog.Logger { return a.logger }

var _ types.Logger = (*Adapter)(nil)
