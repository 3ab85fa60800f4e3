package telemetry

import (
	"context"
	"io"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTELHook adds trace and span IDs to every log entry carrying a context.
type OTELHook struct{}

func (h OTELHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	ctx := e.GetCtx()
	if ctx == nil {
		return
	}

	span := trace.SpanFromContext(ctx)
	if !span.SpanContext().IsValid() {
		return
	}

	e.Str("trace_id", span.SpanContext().TraceID().String())
	e.Str("span_id", span.SpanContext().SpanID().String())

	if level == zerolog.ErrorLevel {
		span.SetStatus(codes.Error, msg)
	}
}

// Logger wraps zerolog with OTEL integration.
type Logger struct {
	zerolog.Logger
}

// NewLogger creates a service-scoped logger writing JSON to stdout.
func NewLogger(service string) *Logger {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs

	logger := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// NewConsoleLogger creates a human-readable logger for the CLI path.
func NewConsoleLogger(service string, out io.Writer) *Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: out}).
		With().
		Timestamp().
		Str("service", service).
		Logger().
		Hook(OTELHook{})

	return &Logger{Logger: logger}
}

// WithContext returns a logger with context for trace propagation.
func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.Logger.With().Ctx(ctx).Logger()
	return &logger
}

// LogDecision logs a planned or executed decision in a uniform shape.
func (l *Logger) LogDecision(ctx context.Context, action, resourceID, resourceName, reason string, confirmed bool) {
	l.WithContext(ctx).Info().
		Str("action", action).
		Str("resource_id", resourceID).
		Str("resource_name", resourceName).
		Str("reason", reason).
		Bool("confirmed", confirmed).
		Msg("decision")
}

// LogActionError logs a failed remote action without aborting the batch.
func (l *Logger) LogActionError(ctx context.Context, action, resourceID string, err error) {
	l.WithContext(ctx).Error().
		Err(err).
		Str("action", action).
		Str("resource_id", resourceID).
		Msg("action failed")
}
