package logger

import (
	"context"
	"log/slog"
	"os"
)

type ContextKey string

const (
	// Business context keys for pipeline observability.
	// These follow OpenTelemetry semantic conventions with a 'rag.' prefix.
	SessionIDKey  ContextKey = "rag.session.id"
	DocumentIDKey ContextKey = "rag.document.id"
	SourceFileKey ContextKey = "rag.source.file"
	StageKey      ContextKey = "rag.processing.stage"
)

// ContextLogger provides context-aware logging with pipeline business context.
type ContextLogger struct {
	logger      *slog.Logger
	serviceName string
}

// NewContextLogger creates a new context-aware logger on top of base. A nil
// base gets a JSON stdout logger at the configured level.
func NewContextLogger(serviceName string, base *slog.Logger) *ContextLogger {
	if base == nil {
		opts := &slog.HandlerOptions{
			Level: parseLevel(os.Getenv("LOG_LEVEL")),
		}
		base = slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}

	return &ContextLogger{
		logger:      base,
		serviceName: serviceName,
	}
}

// WithContext returns a logger with context values extracted and added as fields.
func (cl *ContextLogger) WithContext(ctx context.Context) *slog.Logger {
	logger := cl.logger.With("service", cl.serviceName)

	var fields []any

	if sessionID := ctx.Value(SessionIDKey); sessionID != nil {
		fields = append(fields, string(SessionIDKey), sessionID)
	}
	if documentID := ctx.Value(DocumentIDKey); documentID != nil {
		fields = append(fields, string(DocumentIDKey), documentID)
	}
	if sourceFile := ctx.Value(SourceFileKey); sourceFile != nil {
		fields = append(fields, string(SourceFileKey), sourceFile)
	}
	if stage := ctx.Value(StageKey); stage != nil {
		fields = append(fields, string(StageKey), stage)
	}

	if len(fields) > 0 {
		logger = logger.With(fields...)
	}

	return logger
}

// WithSessionID adds the chat session ID to context for observability.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

// WithDocumentID adds the document ID to context for observability.
func WithDocumentID(ctx context.Context, documentID string) context.Context {
	return context.WithValue(ctx, DocumentIDKey, documentID)
}

// WithSourceFile adds the source file path to context for observability.
func WithSourceFile(ctx context.Context, sourceFile string) context.Context {
	return context.WithValue(ctx, SourceFileKey, sourceFile)
}

// WithStage adds the pipeline stage to context for observability.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, StageKey, stage)
}
