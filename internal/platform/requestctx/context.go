// Package requestctx carries per-request values shared by middleware and
// handlers: the scoped logger, trace metadata and the negotiated language.
package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type key int

const (
	loggerKey key = iota
	traceKey
	languageKey
)

var noopLogger = zap.NewNop()

// TraceInfo captures trace metadata propagated through request context.
type TraceInfo struct {
	TraceID   string
	SpanID    string
	Sampled   bool
	ProjectID string
}

func orBackground(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

// WithLogger stores the request scoped logger. A nil logger stores the no-op logger.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(orBackground(ctx), loggerKey, logger)
}

// Logger returns the request scoped logger or the no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
			return logger
		}
	}
	return noopLogger
}

// NoopLogger is the logger Logger falls back to.
func NoopLogger() *zap.Logger { return noopLogger }

// WithTrace stores trace metadata.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	return context.WithValue(orBackground(ctx), traceKey, info)
}

// Trace returns the stored trace metadata.
func Trace(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceKey).(TraceInfo)
	return info, ok
}

// TraceID returns the trace id, or "" outside a traced request.
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

// WithLanguage records the negotiated content language for the request.
func WithLanguage(ctx context.Context, lang string) context.Context {
	return context.WithValue(orBackground(ctx), languageKey, lang)
}

// Language returns the negotiated language, or "" when none was recorded.
func Language(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	lang, _ := ctx.Value(languageKey).(string)
	return lang
}
