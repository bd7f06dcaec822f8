package observability

import (
	"context"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
)

const serviceName = "named-menus"

// NewLogger builds the JSON logger used in production. Keys follow the Cloud
// Logging structured payload (severity, message, timestamp) and the level is
// read from LOG_LEVEL.
func NewLogger() (*zap.Logger, error) {
	return NewLoggerWithLevel(os.Getenv("LOG_LEVEL"))
}

// NewLoggerWithLevel is NewLogger with an explicit level. Unknown or empty
// levels fall back to info.
func NewLoggerWithLevel(levelName string) (*zap.Logger, error) {
	cfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(parseLevel(levelName)),
		Encoding:          "json",
		EncoderConfig:     cloudLoggingEncoder(),
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
		InitialFields:     map[string]any{"service": serviceName},
	}
	return cfg.Build()
}

func parseLevel(name string) zapcore.Level {
	level := zapcore.InfoLevel
	if name = strings.TrimSpace(name); name != "" {
		if err := level.UnmarshalText([]byte(strings.ToLower(name))); err != nil {
			return zapcore.InfoLevel
		}
	}
	return level
}

func cloudLoggingEncoder() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		MessageKey:    "message",
		TimeKey:       "timestamp",
		LevelKey:      "severity",
		NameKey:       "logger",
		CallerKey:     "caller",
		StacktraceKey: "stacktrace",
		EncodeTime:    zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel: func(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
			// Panic and fatal levels map to CRITICAL.
			switch level {
			case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
				enc.AppendString("CRITICAL")
			default:
				enc.AppendString(strings.ToUpper(level.String()))
			}
		},
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

// WithLogger injects the logger into the provided context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return requestctx.WithLogger(ctx, logger)
}

// FromContext retrieves the logger from context, defaulting to a no-op logger.
func FromContext(ctx context.Context) *zap.Logger {
	return requestctx.Logger(ctx)
}
