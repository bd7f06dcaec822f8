package observability

import (
	"fmt"
	"net"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/hanko-field/namedmenus/internal/platform/httpx"
	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
)

// menuNameParam is the route parameter carrying the requested menu.
const menuNameParam = "menuName"

// InjectLoggerMiddleware stores the provided logger on the request context.
func InjectLoggerMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestctx.WithLogger(r.Context(), logger)))
		})
	}
}

// RequestLoggerMiddleware writes one Cloud Logging entry per request. Menu
// routes also record the menu name and the negotiated language, which are only
// known once routing and language negotiation have run.
func RequestLoggerMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := requestctx.Logger(ctx).With(requestFields(r)...)
			r = r.WithContext(requestctx.WithLogger(ctx, logger))

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}
				route := SanitizeRoute(routePattern(r))
				menu := SanitizeMenuName(chi.URLParamFromCtx(r.Context(), menuNameParam))

				annotateSpan(trace.SpanFromContext(ctx), status, route, menu)

				fields := []zap.Field{
					zap.String("route", route),
					zap.Int("status", status),
					zap.Duration("latency", time.Since(start)),
					zap.Int("bytes", ww.BytesWritten()),
				}
				if menu != "" {
					fields = append(fields, zap.String("menuName", menu))
				}
				if lang := w.Header().Get("Content-Language"); lang != "" {
					fields = append(fields, zap.String("language", sanitizeString(lang, 16)))
				}
				logAtStatus(logger, status, fields)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// RecoveryMiddleware turns a panic inside a handler or template into a JSON 500.
func RecoveryMiddleware(fallback *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				logger := requestctx.Logger(ctx)
				if logger == requestctx.NoopLogger() && fallback != nil {
					logger = fallback
				}
				logger.Error("panic recovered",
					zap.String("path", SanitizeRoute(r.URL.Path)),
					zap.Any("panic", rec),
					zap.ByteString("stack", debug.Stack()),
				)
				httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func requestFields(r *http.Request) []zap.Field {
	ctx := r.Context()
	info, _ := requestctx.Trace(ctx)
	fields := []zap.Field{
		zap.String("request_id", middleware.GetReqID(ctx)),
		zap.String("method", SanitizeMethod(r.Method)),
		zap.String("path", SanitizeRoute(r.URL.Path)),
	}
	if info.TraceID != "" {
		fields = append(fields, zap.String("trace_id", info.TraceID))
		if info.ProjectID != "" {
			fields = append(fields, zap.String("logging.googleapis.com/trace",
				fmt.Sprintf("projects/%s/traces/%s", info.ProjectID, info.TraceID)))
		}
	}
	if ip := remoteIP(r); ip != "" {
		fields = append(fields, zap.String("remote_ip", ip))
	}
	return fields
}

func annotateSpan(span trace.Span, status int, route, menu string) {
	if !span.IsRecording() {
		return
	}
	span.SetAttributes(semconv.HTTPResponseStatusCode(status), semconv.HTTPRoute(route))
	if menu != "" {
		span.SetAttributes(attribute.String("named_menu.name", menu))
	}
	if status >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

func logAtStatus(logger *zap.Logger, status int, fields []zap.Field) {
	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request completed", fields...)
	case status >= http.StatusBadRequest:
		logger.Warn("request completed", fields...)
	default:
		logger.Info("request completed", fields...)
	}
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func remoteIP(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		addr = host
	}
	return sanitizeString(addr, 64)
}
