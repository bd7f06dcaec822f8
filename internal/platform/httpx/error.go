// Package httpx writes the JSON envelopes shared by every endpoint.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
)

// Error is an API failure rendered as
// {"error": code, "message": ..., "status": ..., <details>}.
type Error struct {
	Code    string
	Message string
	Status  int
	Details map[string]any
}

// NewError builds an Error. A zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{Code: clean(code, 80), Message: clean(message, 512), Status: status}
}

// Error implements error so handlers can pass an Error through error returns.
func (e Error) Error() string { return e.Code + ": " + e.Message }

// WithDetails returns a copy of e carrying extra top-level fields. Reserved
// envelope keys in details are ignored.
func (e Error) WithDetails(details map[string]any) Error {
	if len(details) == 0 {
		return e
	}
	merged := make(map[string]any, len(e.Details)+len(details))
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	e.Details = merged
	return e
}

// WriteError writes e with the request and trace ids from ctx.
func WriteError(ctx context.Context, w http.ResponseWriter, e Error) {
	if e.Status == 0 {
		e.Status = http.StatusInternalServerError
	}
	body := make(map[string]any, len(e.Details)+5)
	for k, v := range e.Details {
		body[k] = v
	}
	body["error"] = e.Code
	body["message"] = e.Message
	body["status"] = e.Status
	if id := clean(middleware.GetReqID(ctx), 80); id != "" {
		body["request_id"] = id
	}
	if id := clean(requestctx.TraceID(ctx), 64); id != "" {
		body["trace_id"] = id
	}
	WriteJSON(w, e.Status, body)
}

// WriteJSON encodes payload with the given status code.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func clean(value string, limit int) string {
	value = strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(value))
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
