package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hanko-field/namedmenus/internal/platform/requestctx"
)

func TestParseCloudTraceContext(t *testing.T) {
	sc, ok := parseCloudTraceContext("105445aa7843bc8bf206b12000100000/1;o=1")
	if !ok {
		t.Fatalf("expected header to parse")
	}
	if got := sc.TraceID().String(); got != "105445aa7843bc8bf206b12000100000" {
		t.Fatalf("unexpected trace id %s", got)
	}
	if got := sc.SpanID().String(); got != "0000000000000001" {
		t.Fatalf("unexpected span id %s", got)
	}
	if !sc.IsSampled() || !sc.IsRemote() {
		t.Fatalf("expected sampled remote context")
	}

	for _, header := range []string{"", "abc/1", "105445aa7843bc8bf206b12000100000/zz;o=1", "105445aa7843bc8bf206b12000100000/0"} {
		if _, ok := parseCloudTraceContext(header); ok {
			t.Fatalf("expected %q to be rejected", header)
		}
	}

	sc, ok = parseCloudTraceContext("105445aa7843bc8bf206b12000100000/42")
	if !ok || sc.IsSampled() {
		t.Fatalf("expected unsampled context without options")
	}
}

func TestTraceMiddlewareStoresTraceInfo(t *testing.T) {
	var info requestctx.TraceInfo
	handler := TraceMiddleware("menus-project")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		info, _ = requestctx.Trace(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/menus/footer", nil)
	req.Header.Set(cloudTraceHeader, "105445aa7843bc8bf206b12000100000/1;o=1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if info.ProjectID != "menus-project" {
		t.Fatalf("expected project id, got %q", info.ProjectID)
	}
	if info.TraceID != "105445aa7843bc8bf206b12000100000" {
		t.Fatalf("expected remote trace id to be continued, got %q", info.TraceID)
	}
}
