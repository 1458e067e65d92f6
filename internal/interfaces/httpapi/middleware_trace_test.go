package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestShouldTraceRequest(t *testing.T) {
	tests := map[string]bool{
		"/healthz":                 false,
		" /READYZ ":                false,
		"/livez":                   false,
		"/v1/demos/inspect":        true,
		"/v1/internal/demos/stats": true,
		"/docs":                    true,
	}
	for path, want := range tests {
		if got := shouldTraceRequest(path); got != want {
			t.Fatalf("shouldTraceRequest(%q)=%v want=%v", path, got, want)
		}
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	handler := RequestID(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	const incoming = "0b5f2a4e-9c1d-4e53-8a77-3d0c9f1b2e6a"
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, incoming)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen != incoming || rec.Header().Get(requestIDHeader) != incoming {
		t.Fatalf("expected incoming request id to propagate, got ctx=%q header=%q", seen, rec.Header().Get(requestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "not a uuid")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if seen == "" || seen == "not a uuid" || rec.Header().Get(requestIDHeader) != seen {
		t.Fatalf("expected a fresh request id, got ctx=%q header=%q", seen, rec.Header().Get(requestIDHeader))
	}
}
