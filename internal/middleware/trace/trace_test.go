package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

func TestMiddlewareAssignsRequestID(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.Use(NewMiddleware(nil).Middleware)
	r.Get("/savinggoals", func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/savinggoals", nil))

	header := rr.Header().Get(RequestIDHeader)
	if header == "" || header != seen {
		t.Fatalf("request id mismatch: header=%q context=%q", header, seen)
	}
	if _, err := uuid.Parse(header); err != nil {
		t.Errorf("generated id should be a UUID: %v", err)
	}
}

func TestMiddlewareKeepsInboundRequestID(t *testing.T) {
	h := NewMiddleware(nil).Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "client-123")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get(RequestIDHeader); got != "client-123" {
		t.Errorf("expected inbound id to be echoed, got %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, strings.Repeat("x", maxInboundIDLength+1))
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get(RequestIDHeader); len(got) > maxInboundIDLength {
		t.Errorf("oversized inbound id should be replaced, got %d chars", len(got))
	}
}

func TestResponseWriterCapturesFirstStatus(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), statusCode: http.StatusOK}
	rw.WriteHeader(http.StatusNotFound)
	rw.WriteHeader(http.StatusInternalServerError)
	if rw.statusCode != http.StatusNotFound {
		t.Errorf("statusCode = %d, want 404", rw.statusCode)
	}
}

func TestRoutePatternUnmatched(t *testing.T) {
	if got := routePattern(httptest.NewRequest(http.MethodGet, "/nope", nil)); got != "unmatched" {
		t.Errorf("routePattern() = %q, want unmatched", got)
	}
}
