package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestNotFoundHandler(t *testing.T) {
	r := chi.NewRouter()
	r.NotFound(NotFoundHandler().ServeHTTP)
	r.Get("/health", HealthHandler)

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != codeNotFound {
		t.Fatalf("expected code %s, got %s", codeNotFound, resp.Code)
	}
}

func TestMethodNotAllowedHandler(t *testing.T) {
	r := chi.NewRouter()
	r.MethodNotAllowed(MethodNotAllowedHandler().ServeHTTP)
	r.Get("/health", HealthHandler)

	req := httptest.NewRequest(http.MethodDelete, "/health", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}

	var resp errorResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Code != codeMethodNotAllowed {
		t.Fatalf("expected code %s, got %s", codeMethodNotAllowed, resp.Code)
	}
}
