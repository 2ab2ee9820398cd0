package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHealthHandlerHandle(t *testing.T) {
	handler := HealthHandler{DB: pingStub{}}

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/json" {
		t.Fatalf("expected json content type got %s", got)
	}

	handler = HealthHandler{DB: pingStub{err: errors.New("connection refused")}}
	rec = httptest.NewRecorder()

	handler.Handle(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503 got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "unavailable") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(Dependencies{DB: pingStub{}})

	rec := do(t, router, http.MethodPost, "/healthz", nil, nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected method not allowed got %d", rec.Code)
	}

	rec = do(t, router, http.MethodGet, "/api/v1/healthcheck", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200 got %d", rec.Code)
	}
	env := decodeEnvelope(t, rec, nil)
	if !env.Success || env.Message != "OK" {
		t.Fatalf("unexpected envelope %+v", env)
	}
}
