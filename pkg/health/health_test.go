package health

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthAlwaysOK(t *testing.T) {
	s := NewServer("127.0.0.1", 0)

	rec := httptest.NewRecorder()
	s.handleHealth(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Unexpected status: %v", body["status"])
	}
}

func TestReadyReflectsChecks(t *testing.T) {
	s := NewServer("127.0.0.1", 0)
	s.Register("database", func() error { return nil })

	rec := httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200 when all checks pass, got %d", rec.Code)
	}

	s.Register("provider", func() error { return fmt.Errorf("no api key") })
	rec = httptest.NewRecorder()
	s.handleReady(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected 503 when a check fails, got %d", rec.Code)
	}

	var body struct {
		Ready  bool              `json:"ready"`
		Checks map[string]string `json:"checks"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Ready {
		t.Error("Expected ready=false")
	}
	if body.Checks["provider"] != "no api key" {
		t.Errorf("Expected failing check message, got %q", body.Checks["provider"])
	}
}
