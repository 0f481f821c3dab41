package observe

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthzAlwaysOK(t *testing.T) {
	t.Parallel()

	s := NewServer(":0")
	rec := httptest.NewRecorder()
	s.healthz(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var res probeResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if res.Status != "ok" {
		t.Errorf("status = %q, want \"ok\"", res.Status)
	}
}

func TestReadyzReportsFailingChecker(t *testing.T) {
	t.Parallel()

	s := NewServer(":0",
		Checker{Name: "gateway", Check: func(context.Context) error { return nil }},
		Checker{Name: "engine", Check: func(context.Context) error { return errors.New("model not loaded") }},
	)

	rec := httptest.NewRecorder()
	s.readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
	var res probeResult
	if err := json.NewDecoder(rec.Body).Decode(&res); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if res.Status != "fail" {
		t.Errorf("status = %q, want \"fail\"", res.Status)
	}
	if res.Checks["gateway"] != "ok" {
		t.Errorf("gateway check = %q, want \"ok\"", res.Checks["gateway"])
	}
	if res.Checks["engine"] == "ok" {
		t.Error("engine check reported ok despite failure")
	}
}

func TestReadyzAllPassing(t *testing.T) {
	t.Parallel()

	s := NewServer(":0",
		Checker{Name: "gateway", Check: func(context.Context) error { return nil }},
	)

	rec := httptest.NewRecorder()
	s.readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
