package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/petwatch/go-petwatch/pkg/tracking"
)

func doJSON(t *testing.T, s *Server, method, path string, out interface{}) int {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if out != nil {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if err := json.Unmarshal(body, out); err != nil {
			t.Fatalf("unmarshal %s: %v", body, err)
		}
	}
	return resp.StatusCode
}

func TestStatusEndpoint(t *testing.T) {
	s := NewServer("0")
	s.MonitorUpdate(tracking.Status{
		CycleID:   "abc123",
		State:     "tracking",
		Pan:       92.5,
		Tilt:      88,
		LastClass: "cat",
	})

	var got tracking.Status
	if code := doJSON(t, s, "GET", "/api/status", &got); code != 200 {
		t.Fatalf("status code = %d", code)
	}
	if got.CycleID != "abc123" || got.State != "tracking" || got.Pan != 92.5 {
		t.Errorf("status = %+v", got)
	}
}

func TestLogsEndpointBuffersAndTrims(t *testing.T) {
	s := NewServer("0")
	for i := 0; i < maxLogEntries+10; i++ {
		s.MonitorLog("detect", "cat found")
	}

	var got []LogEntry
	if code := doJSON(t, s, "GET", "/api/logs", &got); code != 200 {
		t.Fatalf("status code = %d", code)
	}
	if len(got) != maxLogEntries {
		t.Errorf("log entries = %d, want %d", len(got), maxLogEntries)
	}
	if got[0].Type != "detect" {
		t.Errorf("entry type = %q, want detect", got[0].Type)
	}
}

func TestTriggerEndpoint(t *testing.T) {
	s := NewServer("0")

	// No callback wired.
	if code := doJSON(t, s, "POST", "/api/trigger", nil); code != 503 {
		t.Errorf("status code = %d, want 503 without callback", code)
	}

	fired := 0
	s.OnTrigger = func() error {
		fired++
		return nil
	}
	if code := doJSON(t, s, "POST", "/api/trigger", nil); code != 200 {
		t.Errorf("status code = %d, want 200", code)
	}
	if fired != 1 {
		t.Errorf("trigger fired %d times, want 1", fired)
	}

	s.OnTrigger = func() error { return errors.New("cycle already running") }
	if code := doJSON(t, s, "POST", "/api/trigger", nil); code != 409 {
		t.Errorf("status code = %d, want 409 while busy", code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := NewServer("0")
	req := httptest.NewRequest("GET", "/metrics", nil)
	resp, err := s.app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		t.Errorf("status code = %d, want 200", resp.StatusCode)
	}
}
