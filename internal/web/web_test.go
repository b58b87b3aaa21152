package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"calhub/internal/config"
	"calhub/internal/registry"
	"calhub/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.RatePerSec = 0 // no limiter in tests
	srv := NewServer(cfg, registry.New(store.EditSkip))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, ts *httptest.Server, path, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(ts.URL+path, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, ts *httptest.Server, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, dst any) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	resp := get(t, ts, "/health")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("health = %d", resp.StatusCode)
	}
}

func TestCalendarLifecycle(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)

	resp := post(t, ts, "/api/calendars", `{"name":"work","timezone":"America/New_York"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create calendar = %d", resp.StatusCode)
	}

	// Duplicate name conflicts.
	resp = post(t, ts, "/api/calendars", `{"name":"work","timezone":"UTC"}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("duplicate calendar = %d, want 409", resp.StatusCode)
	}

	// Bad timezone is a validation failure.
	resp = post(t, ts, "/api/calendars", `{"name":"bad","timezone":"Nowhere/Zone"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad timezone = %d, want 400", resp.StatusCode)
	}

	var listed struct {
		Calendars []string `json:"calendars"`
		Active    string   `json:"active"`
	}
	resp = get(t, ts, "/api/calendars")
	decode(t, resp, &listed)
	if listed.Active != "work" || len(listed.Calendars) != 1 {
		t.Fatalf("list = %+v", listed)
	}
}

func TestEventCreateQueryBusy(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	post(t, ts, "/api/calendars", `{"name":"work","timezone":"UTC"}`)

	resp := post(t, ts, "/api/events",
		`{"subject":"Review","start":"2025-03-12T09:00","end":"2025-03-12T10:00","auto_decline":true}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create event = %d", resp.StatusCode)
	}

	// Overlapping create under auto-decline conflicts.
	resp = post(t, ts, "/api/events",
		`{"subject":"Clash","start":"2025-03-12T09:30","end":"2025-03-12T10:30","auto_decline":true}`)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("conflicting event = %d, want 409", resp.StatusCode)
	}

	var queried struct {
		Events []eventRow `json:"events"`
	}
	resp = get(t, ts, "/api/events?date=2025-03-12")
	decode(t, resp, &queried)
	if len(queried.Events) != 1 || queried.Events[0].Subject != "Review" {
		t.Fatalf("query = %+v", queried)
	}

	var busy struct {
		Busy bool `json:"busy"`
	}
	resp = get(t, ts, "/api/busy?at=2025-03-12T09:30")
	decode(t, resp, &busy)
	if !busy.Busy {
		t.Error("expected busy at 09:30")
	}
	resp = get(t, ts, "/api/busy?at=2025-03-12T10:00")
	decode(t, resp, &busy)
	if busy.Busy {
		t.Error("an event is not busy at its own end instant")
	}
}

func TestSeriesAndEdit(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	post(t, ts, "/api/calendars", `{"name":"work","timezone":"UTC"}`)

	resp := post(t, ts, "/api/events/series",
		`{"subject":"Standup","start":"2025-03-12T09:00","end":"2025-03-12T09:30","weekdays":"MWF","count":3}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create series = %d", resp.StatusCode)
	}
	var created struct {
		Instances int `json:"instances"`
	}
	decode(t, resp, &created)
	if created.Instances != 3 {
		t.Fatalf("series instances = %d, want 3", created.Instances)
	}

	resp = post(t, ts, "/api/events/edit",
		`{"mode":"name","property":"subject","subject":"Standup","value":"Daily"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("edit = %d", resp.StatusCode)
	}

	resp = post(t, ts, "/api/events/edit",
		`{"mode":"name","property":"color","subject":"Daily","value":"red"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown property = %d, want 400", resp.StatusCode)
	}
}

func TestCopyBetweenCalendars(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	post(t, ts, "/api/calendars", `{"name":"east","timezone":"America/New_York"}`)
	post(t, ts, "/api/calendars", `{"name":"west","timezone":"America/Los_Angeles"}`)

	post(t, ts, "/api/events",
		`{"subject":"Morning","start":"2025-04-01T08:00","end":"2025-04-01T09:00"}`)

	resp := post(t, ts, "/api/copy/day",
		`{"source_date":"2025-04-01","target_calendar":"west","target_date":"2025-04-02"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("copy day = %d", resp.StatusCode)
	}

	// Bad date format is a validation failure.
	resp = post(t, ts, "/api/copy/day",
		`{"source_date":"04/01/2025","target_calendar":"west","target_date":"2025-04-02"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad date = %d, want 400", resp.StatusCode)
	}

	// Missing target calendar.
	resp = post(t, ts, "/api/copy/day",
		`{"source_date":"2025-04-01","target_calendar":"nowhere","target_date":"2025-04-02"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing target = %d, want 404", resp.StatusCode)
	}
}

func TestExportICS(t *testing.T) {
	t.Parallel()
	ts := newTestServer(t)
	post(t, ts, "/api/calendars", `{"name":"work","timezone":"UTC"}`)
	post(t, ts, "/api/events",
		`{"subject":"Review","start":"2025-03-12T09:00","end":"2025-03-12T10:00"}`)

	resp := get(t, ts, "/api/export")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %s", ct)
	}
}
