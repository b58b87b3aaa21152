package ics

import (
	"errors"
	"strings"
	"testing"
	"time"

	"calhub/internal/model"
	"calhub/internal/registry"
	"calhub/internal/store"
)

func calendarWith(t *testing.T, events ...*model.Event) *registry.Calendar {
	t.Helper()
	r := registry.New(store.EditSkip)
	cal, err := r.Create("test", "UTC")
	if err != nil {
		t.Fatal(err)
	}
	for _, ev := range events {
		if err := cal.Store.CreateEvent(ev, false); err != nil {
			t.Fatal(err)
		}
	}
	return cal
}

func event(t *testing.T, subject string, start, end time.Time, vis model.Visibility) *model.Event {
	t.Helper()
	ev, err := model.NewEvent(subject, start, end, "weekly review", "room 2", vis)
	if err != nil {
		t.Fatal(err)
	}
	return ev
}

func TestExportContainsEvents(t *testing.T) {
	t.Parallel()
	start := time.Date(2025, 3, 12, 9, 0, 0, 0, time.UTC)
	cal := calendarWith(t,
		event(t, "Review", start, start.Add(time.Hour), model.Public),
		event(t, "Secret", start.Add(2*time.Hour), start.Add(3*time.Hour), model.Private),
	)

	payload, err := Export(cal)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	for _, want := range []string{
		"BEGIN:VCALENDAR",
		"SUMMARY:Review",
		"SUMMARY:Secret",
		"CLASS:PUBLIC",
		"CLASS:PRIVATE",
		"X-WR-CALNAME:test",
	} {
		if !strings.Contains(payload, want) {
			t.Errorf("export missing %q", want)
		}
	}
	if got := strings.Count(payload, "BEGIN:VEVENT"); got != 2 {
		t.Errorf("export has %d VEVENTs, want 2", got)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	t.Parallel()
	start := time.Date(2025, 3, 12, 9, 30, 0, 0, time.UTC)
	cal := calendarWith(t,
		event(t, "Review", start, start.Add(90*time.Minute), model.Private),
	)

	payload, err := Export(cal)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}

	dst := store.New(time.UTC, store.EditSkip)
	n, err := Import(dst, []byte(payload))
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if n != 1 {
		t.Fatalf("imported %d events, want 1", n)
	}

	got := dst.Instances()[0]
	if got.Subject != "Review" {
		t.Errorf("subject = %q", got.Subject)
	}
	if !got.Start.Equal(start) || !got.End.Equal(start.Add(90*time.Minute)) {
		t.Errorf("times = [%s, %s], want [%s, %s]", got.Start, got.End, start, start.Add(90*time.Minute))
	}
	if got.Visibility != model.Private {
		t.Error("visibility should survive the round trip")
	}
	if got.Description != "weekly review" || got.Location != "room 2" {
		t.Errorf("description/location = %q/%q", got.Description, got.Location)
	}
}

func TestAllDayRoundTrip(t *testing.T) {
	t.Parallel()
	day := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)
	cal := calendarWith(t, event(t, "Offsite", day, day.AddDate(0, 0, 1), model.Public))

	payload, err := Export(cal)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !strings.Contains(payload, "VALUE=DATE") {
		t.Error("all-day export should use DATE values")
	}

	dst := store.New(time.UTC, store.EditSkip)
	if _, err := Import(dst, []byte(payload)); err != nil {
		t.Fatalf("Import: %v", err)
	}
	got := dst.Instances()[0]
	if !got.EntireDay() {
		t.Error("imported all-day event should span whole days")
	}
	if !got.Start.Equal(day) || !got.End.Equal(day.AddDate(0, 0, 1)) {
		t.Errorf("times = [%s, %s]", got.Start, got.End)
	}
}

func TestImportBadPayload(t *testing.T) {
	t.Parallel()
	dst := store.New(time.UTC, store.EditSkip)

	if _, err := Import(dst, nil); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("empty payload: expected ErrValidation, got %v", err)
	}
	if _, err := Import(dst, []byte("not an ics file")); !errors.Is(err, model.ErrValidation) {
		t.Fatalf("garbage payload: expected ErrValidation, got %v", err)
	}
}
