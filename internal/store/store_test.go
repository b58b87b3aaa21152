package store

import (
	"errors"
	"testing"
	"time"

	"calhub/internal/model"
)

var day0 = time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC) // Wednesday

func ev(t *testing.T, subject string, start, end time.Time) *model.Event {
	t.Helper()
	e, err := model.NewEvent(subject, start, end, "", "", model.Public)
	if err != nil {
		t.Fatalf("NewEvent(%s): %v", subject, err)
	}
	return e
}

func hours(h, d time.Duration) (time.Time, time.Time) {
	start := day0.Add(h * time.Hour)
	return start, start.Add(d * time.Hour)
}

func weekdays(t *testing.T, s string) model.WeekdaySet {
	t.Helper()
	set, err := model.ParseWeekdaySet(s)
	if err != nil {
		t.Fatalf("ParseWeekdaySet(%q): %v", s, err)
	}
	return set
}

func TestCreateEventAutoDecline(t *testing.T) {
	t.Parallel()
	s := New(time.UTC, EditSkip)

	aStart, aEnd := hours(0, 1)
	if err := s.CreateEvent(ev(t, "A", aStart, aEnd), true); err != nil {
		t.Fatalf("first create: %v", err)
	}
	err := s.CreateEvent(ev(t, "B", aStart, aEnd), true)
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(s.Instances()) != 1 {
		t.Fatalf("store has %d instances after rejected create, want 1", len(s.Instances()))
	}
}

func TestCreateEventNoCheckWithoutAutoDecline(t *testing.T) {
	t.Parallel()
	s := New(time.UTC, EditSkip)

	start, end := hours(9, 1)
	if err := s.CreateEvent(ev(t, "A", start, end), false); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := s.CreateEvent(ev(t, "A", start, end), false); err != nil {
		t.Fatalf("duplicate create without autoDecline should succeed, got %v", err)
	}
	if len(s.Instances()) != 2 {
		t.Fatalf("store has %d instances, want 2", len(s.Instances()))
	}
}

func TestCreateEventBackToBackNotConflict(t *testing.T) {
	t.Parallel()
	s := New(time.UTC, EditSkip)

	if err := s.CreateEvent(ev(t, "A", day0.Add(9*time.Hour), day0.Add(10*time.Hour)), true); err != nil {
		t.Fatalf("create A: %v", err)
	}
	if err := s.CreateEvent(ev(t, "B", day0.Add(10*time.Hour), day0.Add(11*time.Hour)), true); err != nil {
		t.Fatalf("event starting at A's end should not conflict: %v", err)
	}
}

func TestCreateSeriesAlwaysDeclines(t *testing.T) {
	t.Parallel()
	s := New(time.UTC, EditSkip)

	// A standalone event next Monday 09:00-10:00.
	monday := time.Date(2025, 3, 17, 9, 0, 0, 0, time.UTC)
	if err := s.CreateEvent(ev(t, "Standup", monday, monday.Add(time.Hour)), false); err != nil {
		t.Fatalf("create standalone: %v", err)
	}

	// A MWF series whose third instance lands on that Monday.
	tpl := ev(t, "Review", day0.Add(9*time.Hour), day0.Add(10*time.Hour))
	_, err := s.CreateSeries(tpl, weekdays(t, "MWF"), model.RepeatCount(3))
	if !errors.Is(err, model.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Nothing was inserted: the failed creation left the store unchanged.
	if got := len(s.Instances()); got != 1 {
		t.Fatalf("store has %d instances after failed series create, want 1", got)
	}
}

func TestCreateSeriesSuccess(t *testing.T) {
	t.Parallel()
	s := New(time.UTC, EditSkip)

	tpl := ev(t, "Review", day0.Add(9*time.Hour), day0.Add(10*time.Hour))
	series, err := s.CreateSeries(tpl, weekdays(t, "MWF"), model.RepeatCount(3))
	if err != nil {
		t.Fatalf("CreateSeries: %v", err)
	}
	if len(series.Instances) != 3 {
		t.Fatalf("series has %d instances, want 3", len(series.Instances))
	}
	if got := len(s.Instances()); got != 3 {
		t.Fatalf("store has %d instances, want 3", got)
	}
}

func TestEventsOnInsertionOrder(t *testing.T) {
	t.Parallel()
	s := New(time.UTC, EditSkip)

	late := ev(t, "Late", day0.Add(15*time.Hour), day0.Add(16*time.Hour))
	early := ev(t, "Early", day0.Add(8*time.Hour), day0.Add(9*time.Hour))
	if err := s.CreateEvent(late, false); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateEvent(early, false); err != nil {
		t.Fatal(err)
	}

	got := s.EventsOn(day0)
	if len(got) != 2 {
		t.Fatalf("EventsOn returned %d rows, want 2", len(got))
	}
	// Insertion order, not chronological order.
	if got[0].Subject != "Late" || got[1].Subject != "Early" {
		t.Errorf("order = [%s, %s], want [Late, Early]", got[0].Subject, got[1].Subject)
	}
}

func TestEventsBetweenFullyContained(t *testing.T) {
	t.Parallel()
	s := New(time.UTC, EditSkip)

	inside := ev(t, "Inside", day0.Add(10*time.Hour), day0.Add(11*time.Hour))
	spilling := ev(t, "Spilling", day0.Add(11*time.Hour), day0.Add(14*time.Hour))
	if err := s.CreateEvent(inside, false); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateEvent(spilling, false); err != nil {
		t.Fatal(err)
	}

	got := s.EventsBetween(day0.Add(9*time.Hour), day0.Add(12*time.Hour))
	if len(got) != 1 || got[0].Subject != "Inside" {
		t.Fatalf("EventsBetween = %+v, want only Inside", got)
	}
}

func TestIsBusyHalfOpen(t *testing.T) {
	t.Parallel()
	s := New(time.UTC, EditSkip)

	start := day0.Add(9 * time.Hour)
	end := day0.Add(10 * time.Hour)
	if err := s.CreateEvent(ev(t, "A", start, end), false); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		at   time.Time
		want bool
	}{
		{name: "before", at: start.Add(-time.Minute), want: false},
		{name: "at start", at: start, want: true},
		{name: "inside", at: start.Add(30 * time.Minute), want: true},
		{name: "at end", at: end, want: false},
		{name: "after", at: end.Add(time.Minute), want: false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsBusy(tt.at); got != tt.want {
				t.Errorf("IsBusy(%s) = %v, want %v", tt.at, got, tt.want)
			}
		})
	}
}

func TestSnapshotOrder(t *testing.T) {
	t.Parallel()
	s := New(time.UTC, EditSkip)

	tpl := ev(t, "Series", day0.Add(9*time.Hour), day0.Add(10*time.Hour))
	if _, err := s.CreateSeries(tpl, weekdays(t, "W"), model.RepeatCount(2)); err != nil {
		t.Fatal(err)
	}
	solo, err := model.NewEvent("Solo", day0.Add(12*time.Hour), day0.Add(13*time.Hour), "notes", "room 4", model.Private)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.CreateEvent(solo, false); err != nil {
		t.Fatal(err)
	}

	rows := s.Snapshot()
	if len(rows) != 3 {
		t.Fatalf("snapshot has %d rows, want 3", len(rows))
	}
	// Standalone events come first even though the series was created
	// earlier; series instances follow in chronological order.
	if rows[0].Subject != "Solo" {
		t.Errorf("rows[0] = %s, want Solo", rows[0].Subject)
	}
	if !rows[0].Private {
		t.Error("rows[0].Private should be true for a private event")
	}
	if rows[1].Subject != "Series" || rows[2].Subject != "Series" {
		t.Errorf("series rows = [%s, %s]", rows[1].Subject, rows[2].Subject)
	}
	if rows[1].Start.After(rows[2].Start) {
		t.Error("series instances out of chronological order")
	}
}

func TestRezone(t *testing.T) {
	t.Parallel()
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	la, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}

	s := New(ny, EditSkip)
	start := time.Date(2025, 4, 1, 8, 0, 0, 0, ny)
	if err := s.CreateEvent(ev(t, "A", start, start.Add(time.Hour)), false); err != nil {
		t.Fatal(err)
	}

	s.Rezone(la)
	got := s.Instances()[0]
	if got.Start.Hour() != 5 {
		t.Errorf("8am ET should become 5am PT, got %02d:00", got.Start.Hour())
	}
	if !got.Start.Equal(start) {
		t.Error("rezone must preserve the instant")
	}

	// Round trip restores wall-clock times.
	s.Rezone(ny)
	back := s.Instances()[0]
	if back.Start.Hour() != 8 {
		t.Errorf("round trip should restore 8am, got %02d:00", back.Start.Hour())
	}
}
