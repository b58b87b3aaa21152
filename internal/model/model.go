// Package model defines the core domain types for the scheduling engine:
// events, recurring series, weekday sets and the shared error taxonomy.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Visibility controls whether an event is listed as public or private.
// The zero value is private.
type Visibility bool

const (
	Public  Visibility = true
	Private Visibility = false
)

// ParseVisibility parses a case-insensitive "true"/"false" token, where
// true means public. Any other token is a validation error.
func ParseVisibility(s string) (Visibility, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return Public, nil
	case "false":
		return Private, nil
	}
	return Private, fmt.Errorf("%w: visibility must be true or false, got %q", ErrValidation, s)
}

// Event is a single concrete occurrence on a calendar: either a standalone
// event or one materialized instance of a recurring series.
//
// Start and End are wall-clock times carrying the owning calendar's
// location. The invariant Start < End holds from construction onward; edit
// paths must re-check it before mutating.
type Event struct {
	ID          string
	Subject     string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
	Visibility  Visibility
}

// NewEvent constructs an Event with a fresh UID. It rejects zero-length
// and inverted ranges.
func NewEvent(subject string, start, end time.Time, description, location string, vis Visibility) (*Event, error) {
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: event start %s is not before end %s",
			ErrValidation, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return &Event{
		ID:          uuid.NewString(),
		Subject:     subject,
		Start:       start,
		End:         end,
		Description: description,
		Location:    location,
		Visibility:  vis,
	}, nil
}

// Overlaps reports whether two events share any instant under half-open
// interval semantics: an event ending exactly when another begins does not
// conflict. The relation is symmetric.
func (e *Event) Overlaps(other *Event) bool {
	return e.Start.Before(other.End) && other.Start.Before(e.End)
}

// Duration returns End - Start.
func (e *Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// EntireDay reports whether the event spans whole calendar days, i.e. both
// endpoints sit at midnight.
func (e *Event) EntireDay() bool {
	return atMidnight(e.Start) && atMidnight(e.End)
}

// Clone returns a copy of the event carrying a fresh UID.
func (e *Event) Clone() *Event {
	c := *e
	c.ID = uuid.NewString()
	return &c
}

func atMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0
}

// SameDate reports whether a and b fall on the same calendar day in their
// respective locations.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Termination bounds a recurring series: either by occurrence count
// (Count > 0) or by an exclusive end date (Until non-zero). Exactly one of
// the two must be set; the expander validates this.
type Termination struct {
	Count int
	Until time.Time
}

// RepeatCount bounds a series to n occurrences.
func RepeatCount(n int) Termination { return Termination{Count: n} }

// RepeatUntil bounds a series to days strictly before t's calendar date.
func RepeatUntil(t time.Time) Termination { return Termination{Until: t} }

// Series is a recurring event: a first-occurrence template, the weekdays
// it repeats on, its termination rule and the materialized instances in
// chronological order. Structure is immutable after creation; only
// instance attributes may be edited.
type Series struct {
	Template    *Event
	Weekdays    WeekdaySet
	Termination Termination
	Instances   []*Event
}

// Entry is the tagged union stored by a calendar: exactly one of Event or
// Series is non-nil.
type Entry struct {
	Event  *Event
	Series *Series
}
