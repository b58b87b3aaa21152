// Package store implements a single calendar's event collection: creation
// with conflict checking, recurrence materialization, batch property
// edits, date and range queries, busy checks and export snapshots.
package store

import (
	"fmt"
	"strings"
	"time"

	"calhub/internal/model"
	"calhub/internal/recur"
)

// EditPolicy selects how an edit that would violate a per-instance rule
// (inverted range, series day pinning) is handled.
type EditPolicy int

const (
	// EditSkip silently skips the offending instance and continues the
	// batch. This is the engine's default.
	EditSkip EditPolicy = iota
	// EditStrict fails the whole batch with a validation error instead.
	EditStrict
)

// ParseEditPolicy maps the config tokens "skip" and "strict".
func ParseEditPolicy(s string) (EditPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return EditSkip, nil
	case "strict":
		return EditStrict, nil
	}
	return EditSkip, fmt.Errorf("%w: unknown edit policy %q", model.ErrValidation, s)
}

// Store owns an ordered collection of calendar entries. Entries keep
// insertion order; that order is what queries and snapshots iterate in.
// A Store is not safe for concurrent use; callers serialize access.
type Store struct {
	entries []model.Entry
	loc     *time.Location
	policy  EditPolicy
}

// New creates an empty store whose wall-clock times live in loc.
func New(loc *time.Location, policy EditPolicy) *Store {
	if loc == nil {
		loc = time.Local
	}
	return &Store{loc: loc, policy: policy}
}

// Location returns the store's current timezone.
func (s *Store) Location() *time.Location { return s.loc }

// Entries returns the underlying entry list in insertion order.
func (s *Store) Entries() []model.Entry { return s.entries }

// eachInstance visits every materialized instance in insertion order,
// series instances in their chronological order. Returning false stops
// the walk.
func (s *Store) eachInstance(fn func(ev *model.Event, inSeries bool) bool) {
	for _, entry := range s.entries {
		if entry.Event != nil {
			if !fn(entry.Event, false) {
				return
			}
			continue
		}
		for _, inst := range entry.Series.Instances {
			if !fn(inst, true) {
				return
			}
		}
	}
}

// Instances returns every materialized instance in insertion order.
func (s *Store) Instances() []*model.Event {
	var out []*model.Event
	s.eachInstance(func(ev *model.Event, _ bool) bool {
		out = append(out, ev)
		return true
	})
	return out
}

func (s *Store) conflictsWith(ev *model.Event) *model.Event {
	var hit *model.Event
	s.eachInstance(func(existing *model.Event, _ bool) bool {
		if ev.Overlaps(existing) {
			hit = existing
			return false
		}
		return true
	})
	return hit
}

// CreateEvent appends a standalone event. With autoDecline the entire
// store is scanned first and any overlap rejects the insert; without it
// no check is performed and conflicting events may coexist.
func (s *Store) CreateEvent(ev *model.Event, autoDecline bool) error {
	if ev == nil {
		return fmt.Errorf("%w: event is nil", model.ErrValidation)
	}
	if autoDecline {
		if hit := s.conflictsWith(ev); hit != nil {
			return fmt.Errorf("%w: %q [%s, %s) overlaps %q",
				model.ErrConflict, ev.Subject,
				ev.Start.Format(time.RFC3339), ev.End.Format(time.RFC3339), hit.Subject)
		}
	}
	s.entries = append(s.entries, model.Entry{Event: ev})
	return nil
}

// CreateSeries expands the template and appends the series. Unlike single
// creation, recurring creation always declines on conflict: every
// materialized instance is checked against the whole store before
// anything is inserted, so a failure leaves the store unchanged.
func (s *Store) CreateSeries(template *model.Event, days model.WeekdaySet, term model.Termination) (*model.Series, error) {
	instances, err := recur.Expand(template, days, term)
	if err != nil {
		return nil, err
	}
	for _, inst := range instances {
		if hit := s.conflictsWith(inst); hit != nil {
			return nil, fmt.Errorf("%w: series %q instance on %s overlaps %q",
				model.ErrConflict, template.Subject,
				inst.Start.Format("2006-01-02"), hit.Subject)
		}
	}
	series := &model.Series{
		Template:    template,
		Weekdays:    days,
		Termination: term,
		Instances:   instances,
	}
	s.entries = append(s.entries, model.Entry{Series: series})
	return series, nil
}

// EventInfo is the flat query-result row handed to presentation layers.
type EventInfo struct {
	Subject  string
	Start    time.Time
	End      time.Time
	Location string
}

func info(ev *model.Event) EventInfo {
	return EventInfo{Subject: ev.Subject, Start: ev.Start, End: ev.End, Location: ev.Location}
}

// EventsOn lists instances whose start falls on date's calendar day, in
// insertion order.
func (s *Store) EventsOn(date time.Time) []EventInfo {
	out := make([]EventInfo, 0)
	s.eachInstance(func(ev *model.Event, _ bool) bool {
		if model.SameDate(ev.Start, date) {
			out = append(out, info(ev))
		}
		return true
	})
	return out
}

// EventsBetween lists instances fully contained in [start, end]:
// instance start at or after start and instance end at or before end.
func (s *Store) EventsBetween(start, end time.Time) []EventInfo {
	out := make([]EventInfo, 0)
	s.eachInstance(func(ev *model.Event, _ bool) bool {
		if !ev.Start.Before(start) && !ev.End.After(end) {
			out = append(out, info(ev))
		}
		return true
	})
	return out
}

// IsBusy reports whether any instance covers the instant under half-open
// semantics: start <= t < end, so an event is not busy at its own end.
func (s *Store) IsBusy(t time.Time) bool {
	busy := false
	s.eachInstance(func(ev *model.Event, _ bool) bool {
		if !t.Before(ev.Start) && t.Before(ev.End) {
			busy = true
			return false
		}
		return true
	})
	return busy
}

// ExportRow is one flat per-instance row for export formatters. The
// formatter owns all string rendering; the engine hands over typed values.
type ExportRow struct {
	Subject     string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
	Private     bool
	AllDay      bool
}

// Snapshot returns export rows: all standalone events in creation order,
// then each series in creation order with its instances in chronological
// order.
func (s *Store) Snapshot() []ExportRow {
	rows := make([]ExportRow, 0)
	add := func(ev *model.Event) {
		rows = append(rows, ExportRow{
			Subject:     ev.Subject,
			Start:       ev.Start,
			End:         ev.End,
			Description: ev.Description,
			Location:    ev.Location,
			Private:     ev.Visibility == model.Private,
			AllDay:      ev.EntireDay(),
		})
	}
	for _, entry := range s.entries {
		if entry.Event != nil {
			add(entry.Event)
		}
	}
	for _, entry := range s.entries {
		if entry.Series == nil {
			continue
		}
		for _, inst := range entry.Series.Instances {
			add(inst)
		}
	}
	return rows
}

// Rezone rewrites every stored instant into loc: wall-clock times in the
// old zone become the same instants expressed in the new zone.
func (s *Store) Rezone(loc *time.Location) {
	for _, entry := range s.entries {
		if entry.Event != nil {
			entry.Event.Start = entry.Event.Start.In(loc)
			entry.Event.End = entry.Event.End.In(loc)
			continue
		}
		entry.Series.Template.Start = entry.Series.Template.Start.In(loc)
		entry.Series.Template.End = entry.Series.Template.End.In(loc)
		for _, inst := range entry.Series.Instances {
			inst.Start = inst.Start.In(loc)
			inst.End = inst.End.In(loc)
		}
	}
	s.loc = loc
}
