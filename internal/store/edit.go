package store

import (
	"fmt"
	"time"

	"calhub/internal/model"
)

// Editable property tokens.
const (
	PropSubject     = "subject"
	PropDescription = "description"
	PropLocation    = "location"
	PropVisibility  = "visibility"
	PropStart       = "start"
	PropEnd         = "end"
)

// edit is a pre-validated property change. Parsing happens once, before
// any instance is touched, so a bad value can never leave a batch half
// applied.
type edit struct {
	prop string
	str  string
	vis  model.Visibility
	t    time.Time
}

func (s *Store) parseEdit(prop, newValue string) (edit, error) {
	e := edit{prop: prop}
	switch prop {
	case PropSubject, PropDescription, PropLocation:
		e.str = newValue
	case PropVisibility:
		vis, err := model.ParseVisibility(newValue)
		if err != nil {
			return e, err
		}
		e.vis = vis
	case PropStart, PropEnd:
		t, err := model.ParseDateTime(newValue, s.loc)
		if err != nil {
			return e, err
		}
		e.t = t
	default:
		return e, fmt.Errorf("%w: %q", model.ErrInvalidProperty, prop)
	}
	return e, nil
}

// applicable reports whether e may be applied to ev. Start and end moves
// must keep the range strictly ordered, and a series instance stays
// pinned to its original calendar day.
func (e edit) applicable(ev *model.Event, inSeries bool) bool {
	switch e.prop {
	case PropStart:
		if !e.t.Before(ev.End) {
			return false
		}
		if inSeries && !model.SameDate(e.t, ev.Start) {
			return false
		}
	case PropEnd:
		if !e.t.After(ev.Start) {
			return false
		}
		if inSeries && !model.SameDate(e.t, ev.End) {
			return false
		}
	}
	return true
}

func (e edit) apply(ev *model.Event) {
	switch e.prop {
	case PropSubject:
		ev.Subject = e.str
	case PropDescription:
		ev.Description = e.str
	case PropLocation:
		ev.Location = e.str
	case PropVisibility:
		ev.Visibility = e.vis
	case PropStart:
		ev.Start = e.t
	case PropEnd:
		ev.End = e.t
	}
}

type match struct {
	ev       *model.Event
	inSeries bool
}

// runEdit validates the value, collects matches, and applies. Under
// EditSkip an inapplicable instance is a silent per-instance no-op; under
// EditStrict it fails the batch before anything is mutated.
func (s *Store) runEdit(prop, newValue string, matches func() []match) error {
	e, err := s.parseEdit(prop, newValue)
	if err != nil {
		return err
	}
	ms := matches()
	if s.policy == EditStrict {
		for _, m := range ms {
			if !e.applicable(m.ev, m.inSeries) {
				return fmt.Errorf("%w: %s edit not applicable to %q starting %s",
					model.ErrValidation, prop, m.ev.Subject, m.ev.Start.Format(time.RFC3339))
			}
		}
	}
	for _, m := range ms {
		if e.applicable(m.ev, m.inSeries) {
			e.apply(m.ev)
		}
	}
	return nil
}

// EditByName applies the edit to every instance whose subject equals name.
func (s *Store) EditByName(prop, name, newValue string) error {
	return s.runEdit(prop, newValue, func() []match {
		var ms []match
		s.eachInstance(func(ev *model.Event, inSeries bool) bool {
			if ev.Subject == name {
				ms = append(ms, match{ev, inSeries})
			}
			return true
		})
		return ms
	})
}

// EditByNameStart narrows the match to instances whose start instant
// equals start exactly.
func (s *Store) EditByNameStart(prop, name string, start time.Time, newValue string) error {
	return s.runEdit(prop, newValue, func() []match {
		var ms []match
		s.eachInstance(func(ev *model.Event, inSeries bool) bool {
			if ev.Subject == name && ev.Start.Equal(start) {
				ms = append(ms, match{ev, inSeries})
			}
			return true
		})
		return ms
	})
}

// EditByNameStartEnd narrows the match to instances matching subject,
// start and end exactly.
func (s *Store) EditByNameStartEnd(prop, name string, start, end time.Time, newValue string) error {
	return s.runEdit(prop, newValue, func() []match {
		var ms []match
		s.eachInstance(func(ev *model.Event, inSeries bool) bool {
			if ev.Subject == name && ev.Start.Equal(start) && ev.End.Equal(end) {
				ms = append(ms, match{ev, inSeries})
			}
			return true
		})
		return ms
	})
}
