package ics

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "calhub/internal/log"
	"calhub/internal/model"
	"calhub/internal/store"
)

// Import parses an iCalendar payload and inserts one standalone event per
// VEVENT into the store, without conflict checking (import mirrors the
// row-by-row import collaborator: each row becomes a plain create).
// Events the parser cannot make sense of are logged and skipped; the
// returned count is the number actually inserted.
func Import(s *store.Store, payload []byte) (int, error) {
	if len(payload) == 0 {
		return 0, fmt.Errorf("%w: empty ICS payload", model.ErrValidation)
	}
	doc, err := ical.ParseCalendar(bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("%w: unparsable ICS payload: %v", model.ErrValidation, err)
	}

	imported := 0
	for _, ve := range doc.Events() {
		ev, err := parseVEvent(ve, s.Location())
		if err != nil {
			appLog.Warn("ics import: skipping event", "err", err.Error())
			continue
		}
		if err := s.CreateEvent(ev, false); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

func parseVEvent(ve *ical.VEvent, loc *time.Location) (*model.Event, error) {
	subject := ""
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		subject = p.Value
	}
	description := ""
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		description = p.Value
	}
	location := ""
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		location = p.Value
	}

	vis := model.Public
	if p := ve.GetProperty(ical.ComponentProperty(ical.PropertyClass)); p != nil {
		if strings.EqualFold(strings.TrimSpace(p.Value), "PRIVATE") {
			vis = model.Private
		}
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil || dtStart.Value == "" {
		return nil, fmt.Errorf("missing DTSTART")
	}

	var start, end time.Time
	if isAllDay(dtStart) {
		// All-day: [date 00:00, next day 00:00) in the store's zone.
		day, err := time.ParseInLocation("20060102", dtStart.Value, loc)
		if err != nil {
			return nil, fmt.Errorf("bad all-day DTSTART %q: %w", dtStart.Value, err)
		}
		start = day
		end = day.AddDate(0, 0, 1)
	} else {
		st, err := ve.GetStartAt()
		if err != nil {
			return nil, fmt.Errorf("bad DTSTART: %w", err)
		}
		en, err := ve.GetEndAt()
		if err != nil {
			return nil, fmt.Errorf("bad DTEND: %w", err)
		}
		start = st.In(loc)
		end = en.In(loc)
	}

	return model.NewEvent(subject, start, end, description, location, vis)
}

// isAllDay detects DATE-valued DTSTART: either VALUE=DATE or a value
// carrying no time component.
func isAllDay(p *ical.IANAProperty) bool {
	if p.ICalParameters != nil {
		if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}
