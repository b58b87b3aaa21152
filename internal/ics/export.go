// Package ics adapts calendars to and from the iCalendar format: a full
// calendar export and a payload import that feeds events into a store.
package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"calhub/internal/model"
	"calhub/internal/registry"
)

const prodID = "-//calhub//calendar engine//EN"

// Export renders the calendar's full contents as an iCalendar document:
// one VEVENT per materialized instance, standalone events first, then
// series instances, matching the engine's export snapshot order.
func Export(cal *registry.Calendar) (string, error) {
	doc := ical.NewCalendar()
	doc.SetMethod(ical.MethodPublish)
	doc.SetProductId(prodID)
	doc.SetXWRCalName(cal.Name)
	doc.SetXWRTimezone(cal.ZoneID)

	for _, inst := range snapshotOrder(cal) {
		addVEvent(doc, inst)
	}
	return doc.Serialize(), nil
}

func addVEvent(doc *ical.Calendar, ev *model.Event) {
	ve := doc.AddEvent(ev.ID)
	ve.SetDtStampTime(time.Now().UTC())
	ve.SetSummary(ev.Subject)
	if ev.Description != "" {
		ve.SetDescription(ev.Description)
	}
	if ev.Location != "" {
		ve.SetLocation(ev.Location)
	}
	if ev.EntireDay() {
		ve.SetAllDayStartAt(ev.Start)
		ve.SetAllDayEndAt(ev.End)
	} else {
		ve.SetStartAt(ev.Start)
		ve.SetEndAt(ev.End)
	}
	class := "PUBLIC"
	if ev.Visibility == model.Private {
		class = "PRIVATE"
	}
	ve.SetProperty(ical.ComponentProperty(ical.PropertyClass), class)
}

// snapshotOrder walks entries the way Store.Snapshot does, but keeps the
// per-instance UID the snapshot rows drop.
func snapshotOrder(cal *registry.Calendar) []*model.Event {
	var out []*model.Event
	entries := cal.Store.Entries()
	for _, entry := range entries {
		if entry.Event != nil {
			out = append(out, entry.Event)
		}
	}
	for _, entry := range entries {
		if entry.Series == nil {
			continue
		}
		out = append(out, entry.Series.Instances...)
	}
	return out
}
