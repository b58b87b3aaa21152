package registry

import (
	"fmt"
	"time"

	"calhub/internal/model"
)

// Copy operations read from the active calendar and insert standalone
// copies into the target calendar. Auto-decline is never applied on copy:
// conflicts in the destination are permitted. The target calendar is
// resolved before any insertion, so a failure never partially copies.

// CopyEvent copies the unique instance matching subject and sourceStart
// from the active calendar, placing it at targetStart wall-clock time in
// the target calendar and preserving its duration.
func (r *Registry) CopyEvent(subject string, sourceStart time.Time, targetName string, targetStart time.Time) error {
	src, err := r.Active()
	if err != nil {
		return err
	}
	target, err := r.Get(targetName)
	if err != nil {
		return err
	}

	var found *model.Event
	for _, inst := range src.Store.Instances() {
		if inst.Subject != subject || !inst.Start.Equal(sourceStart) {
			continue
		}
		if found != nil {
			return fmt.Errorf("%w: more than one event named %q starts at %s",
				model.ErrAmbiguousMatch, subject, sourceStart.Format(time.RFC3339))
		}
		found = inst
	}
	if found == nil {
		return fmt.Errorf("%w: no event named %q starts at %s",
			model.ErrNotFound, subject, sourceStart.Format(time.RFC3339))
	}

	start := rebase(targetStart, target.Zone)
	cp := found.Clone()
	cp.Start = start
	cp.End = start.Add(found.Duration())
	return target.Store.CreateEvent(cp, false)
}

// CopyEventsOn copies every instance starting on sourceDate into the
// target calendar, shifted so it lands relative to targetDate. Copying
// nothing is not an error.
func (r *Registry) CopyEventsOn(sourceDate time.Time, targetName string, targetDate time.Time) error {
	src, err := r.Active()
	if err != nil {
		return err
	}
	target, err := r.Get(targetName)
	if err != nil {
		return err
	}

	shift := model.DaysBetween(sourceDate, targetDate)
	var copies []*model.Event
	for _, inst := range src.Store.Instances() {
		if !model.SameDate(inst.Start, sourceDate) {
			continue
		}
		copies = append(copies, shifted(inst, shift, target.Zone))
	}
	for _, cp := range copies {
		if err := target.Store.CreateEvent(cp, false); err != nil {
			return err
		}
	}
	return nil
}

// CopyEventsBetween copies every instance whose start date lies in
// [sourceStart, sourceEndExclusive), each shifted by its day offset from
// sourceStart applied at targetAnchor. An empty range is a no-op.
func (r *Registry) CopyEventsBetween(sourceStart, sourceEndExclusive time.Time, targetName string, targetAnchor time.Time) error {
	src, err := r.Active()
	if err != nil {
		return err
	}
	target, err := r.Get(targetName)
	if err != nil {
		return err
	}

	startDay := model.StartOfDay(sourceStart)
	endDay := model.StartOfDay(sourceEndExclusive)
	shift := model.DaysBetween(sourceStart, targetAnchor)

	var copies []*model.Event
	for _, inst := range src.Store.Instances() {
		day := model.StartOfDay(inst.Start)
		if day.Before(startDay) || !day.Before(endDay) {
			continue
		}
		copies = append(copies, shifted(inst, shift, target.Zone))
	}
	for _, cp := range copies {
		if err := target.Store.CreateEvent(cp, false); err != nil {
			return err
		}
	}
	return nil
}

// shifted clones ev into the target zone: the source instant rendered as
// target-zone wall-clock time, then moved by shift calendar days. The
// duration is preserved exactly.
func shifted(ev *model.Event, shift int, zone *time.Location) *model.Event {
	start := ev.Start.In(zone).AddDate(0, 0, shift)
	cp := ev.Clone()
	cp.Start = start
	cp.End = start.Add(ev.Duration())
	return cp
}

// rebase reinterprets t's wall-clock reading in zone. A time already
// parsed in the right zone passes through unchanged.
func rebase(t time.Time, zone *time.Location) time.Time {
	y, m, d := t.Date()
	hh, mm, ss := t.Clock()
	return time.Date(y, m, d, hh, mm, ss, t.Nanosecond(), zone)
}
