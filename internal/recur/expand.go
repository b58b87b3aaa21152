// Package recur materializes recurring series: it turns a first-occurrence
// template plus a weekday rule into the concrete list of event instances.
package recur

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"calhub/internal/model"
)

// maxOccurrences caps a single expansion to avoid runaway Until bounds.
const maxOccurrences = 5000

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Expand walks calendar days from the template's start date and produces
// one instance per day whose weekday is in days, bounded by term.
//
// An entire-day template (both endpoints at midnight) expands into
// [d 00:00, d+1 00:00) instances; any other template keeps its times of
// day on each matching day and must not cross midnight. Instances are
// returned in chronological order, each with its own UID.
func Expand(template *model.Event, days model.WeekdaySet, term model.Termination) ([]*model.Event, error) {
	if template == nil {
		return nil, fmt.Errorf("%w: series template is nil", model.ErrValidation)
	}
	if days.Empty() {
		return nil, fmt.Errorf("%w: weekday set is empty", model.ErrValidation)
	}

	entireDay := template.EntireDay()
	if !entireDay && !model.SameDate(template.Start, template.End) {
		return nil, fmt.Errorf("%w: repeating events must start and end on the same day", model.ErrValidation)
	}

	byCount := term.Until.IsZero()
	if byCount && term.Count <= 0 {
		return nil, fmt.Errorf("%w: repeat count must be positive, got %d", model.ErrValidation, term.Count)
	}
	anchor := model.StartOfDay(template.Start)
	if !byCount && !term.Until.After(anchor) {
		return nil, fmt.Errorf("%w: repeat-until bound %s is not after series start %s",
			model.ErrValidation, term.Until.Format(time.RFC3339), anchor.Format(time.RFC3339))
	}

	byweekday := make([]rrule.Weekday, 0, 7)
	for _, wd := range days.Weekdays() {
		byweekday = append(byweekday, rruleWeekdays[wd])
	}

	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   template.Start,
		Byweekday: byweekday,
	}
	if byCount {
		opt.Count = term.Count
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("%w: bad recurrence rule: %v", model.ErrValidation, err)
	}

	starts, err := collect(rule, byCount, term.Until)
	if err != nil {
		return nil, err
	}

	instances := make([]*model.Event, 0, len(starts))
	for _, occ := range starts {
		inst, err := materialize(template, occ, entireDay)
		if err != nil {
			return nil, err
		}
		instances = append(instances, inst)
	}
	return instances, nil
}

// collect drains the rule iterator. Count-bounded rules are finite; an
// Until bound stops at the first day on or after the bound's calendar
// date (the bound day itself is excluded).
func collect(rule *rrule.RRule, byCount bool, until time.Time) ([]time.Time, error) {
	if byCount {
		return rule.All(), nil
	}

	uy, um, ud := until.Date()
	boundDay := time.Date(uy, um, ud, 0, 0, 0, 0, rule.OrigOptions.Dtstart.Location())

	var out []time.Time
	next := rule.Iterator()
	for {
		occ, ok := next()
		if !ok {
			return out, nil
		}
		if !model.StartOfDay(occ).Before(boundDay) {
			return out, nil
		}
		out = append(out, occ)
		if len(out) > maxOccurrences {
			return nil, fmt.Errorf("%w: repeat-until bound expands past %d occurrences", model.ErrValidation, maxOccurrences)
		}
	}
}

// materialize builds one instance anchored to occ's calendar day.
func materialize(template *model.Event, occ time.Time, entireDay bool) (*model.Event, error) {
	loc := template.Start.Location()
	y, m, d := occ.Date()

	var start, end time.Time
	if entireDay {
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1)
	} else {
		sh, sm, ss := template.Start.Clock()
		eh, em, es := template.End.Clock()
		start = time.Date(y, m, d, sh, sm, ss, 0, loc)
		end = time.Date(y, m, d, eh, em, es, 0, loc)
	}

	return model.NewEvent(template.Subject, start, end, template.Description, template.Location, template.Visibility)
}
