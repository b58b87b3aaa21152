package model

import (
	"fmt"
	"strings"
	"time"
)

// WeekdaySet is a set of weekdays a series repeats on, stored as a bitmask
// indexed by time.Weekday.
type WeekdaySet uint8

// The fixed single-letter weekday alphabet: M T W R F S U for Monday
// through Sunday. R is Thursday, U is Sunday.
var weekdayLetters = map[rune]time.Weekday{
	'M': time.Monday,
	'T': time.Tuesday,
	'W': time.Wednesday,
	'R': time.Thursday,
	'F': time.Friday,
	'S': time.Saturday,
	'U': time.Sunday,
}

// ParseWeekdaySet parses a compact weekday string such as "MWF". An empty
// string or a symbol outside the fixed alphabet is a validation error.
// Repeated letters are allowed and collapse into the set.
func ParseWeekdaySet(s string) (WeekdaySet, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: weekday set is empty", ErrValidation)
	}
	var set WeekdaySet
	for _, r := range strings.ToUpper(s) {
		wd, ok := weekdayLetters[r]
		if !ok {
			return 0, fmt.Errorf("%w: unknown weekday letter %q (alphabet is MTWRFSU)", ErrValidation, r)
		}
		set |= 1 << uint(wd)
	}
	return set, nil
}

// Contains reports whether wd is in the set.
func (s WeekdaySet) Contains(wd time.Weekday) bool {
	return s&(1<<uint(wd)) != 0
}

// Empty reports whether no weekday is set.
func (s WeekdaySet) Empty() bool { return s == 0 }

// Weekdays returns the member days in Monday-first order.
func (s WeekdaySet) Weekdays() []time.Weekday {
	order := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday, time.Thursday,
		time.Friday, time.Saturday, time.Sunday,
	}
	out := make([]time.Weekday, 0, 7)
	for _, wd := range order {
		if s.Contains(wd) {
			out = append(out, wd)
		}
	}
	return out
}

// String renders the set back into the letter alphabet, Monday first.
func (s WeekdaySet) String() string {
	letters := map[time.Weekday]rune{
		time.Monday: 'M', time.Tuesday: 'T', time.Wednesday: 'W',
		time.Thursday: 'R', time.Friday: 'F', time.Saturday: 'S',
		time.Sunday: 'U',
	}
	var b strings.Builder
	for _, wd := range s.Weekdays() {
		b.WriteRune(letters[wd])
	}
	return b.String()
}
