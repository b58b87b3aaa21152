package model

import "errors"

// Sentinel errors for the engine's failure taxonomy. Callers classify with
// errors.Is; messages carry the specifics.
var (
	// ErrValidation marks malformed or illogical input: bad dates,
	// inverted ranges, empty weekday sets, non-positive counts,
	// unparsable booleans.
	ErrValidation = errors.New("validation failed")

	// ErrConflict marks an overlap detected under auto-decline or
	// recurring-creation rules.
	ErrConflict = errors.New("schedule conflict")

	// ErrInvalidProperty marks an unknown property name in an edit.
	ErrInvalidProperty = errors.New("invalid property")

	// ErrNotFound marks an absent calendar or event instance.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName marks a calendar name collision.
	ErrDuplicateName = errors.New("duplicate calendar name")

	// ErrInvalidTimezone marks an unresolvable IANA zone id.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrAmbiguousMatch marks a copy target matched by more than one
	// instance.
	ErrAmbiguousMatch = errors.New("ambiguous match")
)
