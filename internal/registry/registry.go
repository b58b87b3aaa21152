// Package registry manages named calendars, each bound to an IANA
// timezone, and implements cross-calendar copy with timezone-correct time
// shifting.
package registry

import (
	"fmt"
	"sort"
	"time"

	"calhub/internal/model"
	"calhub/internal/store"
)

// Calendar binds a unique name and timezone to an event store.
type Calendar struct {
	Name   string
	ZoneID string
	Zone   *time.Location
	Store  *store.Store
}

// Registry owns zero or more calendars and tracks the active one. Names
// are case-sensitive and unique. Not safe for concurrent use.
type Registry struct {
	calendars map[string]*Calendar
	active    string
	policy    store.EditPolicy
}

// New creates an empty registry; policy is handed to every store it
// creates.
func New(policy store.EditPolicy) *Registry {
	return &Registry{calendars: make(map[string]*Calendar), policy: policy}
}

// Create adds an empty calendar bound to zoneID. The first calendar
// created becomes active.
func (r *Registry) Create(name, zoneID string) (*Calendar, error) {
	if _, ok := r.calendars[name]; ok {
		return nil, fmt.Errorf("%w: calendar %q already exists", model.ErrDuplicateName, name)
	}
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", model.ErrInvalidTimezone, zoneID)
	}
	cal := &Calendar{
		Name:   name,
		ZoneID: zoneID,
		Zone:   loc,
		Store:  store.New(loc, r.policy),
	}
	r.calendars[name] = cal
	if r.active == "" {
		r.active = name
	}
	return cal, nil
}

// Get looks a calendar up by name.
func (r *Registry) Get(name string) (*Calendar, error) {
	cal, ok := r.calendars[name]
	if !ok {
		return nil, fmt.Errorf("%w: calendar with the given name does not exist: %q", model.ErrNotFound, name)
	}
	return cal, nil
}

// Use makes name the active calendar.
func (r *Registry) Use(name string) error {
	if _, ok := r.calendars[name]; !ok {
		return fmt.Errorf("%w: calendar with the given name does not exist: %q", model.ErrNotFound, name)
	}
	r.active = name
	return nil
}

// Active returns the currently selected calendar.
func (r *Registry) Active() (*Calendar, error) {
	if r.active == "" {
		return nil, fmt.Errorf("%w: no calendar selected", model.ErrNotFound)
	}
	return r.calendars[r.active], nil
}

// Names lists calendar names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.calendars))
	for name := range r.calendars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Rename changes a calendar's name; the active pointer follows.
func (r *Registry) Rename(oldName, newName string) error {
	cal, ok := r.calendars[oldName]
	if !ok {
		return fmt.Errorf("%w: calendar with the given name does not exist: %q", model.ErrNotFound, oldName)
	}
	if _, ok := r.calendars[newName]; ok {
		return fmt.Errorf("%w: calendar %q already exists", model.ErrDuplicateName, newName)
	}
	delete(r.calendars, oldName)
	cal.Name = newName
	r.calendars[newName] = cal
	if r.active == oldName {
		r.active = newName
	}
	return nil
}

// ChangeTimezone rebinds the calendar to zoneID and rewrites every stored
// instant: wall-clock times in the old zone become the same instants
// expressed in the new zone.
func (r *Registry) ChangeTimezone(name, zoneID string) error {
	cal, err := r.Get(name)
	if err != nil {
		return err
	}
	loc, err := time.LoadLocation(zoneID)
	if err != nil {
		return fmt.Errorf("%w: %q", model.ErrInvalidTimezone, zoneID)
	}
	cal.Store.Rezone(loc)
	cal.ZoneID = zoneID
	cal.Zone = loc
	return nil
}
