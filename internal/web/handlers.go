package web

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"calhub/internal/ics"
	"calhub/internal/model"
	"calhub/internal/store"
)

// ─── Calendars ───────────────────────────────────────────────────────────

type createCalendarRequest struct {
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
}

func (s *Server) createCalendar(w http.ResponseWriter, r *http.Request) {
	var req createCalendarRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "calendar name is required")
		return
	}
	zone := req.Timezone
	if zone == "" {
		zone = s.cfg.DefaultTimezone
	}

	s.mu.Lock()
	cal, err := s.reg.Create(req.Name, zone)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"name": cal.Name, "timezone": cal.ZoneID})
}

func (s *Server) listCalendars(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	names := s.reg.Names()
	active := ""
	if cal, err := s.reg.Active(); err == nil {
		active = cal.Name
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"calendars": names, "active": active})
}

func (s *Server) useCalendar(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.mu.Lock()
	err := s.reg.Use(name)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": name})
}

func (s *Server) renameCalendar(w http.ResponseWriter, r *http.Request) {
	var req struct {
		NewName string `json:"new_name"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.NewName == "" {
		writeError(w, http.StatusBadRequest, "new_name is required")
		return
	}
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	err := s.reg.Rename(name, req.NewName)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": req.NewName})
}

func (s *Server) changeTimezone(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Timezone string `json:"timezone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	name := chi.URLParam(r, "name")

	s.mu.Lock()
	err := s.reg.ChangeTimezone(name, req.Timezone)
	s.mu.Unlock()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"name": name, "timezone": req.Timezone})
}

// ─── Events ──────────────────────────────────────────────────────────────

type createEventRequest struct {
	Subject     string `json:"subject"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Private     bool   `json:"private"`
	AllDay      bool   `json:"all_day"`
	AutoDecline bool   `json:"auto_decline"`
}

// parseSpan turns the request's start/end strings into concrete times in
// the calendar's zone. All-day requests carry a single date and span
// [date 00:00, next day 00:00).
func parseSpan(req createEventRequest, loc *time.Location) (start, end time.Time, err error) {
	if req.AllDay {
		day, err := model.ParseDate(req.Start, loc)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return day, day.AddDate(0, 0, 1), nil
	}
	start, err = model.ParseDateTime(req.Start, loc)
	if err != nil {
		return
	}
	end, err = model.ParseDateTime(req.End, loc)
	return
}

func visibility(private bool) model.Visibility {
	if private {
		return model.Private
	}
	return model.Public
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.reg.Active()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	start, end, err := parseSpan(req, cal.Zone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	ev, err := model.NewEvent(req.Subject, start, end, req.Description, req.Location, visibility(req.Private))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := cal.Store.CreateEvent(ev, req.AutoDecline); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": ev.ID})
}

type createSeriesRequest struct {
	createEventRequest
	Weekdays string `json:"weekdays"`
	Count    int    `json:"count"`
	Until    string `json:"until"`
}

func (s *Server) createSeries(w http.ResponseWriter, r *http.Request) {
	var req createSeriesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.reg.Active()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	start, end, err := parseSpan(req.createEventRequest, cal.Zone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	days, err := model.ParseWeekdaySet(req.Weekdays)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	var term model.Termination
	if req.Until != "" {
		until, err := model.ParseDate(req.Until, cal.Zone)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		term = model.RepeatUntil(until)
	} else {
		term = model.RepeatCount(req.Count)
	}

	template, err := model.NewEvent(req.Subject, start, end, req.Description, req.Location, visibility(req.Private))
	if err != nil {
		writeEngineError(w, err)
		return
	}
	series, err := cal.Store.CreateSeries(template, days, term)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"instances": len(series.Instances)})
}

type eventRow struct {
	Subject  string    `json:"subject"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
}

func rows(infos []store.EventInfo) []eventRow {
	out := make([]eventRow, 0, len(infos))
	for _, in := range infos {
		out = append(out, eventRow{Subject: in.Subject, Start: in.Start, End: in.End, Location: in.Location})
	}
	return out
}

func (s *Server) queryEvents(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.reg.Active()
	if err != nil {
		writeEngineError(w, err)
		return
	}

	q := r.URL.Query()
	switch {
	case q.Get("date") != "":
		date, err := model.ParseDate(q.Get("date"), cal.Zone)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": rows(cal.Store.EventsOn(date))})
	case q.Get("from") != "" && q.Get("to") != "":
		from, err := model.ParseDateTime(q.Get("from"), cal.Zone)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		to, err := model.ParseDateTime(q.Get("to"), cal.Zone)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"events": rows(cal.Store.EventsBetween(from, to))})
	default:
		writeError(w, http.StatusBadRequest, "query requires ?date= or ?from=&to=")
	}
}

func (s *Server) busy(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.reg.Active()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	at, err := model.ParseDateTime(r.URL.Query().Get("at"), cal.Zone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"busy": cal.Store.IsBusy(at)})
}

type editRequest struct {
	Mode     string `json:"mode"` // name | name-start | name-start-end
	Property string `json:"property"`
	Subject  string `json:"subject"`
	Start    string `json:"start,omitempty"`
	End      string `json:"end,omitempty"`
	Value    string `json:"value"`
}

func (s *Server) editEvents(w http.ResponseWriter, r *http.Request) {
	var req editRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.reg.Active()
	if err != nil {
		writeEngineError(w, err)
		return
	}

	switch req.Mode {
	case "", "name":
		err = cal.Store.EditByName(req.Property, req.Subject, req.Value)
	case "name-start":
		var start time.Time
		start, err = model.ParseDateTime(req.Start, cal.Zone)
		if err == nil {
			err = cal.Store.EditByNameStart(req.Property, req.Subject, start, req.Value)
		}
	case "name-start-end":
		var start, end time.Time
		start, err = model.ParseDateTime(req.Start, cal.Zone)
		if err == nil {
			end, err = model.ParseDateTime(req.End, cal.Zone)
		}
		if err == nil {
			err = cal.Store.EditByNameStartEnd(req.Property, req.Subject, start, end, req.Value)
		}
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown edit mode %q", req.Mode))
		return
	}
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─── ICS ─────────────────────────────────────────────────────────────────

func (s *Server) exportICS(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.reg.Active()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	payload, err := ics.Export(cal)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, payload)
}

func (s *Server) importICS(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, 4<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unreadable body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cal, err := s.reg.Active()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	n, err := ics.Import(cal.Store, payload)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

// ─── Copies ──────────────────────────────────────────────────────────────

type copyEventRequest struct {
	Subject        string `json:"subject"`
	SourceStart    string `json:"source_start"`
	TargetCalendar string `json:"target_calendar"`
	TargetStart    string `json:"target_start"`
}

func (s *Server) copyEvent(w http.ResponseWriter, r *http.Request) {
	var req copyEventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.reg.Active()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	target, err := s.reg.Get(req.TargetCalendar)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	sourceStart, err := model.ParseDateTime(req.SourceStart, src.Zone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	targetStart, err := model.ParseDateTime(req.TargetStart, target.Zone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.reg.CopyEvent(req.Subject, sourceStart, req.TargetCalendar, targetStart); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "copied"})
}

type copyDayRequest struct {
	SourceDate     string `json:"source_date"`
	TargetCalendar string `json:"target_calendar"`
	TargetDate     string `json:"target_date"`
}

func (s *Server) copyDay(w http.ResponseWriter, r *http.Request) {
	var req copyDayRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.reg.Active()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	sourceDate, err := model.ParseDate(req.SourceDate, src.Zone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	targetDate, err := model.ParseDate(req.TargetDate, src.Zone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.reg.CopyEventsOn(sourceDate, req.TargetCalendar, targetDate); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "copied"})
}

type copyRangeRequest struct {
	SourceStart    string `json:"source_start"`
	SourceEnd      string `json:"source_end"`
	TargetCalendar string `json:"target_calendar"`
	TargetAnchor   string `json:"target_anchor"`
}

func (s *Server) copyRange(w http.ResponseWriter, r *http.Request) {
	var req copyRangeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	src, err := s.reg.Active()
	if err != nil {
		writeEngineError(w, err)
		return
	}
	sourceStart, err := model.ParseDate(req.SourceStart, src.Zone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	sourceEnd, err := model.ParseDate(req.SourceEnd, src.Zone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	anchor, err := model.ParseDate(req.TargetAnchor, src.Zone)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	if err := s.reg.CopyEventsBetween(sourceStart, sourceEnd, req.TargetCalendar, anchor); err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "copied"})
}
