package schedule

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"clinic-dashboard-server/internal/models"
)

// StatusAll disables status filtering.
const StatusAll = "all"

// DateRange narrows the list to a window relative to now.
type DateRange string

const (
	RangeAll      DateRange = "all"
	RangeToday    DateRange = "today"
	RangeWeek     DateRange = "week"
	RangeMonth    DateRange = "month"
	RangePast     DateRange = "past"
	RangeUpcoming DateRange = "upcoming"
)

// SortOrder orders the filtered list by start time.
type SortOrder string

const (
	SortNewestFirst SortOrder = "desc"
	SortOldestFirst SortOrder = "asc"
)

// ErrInvalidFilter is returned by Filter.Validate.
var ErrInvalidFilter = errors.New("invalid filter")

// Filter is the dashboard's search and filter state.
type Filter struct {
	SearchTerm string    `json:"searchTerm"`
	Status     string    `json:"filterStatus"`
	Range      DateRange `json:"dateRange"`
	Sort       SortOrder `json:"sort"`
}

// Normalize fills defaults for empty fields.
func (f Filter) Normalize() Filter {
	if f.Status == "" {
		f.Status = StatusAll
	}
	if f.Range == "" {
		f.Range = RangeAll
	}
	if f.Sort == "" {
		f.Sort = SortNewestFirst
	}
	return f
}

// Validate rejects unknown status, range or sort values.
func (f Filter) Validate() error {
	f = f.Normalize()
	if f.Status != StatusAll && !models.AppointmentStatus(f.Status).Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalidFilter, f.Status)
	}
	switch f.Range {
	case RangeAll, RangeToday, RangeWeek, RangeMonth, RangePast, RangeUpcoming:
	default:
		return fmt.Errorf("%w: range %q", ErrInvalidFilter, f.Range)
	}
	switch f.Sort {
	case SortNewestFirst, SortOldestFirst:
	default:
		return fmt.Errorf("%w: sort %q", ErrInvalidFilter, f.Sort)
	}
	return nil
}

// Matches reports whether a passes every predicate of f.
func Matches(a models.Appointment, f Filter, now time.Time) bool {
	f = f.Normalize()
	return matchesSearch(a, f.SearchTerm) &&
		(f.Status == StatusAll || string(a.Status) == f.Status) &&
		inRange(a.Date, f.Range, now)
}

func matchesSearch(a models.Appointment, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(a.PatientName), term) ||
		strings.Contains(strings.ToLower(a.DoctorName), term) ||
		strings.Contains(strings.ToLower(a.Notes), term)
}

func inRange(t time.Time, r DateRange, now time.Time) bool {
	switch r {
	case RangeToday:
		return sameDay(t, now)
	case RangeWeek:
		return sameWeek(t, now) && t.After(now)
	case RangeMonth:
		lt := t.In(now.Location())
		return lt.Year() == now.Year() && lt.Month() == now.Month()
	case RangePast:
		return t.Before(now) && !sameDay(t, now)
	case RangeUpcoming:
		return t.After(now) || sameDay(t, now)
	}
	return true
}

// startOfDay is midnight of t's calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// sameDay compares calendar days in now's location.
func sameDay(t, now time.Time) bool {
	return startOfDay(t, now.Location()).Equal(startOfDay(now, now.Location()))
}

// sameWeek compares Sunday-based calendar weeks in now's location.
func sameWeek(t, now time.Time) bool {
	loc := now.Location()
	weekStart := func(x time.Time) time.Time {
		d := startOfDay(x, loc)
		return d.AddDate(0, 0, -int(d.Weekday()))
	}
	return weekStart(t).Equal(weekStart(now))
}

// FilterAppointments returns the appointments matching f, ordered by start
// time according to f.Sort. The input is not modified.
func FilterAppointments(list []models.Appointment, f Filter, now time.Time) []models.Appointment {
	f = f.Normalize()
	out := make([]models.Appointment, 0, len(list))
	for _, a := range list {
		if Matches(a, f, now) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if f.Sort == SortOldestFirst {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Date.After(out[j].Date)
	})
	return out
}

// SummaryStats are the dashboard counters.
type SummaryStats struct {
	Total     int `json:"total"`
	Today     int `json:"today"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
	Upcoming  int `json:"upcoming"`
}

// Summarize counts over the unfiltered collection. Upcoming counts
// confirmed appointments starting strictly after the start of now's day.
func Summarize(list []models.Appointment, now time.Time) SummaryStats {
	s := SummaryStats{Total: len(list)}
	dayStart := startOfDay(now, now.Location())
	for _, a := range list {
		if sameDay(a.Date, now) {
			s.Today++
		}
		switch a.Status {
		case models.StatusPending:
			s.Pending++
		case models.StatusConfirmed:
			s.Confirmed++
			if a.Date.After(dayStart) {
				s.Upcoming++
			}
		case models.StatusCompleted:
			s.Completed++
		case models.StatusCancelled:
			s.Cancelled++
		}
	}
	return s
}

// Event colors.
const (
	ColorGreen = "#10b981"
	ColorAmber = "#f59e0b"
	ColorRed   = "#ef4444"
	ColorBlue  = "#3b82f6"
	ColorGray  = "#6b7280"
)

// StatusColor maps a status to its calendar color. Unknown statuses are gray.
func StatusColor(status models.AppointmentStatus) string {
	switch status {
	case models.StatusConfirmed:
		return ColorGreen
	case models.StatusPending:
		return ColorAmber
	case models.StatusCancelled:
		return ColorRed
	case models.StatusCompleted:
		return ColorBlue
	}
	return ColorGray
}

// Style is what the calendar surface applies to an event.
type Style struct {
	BackgroundColor string `json:"backgroundColor"`
	BorderColor     string `json:"borderColor"`
	Color           string `json:"color"`
}

// EventStyle derives the event style from the status alone.
func EventStyle(status models.AppointmentStatus) Style {
	c := StatusColor(status)
	return Style{BackgroundColor: c, BorderColor: c, Color: "#ffffff"}
}

// Event is an appointment projected onto the calendar.
type Event struct {
	ID          models.ID                `json:"id"`
	Title       string                   `json:"title"`
	Start       time.Time                `json:"start"`
	End         time.Time                `json:"end"`
	Status      models.AppointmentStatus `json:"status"`
	Style       Style                    `json:"style"`
	Pending     bool                     `json:"pending"`
	Appointment models.Appointment       `json:"appointment"`
}

// ProjectEvents maps each appointment to a calendar event. Appointments
// without an end time last DefaultDuration.
func ProjectEvents(list []models.Appointment) []Event {
	out := make([]Event, 0, len(list))
	for _, a := range list {
		out = append(out, Event{
			ID:          a.ID,
			Title:       a.PatientName + " - " + a.DoctorName,
			Start:       a.Date,
			End:         a.End(),
			Status:      a.Status,
			Style:       EventStyle(a.Status),
			Appointment: a,
		})
	}
	return out
}
