package booking

import (
	"fmt"
	"time"

	"github.com/roomdesk/service-booking/internal/platform/domain"
)

// DateLayout is the ISO-8601 calendar-date format used for booking dates on the wire and at rest.
const DateLayout = "2006-01-02"

// DayOf truncates t to its calendar day, read in t's own location, and returns it as UTC midnight.
// Callers convert to the hotel's timezone first when "today" matters.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, domain.NewValidationError(fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s))
	}
	return t, nil
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// AddDays moves a calendar day by n days.
func AddDays(day time.Time, n int) time.Time {
	return day.AddDate(0, 0, n)
}

// Interval is an inclusive span of calendar days.
type Interval struct {
	Start time.Time
	End   time.Time
}

// OccupiedInterval is the span a stay of durationDays starting on bookingDate holds.
func OccupiedInterval(bookingDate time.Time, durationDays int) Interval {
	start := DayOf(bookingDate)
	return Interval{Start: start, End: AddDays(start, durationDays-1)}
}

// Contains reports whether day falls within the interval, bounds included.
func (i Interval) Contains(day time.Time) bool {
	d := DayOf(day)
	return !d.Before(i.Start) && !d.After(i.End)
}

// Overlaps reports whether the two intervals share at least one day.
func (i Interval) Overlaps(o Interval) bool {
	return !(i.End.Before(o.Start) || o.End.Before(i.Start))
}

// Days returns the number of days in the interval.
func (i Interval) Days() int {
	return int(i.End.Sub(i.Start).Hours()/24) + 1
}

func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s]", FormatDate(i.Start), FormatDate(i.End))
}

// Window is a half-open request range [Start, EndExclusive) of calendar days.
type Window struct {
	Start        time.Time
	EndExclusive time.Time
}

// NewWindow builds a Window, rejecting empty or inverted ranges.
func NewWindow(start, endExclusive time.Time) (Window, error) {
	w := Window{Start: DayOf(start), EndExclusive: DayOf(endExclusive)}
	if !w.EndExclusive.After(w.Start) {
		return Window{}, domain.NewValidationError(fmt.Sprintf(
			"end date %s must be after start date %s", FormatDate(w.EndExclusive), FormatDate(w.Start)))
	}
	return w, nil
}

// StayWindow is the half-open window covered by a stay.
func StayWindow(bookingDate time.Time, durationDays int) Window {
	start := DayOf(bookingDate)
	return Window{Start: start, EndExclusive: AddDays(start, durationDays)}
}

// Inclusive converts the window to inclusive bounds by stepping back one day from the exclusive end.
func (w Window) Inclusive() Interval {
	return Interval{Start: w.Start, End: AddDays(w.EndExclusive, -1)}
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", FormatDate(w.Start), FormatDate(w.EndExclusive))
}
