package week

import (
	"time"

	"weekcal/internal/civil"
)

// DaysPerWeek is the width of the window; the first day is always Monday.
const DaysPerWeek = 7

var shortNames = [DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// DayColumn describes one day of the displayed week.
type DayColumn struct {
	Date      civil.Date `json:"date"`
	Label     string     `json:"label"`
	DateLabel string     `json:"date_label"`
	IsToday   bool       `json:"is_today"`
}

// Window is the Monday-anchored week being displayed.
type Window struct {
	Days [DaysPerWeek]DayColumn

	// Start and End bound the week as instants: Monday 00:00 up to the
	// following Monday 00:00 in the clock's zone.
	Start time.Time
	End   time.Time

	clock civil.Clock
}

// Compute builds the week containing ref. IsToday is judged against now,
// not ref, so browsing other weeks never moves the highlight.
func Compute(clock civil.Clock, ref, now time.Time) Window {
	refDate := clock.DateOf(ref)
	today := clock.DateOf(now)
	monday := refDate.AddDays(-(refDate.ISOWeekday() - 1))

	w := Window{clock: clock}
	for i := 0; i < DaysPerWeek; i++ {
		d := monday.AddDays(i)
		w.Days[i] = DayColumn{
			Date:      d,
			Label:     shortNames[i],
			DateLabel: time.Date(d.Year, d.Month, d.Day, 12, 0, 0, 0, time.UTC).Format("Jan 2"),
			IsToday:   d == today,
		}
	}
	w.Start = clock.Midnight(monday)
	w.End = clock.Midnight(monday.AddDays(DaysPerWeek))
	return w
}

// Clock returns the clock the window was computed with.
func (w Window) Clock() civil.Clock {
	return w.clock
}

// Monday returns the first date of the window.
func (w Window) Monday() civil.Date {
	return w.Days[0].Date
}

// Key identifies the week; two windows with the same key show the same days.
func (w Window) Key() string {
	return w.Days[0].Date.String()
}

// IndexOf returns the day index of d, or -1 when d is outside the window.
func (w Window) IndexOf(d civil.Date) int {
	for i, day := range w.Days {
		if day.Date == d {
			return i
		}
	}
	return -1
}

func (w Window) Contains(d civil.Date) bool {
	return w.IndexOf(d) >= 0
}

// TodayIndex returns the index of the highlighted day, or -1.
func (w Window) TodayIndex() int {
	for i, day := range w.Days {
		if day.IsToday {
			return i
		}
	}
	return -1
}
