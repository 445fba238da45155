// Package layout turns a task list and a week window into percentage-based
// geometry: all-day rows, timed rectangles packed into columns and the
// position of the "now" line.
//
// Every function here is a pure function of its arguments.
package layout

import (
	"time"

	"weekcal/internal/civil"
	"weekcal/internal/model"
	"weekcal/internal/week"
)

// Warning is a data-quality finding the host may surface; it never stops a
// layout pass.
type Warning struct {
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

const warnEndBeforeStart = "end before start; treated as zero duration"

// Classified holds the tasks touching each day of the window, split by the
// all-day flag. Order within a day follows the input order.
type Classified struct {
	AllDay   [week.DaysPerWeek][]model.CalendarTask
	Timed    [week.DaysPerWeek][]model.CalendarTask
	Warnings []Warning
}

// Classify buckets tasks per day. A task lands in a day when its [start, end)
// range intersects the day; a zero-length task lands only in the day that
// contains its instant. Tasks ending before they start are clamped to zero
// length at their start and reported.
func Classify(clock civil.Clock, w week.Window, tasks []model.CalendarTask) Classified {
	var out Classified
	for _, t := range tasks {
		if t.End.Before(t.Start) {
			out.Warnings = append(out.Warnings, Warning{TaskID: t.ID, Message: warnEndBeforeStart})
			t.End = t.Start
		}
		if !intersects(t.Start, t.End, w.Start, w.End) {
			continue
		}
		for i, day := range w.Days {
			dayStart, dayEnd := clock.DayBounds(day.Date)
			if !intersects(t.Start, t.End, dayStart, dayEnd) {
				continue
			}
			if t.AllDay {
				out.AllDay[i] = append(out.AllDay[i], t)
			} else {
				out.Timed[i] = append(out.Timed[i], t)
			}
		}
	}
	return out
}

func intersects(start, end, from, to time.Time) bool {
	if start.Equal(end) {
		return !start.Before(from) && start.Before(to)
	}
	return start.Before(to) && end.After(from)
}
