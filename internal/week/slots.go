package week

import (
	"errors"
	"fmt"
	"time"
)

const (
	// SlotMinutes is the granularity of the time grid.
	SlotMinutes = 30
	// SlotsPerDay is 24 hours * 2 slots per hour.
	SlotsPerDay = 24 * 60 / SlotMinutes
)

var ErrInvalidSlot = errors.New("invalid slot position")

// TimeSlot is one row of the day grid.
type TimeSlot struct {
	Hour   int    `json:"hour"`
	Minute int    `json:"minute"`
	Label  string `json:"label"`
}

var slotTable = func() [SlotsPerDay]TimeSlot {
	var out [SlotsPerDay]TimeSlot
	for i := range out {
		mins := i * SlotMinutes
		out[i] = TimeSlot{
			Hour:   mins / 60,
			Minute: mins % 60,
			Label:  fmt.Sprintf("%02d:%02d", mins/60, mins%60),
		}
	}
	return out
}()

// Slots returns the fixed 48-row half-hour table.
func Slots() [SlotsPerDay]TimeSlot {
	return slotTable
}

// SlotIndex returns the row containing the given minute of day.
func SlotIndex(minute int) int {
	switch {
	case minute < 0:
		return 0
	case minute >= SlotsPerDay*SlotMinutes:
		return SlotsPerDay - 1
	default:
		return minute / SlotMinutes
	}
}

// SlotRange translates a (day, hour, minute) gesture into the [start, end)
// instants of the slot it falls in. The minute snaps down to the slot start.
func (w Window) SlotRange(day, hour, minute int) (time.Time, time.Time, error) {
	if day < 0 || day >= DaysPerWeek || hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: day=%d hour=%d minute=%d", ErrInvalidSlot, day, hour, minute)
	}
	start := hour*60 + minute - minute%SlotMinutes
	d := w.Days[day].Date
	return w.clock.At(d, start), w.clock.At(d, start+SlotMinutes), nil
}
