package layout

import (
	"time"

	"weekcal/internal/civil"
	"weekcal/internal/week"
)

// NowMarker positions the current-time line inside a day column.
type NowMarker struct {
	Day int     `json:"day"`
	Top float64 `json:"top"`
}

// NowAt returns the marker for now, or nil when today is outside w. The
// marker is never clamped to the edge of a neighbouring week.
func NowAt(clock civil.Clock, w week.Window, now time.Time) *NowMarker {
	cv := clock.ToCivil(now)
	day := w.IndexOf(cv.Date())
	if day < 0 {
		return nil
	}
	return &NowMarker{Day: day, Top: cv.Minutes() / civil.MinutesPerDay * 100}
}

// AutoScroll fires once per shown week that contains today. It starts
// pending, becomes done after firing and goes back to pending on Reset or
// when a different week is observed.
type AutoScroll struct {
	key  string
	done bool
}

// Observe reports whether the surface should scroll to marker now.
func (a *AutoScroll) Observe(w week.Window, marker *NowMarker) bool {
	if k := w.Key(); k != a.key {
		a.key = k
		a.done = false
	}
	if a.done || marker == nil {
		return false
	}
	a.done = true
	return true
}

// Reset re-arms the scroll after the reference instant moved.
func (a *AutoScroll) Reset() {
	a.done = false
}

func (a *AutoScroll) Pending() bool {
	return !a.done
}
