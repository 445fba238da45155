// Package nav holds the week navigation state shared by the interactive
// surfaces: the reference instant, week stepping and the keyboard bindings.
package nav

import (
	"time"

	"weekcal/internal/civil"
	"weekcal/internal/layout"
	"weekcal/internal/week"
)

// Focus says where keyboard input currently goes.
type Focus int

const (
	// FocusCalendar means the calendar surface has focus; bindings apply.
	FocusCalendar Focus = iota
	// FocusTextInput means a text-editing control has focus; keys belong to it.
	FocusTextInput
	// FocusOutside means focus is elsewhere in the host.
	FocusOutside
)

// Action is what a key binding resolves to.
type Action int

const (
	ActionNone Action = iota
	ActionPrevious
	ActionNext
	ActionToday
)

var bindings = map[string]Action{
	"left":  ActionPrevious,
	"right": ActionNext,
	"home":  ActionToday,
}

// Controller is not safe for concurrent use; it lives on the UI loop.
type Controller struct {
	clock  civil.Clock
	now    func() time.Time
	ref    time.Time
	scroll layout.AutoScroll
}

// New starts at now(). A nil now means time.Now.
func New(clock civil.Clock, now func() time.Time) *Controller {
	if now == nil {
		now = time.Now
	}
	return &Controller{clock: clock, now: now, ref: now()}
}

func (c *Controller) Reference() time.Time {
	return c.ref
}

// SetReference jumps to the week containing t.
func (c *Controller) SetReference(t time.Time) {
	c.ref = t
	c.scroll.Reset()
}

// Window computes the week for the current reference.
func (c *Controller) Window() week.Window {
	return week.Compute(c.clock, c.ref, c.now())
}

// PreviousWeek steps back seven civil days.
func (c *Controller) PreviousWeek() {
	c.SetReference(c.clock.AddDays(c.ref, -week.DaysPerWeek))
}

// NextWeek steps forward seven civil days.
func (c *Controller) NextWeek() {
	c.SetReference(c.clock.AddDays(c.ref, week.DaysPerWeek))
}

func (c *Controller) GoToToday() {
	c.SetReference(c.now())
}

// Resolve maps a key name to its action. Bindings are ignored unless the
// calendar itself has focus, so typing in a text field never steps weeks.
func Resolve(key string, focus Focus) Action {
	if focus != FocusCalendar {
		return ActionNone
	}
	return bindings[key]
}

// HandleKey applies the binding for key, if any, and reports whether the
// key was consumed.
func (c *Controller) HandleKey(key string, focus Focus) bool {
	switch Resolve(key, focus) {
	case ActionPrevious:
		c.PreviousWeek()
	case ActionNext:
		c.NextWeek()
	case ActionToday:
		c.GoToToday()
	default:
		return false
	}
	return true
}

// ShouldScroll reports whether the surface should scroll to marker now;
// true at most once per reference change.
func (c *Controller) ShouldScroll(w week.Window, marker *layout.NowMarker) bool {
	return c.scroll.Observe(w, marker)
}
