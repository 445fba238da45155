package layout

import (
	"time"

	"weekcal/internal/civil"
	"weekcal/internal/model"
	"weekcal/internal/week"
)

// Input is one layout request.
type Input struct {
	Tasks     []model.CalendarTask
	Reference time.Time

	// SelectedAssignees restricts the output to tasks assigned to one of
	// these ids. Empty means no filter.
	SelectedAssignees []string

	Users []model.User
}

// AllDayItem places an all-day task on one day of the window.
type AllDayItem struct {
	Day  int                `json:"day"`
	Task model.CalendarTask `json:"task"`
	Kind SegmentKind        `json:"kind"`
}

// Output is the complete layout for one week.
type Output struct {
	WeekStart civil.Date                       `json:"week_start"`
	TimeZone  string                           `json:"timezone"`
	Days      [week.DaysPerWeek]week.DayColumn `json:"days"`
	AllDay    []AllDayItem                     `json:"all_day"`
	Timed     map[int][]EventLayout            `json:"timed"`
	Now       *NowMarker                       `json:"now,omitempty"`
	Colors    map[string]string                `json:"colors"`
	Warnings  []Warning                        `json:"warnings,omitempty"`

	// Window is kept for hosts that translate gestures back into instants.
	Window week.Window `json:"-"`
}

// Engine runs the layout pipeline in one fixed zone.
type Engine struct {
	Clock civil.Clock
	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time
}

func NewEngine(clock civil.Clock) *Engine {
	return &Engine{Clock: clock, Now: time.Now}
}

// Time is the engine's notion of now.
func (e *Engine) Time() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

// Compute lays out the week containing in.Reference.
func (e *Engine) Compute(in Input) Output {
	now := e.Time()
	w := week.Compute(e.Clock, in.Reference, now)
	tasks := FilterByAssignee(in.Tasks, in.SelectedAssignees)
	cl := Classify(e.Clock, w, tasks)
	palette := NewPalette(in.Users)

	out := Output{
		WeekStart: w.Monday(),
		TimeZone:  e.Clock.Location().String(),
		Days:      w.Days,
		AllDay:    []AllDayItem{},
		Timed:     make(map[int][]EventLayout),
		Now:       NowAt(e.Clock, w, now),
		Colors:    make(map[string]string),
		Warnings:  cl.Warnings,
		Window:    w,
	}

	for i, day := range w.Days {
		for _, t := range cl.AllDay[i] {
			out.AllDay = append(out.AllDay, AllDayItem{
				Day:  i,
				Task: t,
				Kind: Clip(e.Clock, t, day.Date).Kind,
			})
			out.Colors[t.AssigneeID] = palette.Color(t.AssigneeID)
		}

		if len(cl.Timed[i]) == 0 {
			continue
		}
		segs := make([]Segment, 0, len(cl.Timed[i]))
		for _, t := range cl.Timed[i] {
			segs = append(segs, Clip(e.Clock, t, day.Date))
			out.Colors[t.AssigneeID] = palette.Color(t.AssigneeID)
		}
		out.Timed[i] = Pack(segs)
	}
	return out
}

// Marker recomputes only the now line for an already computed window.
func (e *Engine) Marker(w week.Window) *NowMarker {
	return NowAt(e.Clock, w, e.Time())
}

// FilterByAssignee keeps tasks whose assignee is in ids. Unassigned tasks
// are dropped once any id is selected.
func FilterByAssignee(tasks []model.CalendarTask, ids []string) []model.CalendarTask {
	if len(ids) == 0 {
		return tasks
	}
	keep := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		keep[id] = struct{}{}
	}
	out := make([]model.CalendarTask, 0, len(tasks))
	for _, t := range tasks {
		if _, ok := keep[t.AssigneeID]; ok {
			out = append(out, t)
		}
	}
	return out
}
