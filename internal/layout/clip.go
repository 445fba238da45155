package layout

import (
	"weekcal/internal/civil"
	"weekcal/internal/model"
)

// SegmentKind tells where a clipped piece sits within its task.
type SegmentKind string

const (
	KindWhole        SegmentKind = "whole"
	KindStart        SegmentKind = "start"
	KindContinuation SegmentKind = "continuation"
	KindEnd          SegmentKind = "end"
)

// Segment is the part of a task inside one civil day, in whole minutes from
// that day's midnight. 0 <= Start <= End <= 1440.
type Segment struct {
	Task  model.CalendarTask
	Start int
	End   int
	Kind  SegmentKind
}

// Clip cuts task down to date's [00:00, 24:00).
func Clip(clock civil.Clock, task model.CalendarTask, date civil.Date) Segment {
	dayStart, dayEnd := clock.DayBounds(date)
	start, end := task.Start, task.End
	if end.Before(start) {
		end = start
	}

	seg := Segment{Task: task}
	switch {
	case !start.After(dayStart):
		seg.Start = 0
	case !start.Before(dayEnd):
		seg.Start = civil.MinutesPerDay
	default:
		seg.Start = clock.MinuteOfDay(start)
	}
	switch {
	case !end.Before(dayEnd):
		seg.End = civil.MinutesPerDay
	case !end.After(dayStart):
		seg.End = 0
	default:
		seg.End = clock.MinuteOfDay(end)
	}
	// The repeated hour of a fall-back day can map a later instant onto an
	// earlier wall-clock minute.
	if seg.End < seg.Start {
		seg.End = seg.Start
	}

	startsHere := !start.Before(dayStart)
	endsHere := !end.After(dayEnd)
	switch {
	case startsHere && endsHere:
		seg.Kind = KindWhole
	case startsHere:
		seg.Kind = KindStart
	case endsHere:
		seg.Kind = KindEnd
	default:
		seg.Kind = KindContinuation
	}
	return seg
}
