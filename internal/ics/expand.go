package ics

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/teambition/rrule-go"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/source"
)

const (
	defaultMaxOccurrencesPerEvent = 5000
)

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the zone all-day and floating events are anchored
	// in. If nil, UTC is used; the host zone is never consulted.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the half-open window [RangeStart, RangeEnd).
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent is a safety cap to avoid infinite or extremely
	// large expansions. If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// ExpandResult wraps the expanded tasks and information about truncation.
type ExpandResult struct {
	Tasks []model.CalendarTask
	// TruncatedEvents records UIDs that hit the MaxOccurrencesPerEvent cap.
	TruncatedEvents []string
}

// ExpandTasks expands parsed events into one task per occurrence overlapping
// the configured window. It handles:
//
//   - single non-recurring events
//   - RRULE recurrence with EXDATE removal
//   - RECURRENCE-ID overrides
//   - all-day and floating times, anchored in DisplayLocation
//
// Output is sorted by start, then ID.
func ExpandTasks(events []ParsedEvent, cfg ExpandConfig) (ExpandResult, error) {
	var result ExpandResult

	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return result, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.UTC
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	baseByUID := make(map[string][]ParsedEvent)
	overridesByUID := make(map[string][]ParsedEvent)
	uids := make([]string, 0)

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uids = append(uids, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	tasks := make([]model.CalendarTask, 0)
	for _, uid := range uids {
		ov := overridesByUID[uid]
		truncated := false

		for _, ev := range baseByUID[uid] {
			out, hitCap := expandEvent(ev, ov, cfg)
			if hitCap {
				truncated = true
			}
			tasks = append(tasks, out...)
		}

		if truncated {
			result.TruncatedEvents = append(result.TruncatedEvents, uid)
			appLog.Error("expand: truncated occurrences for UID due to cap",
				errors.New("max occurrences reached"),
				"uid", uid,
				"cap", cfg.MaxOccurrencesPerEvent,
			)
		}
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		if !tasks[i].Start.Equal(tasks[j].Start) {
			return tasks[i].Start.Before(tasks[j].Start)
		}
		return tasks[i].ID < tasks[j].ID
	})
	result.Tasks = tasks
	return result, nil
}

func expandEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.CalendarTask, bool) {
	if ev.RawRRule == "" {
		return expandSingleEvent(ev, overrides, cfg), false
	}
	return expandRecurringEvent(ev, overrides, cfg)
}

func expandSingleEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) []model.CalendarTask {
	start, end := ev.Start, ev.End
	if o, ok := findOverrideForStart(overrides, ev.Start); ok {
		ev, start, end = o, o.Start, o.End
	}

	task := makeTask(ev, start, end, "", cfg.DisplayLocation)
	if !source.Overlaps(task, cfg.RangeStart, cfg.RangeEnd) {
		return nil
	}
	return []model.CalendarTask{task}
}

func expandRecurringEvent(ev ParsedEvent, overrides []ParsedEvent, cfg ExpandConfig) ([]model.CalendarTask, bool) {
	out := make([]model.CalendarTask, 0)
	hitCap := false

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("expand: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return out, false
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Widen the query: occurrences that began before the window can still
	// overlap it, and all-day or floating starts move once re-anchored.
	dur := ev.End.Sub(ev.Start)
	queryStart := cfg.RangeStart.Add(-dur - 24*time.Hour).In(ev.Start.Location())
	queryEnd := cfg.RangeEnd.Add(24 * time.Hour).In(ev.Start.Location())

	occTimes := set.Between(queryStart, queryEnd, true)
	if len(occTimes) > cfg.MaxOccurrencesPerEvent {
		occTimes = occTimes[:cfg.MaxOccurrencesPerEvent]
		hitCap = true
	}

	for _, occStart := range occTimes {
		occEv := ev
		start, end := occStart, occStart.Add(dur)
		if o, ok := findOverrideForStart(overrides, occStart); ok {
			occEv, start, end = o, o.Start, o.End
		}

		task := makeTask(occEv, start, end, instanceKey(occStart), cfg.DisplayLocation)
		if source.Overlaps(task, cfg.RangeStart, cfg.RangeEnd) {
			out = append(out, task)
		}
	}

	return out, hitCap
}

// findOverrideForStart finds an override whose RECURRENCE-ID is the same
// instant as start.
func findOverrideForStart(overrides []ParsedEvent, start time.Time) (ParsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence != nil && ov.Recurrence.Equal(start) {
			return ov, true
		}
	}
	return ParsedEvent{}, false
}

func instanceKey(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// makeTask converts a (possibly overridden) event instance into a task.
// The ID is feed-scoped so equal UIDs in two feeds never collide.
func makeTask(ev ParsedEvent, start, end time.Time, instance string, loc *time.Location) model.CalendarTask {
	switch {
	case ev.AllDay:
		days := int(math.Round(end.Sub(start).Hours() / 24))
		if days < 1 {
			days = 1
		}
		start = time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)
		end = time.Date(start.Year(), start.Month(), start.Day()+days, 0, 0, 0, 0, loc)
	case ev.Floating:
		start = rewall(start, loc)
		end = rewall(end, loc)
	default:
		start = start.In(loc)
		end = end.In(loc)
	}

	id := ev.Feed.ID + ":" + ev.UID
	if instance != "" {
		id += "/" + instance
	}

	return model.CalendarTask{
		ID:         id,
		Title:      ev.Summary,
		Start:      start,
		End:        end,
		AllDay:     ev.AllDay,
		AssigneeID: ev.Feed.Assignee,
		ProjectID:  ev.Feed.Name,
		Status:     ev.Status,
		Priority:   ev.Priority,
	}
}

// rewall keeps t's wall clock but places it in loc.
func rewall(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}
