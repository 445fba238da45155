package layout

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"weekcal/internal/civil"
	"weekcal/internal/model"
	"weekcal/internal/week"
)

const eps = 1e-9

func seoul(t *testing.T) civil.Clock {
	t.Helper()
	c, err := civil.LoadClock("Asia/Seoul")
	if err != nil {
		t.Fatalf("load clock: %v", err)
	}
	return c
}

func at(c civil.Clock, y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, c.Location())
}

func seg(id string, start, end int) Segment {
	return Segment{Task: model.CalendarTask{ID: id}, Start: start, End: end, Kind: KindWhole}
}

func byID(out []EventLayout) map[string]EventLayout {
	m := make(map[string]EventLayout, len(out))
	for _, l := range out {
		m[l.Task.ID] = l
	}
	return m
}

func TestPackIdenticalIntervals(t *testing.T) {
	out := byID(Pack([]Segment{seg("a", 540, 600), seg("b", 540, 600)}))
	a, b := out["a"], out["b"]
	if a.TotalColumns != 2 || b.TotalColumns != 2 {
		t.Fatalf("expected 2 columns each, got %d and %d", a.TotalColumns, b.TotalColumns)
	}
	if a.Left != 0 || a.Width != 50 {
		t.Fatalf("expected a at left=0 width=50, got %v %v", a.Left, a.Width)
	}
	if b.Left != 50 || b.Width != 50 {
		t.Fatalf("expected b at left=50 width=50, got %v %v", b.Left, b.Width)
	}
}

func TestPackChainedOverlaps(t *testing.T) {
	// A 09:00-10:00, B 09:30-10:30, C 10:15-11:00: A∩B, B∩C, not A∩C.
	out := byID(Pack([]Segment{seg("a", 540, 600), seg("b", 570, 630), seg("c", 615, 660)}))
	a, b, c := out["a"], out["b"], out["c"]
	if b.Column == a.Column || b.Column == c.Column {
		t.Fatalf("b must not share a column: a=%d b=%d c=%d", a.Column, b.Column, c.Column)
	}
	if a.Column != 0 || c.Column != 0 || b.Column != 1 {
		t.Fatalf("expected first-fit columns 0/1/0, got %d/%d/%d", a.Column, b.Column, c.Column)
	}
	for _, l := range []EventLayout{a, b, c} {
		if l.TotalColumns != 2 {
			t.Fatalf("%s: expected 2 columns, got %d", l.Task.ID, l.TotalColumns)
		}
	}
}

func TestPackPairwiseTotalColumns(t *testing.T) {
	// a spans everything; b and c stack beside it; d only overlaps c.
	out := byID(Pack([]Segment{
		seg("a", 0, 600),
		seg("b", 0, 300),
		seg("c", 300, 600),
		seg("x", 0, 120),
		seg("d", 580, 700),
	}))
	// a=0, b=1, x=2, c=1, d=2 (overlaps a and c, not x).
	if out["x"].Column != 2 || out["d"].Column != 2 {
		t.Fatalf("unexpected columns x=%d d=%d", out["x"].Column, out["d"].Column)
	}
	if out["c"].TotalColumns != 3 {
		t.Fatalf("c overlaps d in column 2, expected 3 total, got %d", out["c"].TotalColumns)
	}
	if out["b"].TotalColumns != 3 {
		t.Fatalf("b overlaps x in column 2, expected 3 total, got %d", out["b"].TotalColumns)
	}
	// A segment whose neighbours sit in lower columns still counts itself.
	if l := out["d"]; l.Left+l.Width > 100+eps {
		t.Fatalf("d overflows: left=%v width=%v", l.Left, l.Width)
	}
}

func TestPackStableForTies(t *testing.T) {
	out := Pack([]Segment{seg("late", 600, 660), seg("first", 540, 600), seg("second", 540, 570)})
	got := []string{out[0].Task.ID, out[1].Task.ID, out[2].Task.ID}
	want := []string{"first", "second", "late"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, got)
		}
	}
	if out[2].Column != 0 {
		t.Fatalf("late starts when first ends and should reuse column 0, got %d", out[2].Column)
	}
}

func TestPackZeroDuration(t *testing.T) {
	out := byID(Pack([]Segment{seg("blip", 600, 600), seg("meeting", 570, 630)}))
	blip := out["blip"]
	if blip.Height != 0 {
		t.Fatalf("expected zero height, got %v", blip.Height)
	}
	start := 600
	if want := float64(start) / civil.MinutesPerDay * 100; blip.Top != want {
		t.Fatalf("expected top %v, got %v", want, blip.Top)
	}
	if blip.Column == out["meeting"].Column {
		t.Fatalf("zero-length segment inside a meeting must not share its column")
	}
}

func randomSegments(r *rand.Rand, n int) []Segment {
	segs := make([]Segment, n)
	for i := range segs {
		start := r.Intn(civil.MinutesPerDay + 1)
		end := start + r.Intn(civil.MinutesPerDay-start+1)
		if r.Intn(5) == 0 {
			end = start
		}
		segs[i] = seg(fmt.Sprintf("t%d", i), start, end)
	}
	return segs
}

func TestPackInvariantsRandomised(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for round := 0; round < 300; round++ {
		out := Pack(randomSegments(r, 1+r.Intn(25)))
		for i, a := range out {
			if a.Top < 0 || a.Top+a.Height > 100+eps {
				t.Fatalf("round %d: vertical bounds broken: %+v", round, a)
			}
			if a.Left < 0 || a.Left+a.Width > 100+eps {
				t.Fatalf("round %d: horizontal bounds broken: %+v", round, a)
			}
			for j, b := range out {
				if i == j || a.Column != b.Column {
					continue
				}
				if a.StartMinute < b.EndMinute && b.StartMinute < a.EndMinute {
					t.Fatalf("round %d: %s and %s overlap in column %d", round, a.Task.ID, b.Task.ID, a.Column)
				}
			}
		}
	}
}

func TestClipMultiDay(t *testing.T) {
	c := seoul(t)
	task := model.CalendarTask{
		ID:    "late",
		Start: at(c, 2025, time.October, 18, 22, 0), // Saturday
		End:   at(c, 2025, time.October, 19, 2, 0),  // Sunday
	}
	w := week.Compute(c, task.Start, task.Start)
	cl := Classify(c, w, []model.CalendarTask{task})

	var segs []Segment
	for i, day := range w.Days {
		for _, tk := range cl.Timed[i] {
			segs = append(segs, Clip(c, tk, day.Date))
			if i != 5 && i != 6 {
				t.Fatalf("task classified into day %d", i)
			}
		}
	}
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].Start != 22*60 || segs[0].End != 1440 || segs[0].Kind != KindStart {
		t.Fatalf("unexpected saturday segment %+v", segs[0])
	}
	if segs[1].Start != 0 || segs[1].End != 120 || segs[1].Kind != KindEnd {
		t.Fatalf("unexpected sunday segment %+v", segs[1])
	}
}

func TestClipReconstructsInterval(t *testing.T) {
	c := seoul(t)
	start := at(c, 2025, time.October, 14, 13, 45)
	end := at(c, 2025, time.October, 16, 8, 15)
	task := model.CalendarTask{ID: "trip", Start: start, End: end}

	w := week.Compute(c, start, start)
	cl := Classify(c, w, []model.CalendarTask{task})

	cursor := start
	kinds := []SegmentKind{}
	for i, day := range w.Days {
		for _, tk := range cl.Timed[i] {
			s := Clip(c, tk, day.Date)
			from, to := c.At(day.Date, s.Start), c.At(day.Date, s.End)
			if !from.Equal(cursor) {
				t.Fatalf("gap or overlap at %v (expected %v)", from, cursor)
			}
			cursor = to
			kinds = append(kinds, s.Kind)
		}
	}
	if !cursor.Equal(end) {
		t.Fatalf("expected reconstruction to end at %v, got %v", end, cursor)
	}
	want := []SegmentKind{KindStart, KindContinuation, KindEnd}
	if fmt.Sprint(kinds) != fmt.Sprint(want) {
		t.Fatalf("expected kinds %v, got %v", want, kinds)
	}
}

func TestClipFallBackDayStaysOrdered(t *testing.T) {
	c, err := civil.LoadClock("Europe/Berlin")
	if err != nil {
		t.Fatalf("load clock: %v", err)
	}
	// 02:30 CEST to 02:15 CET is 45 real minutes on 2025-10-26.
	start := time.Date(2025, 10, 26, 0, 30, 0, 0, time.UTC)
	task := model.CalendarTask{ID: "dst", Start: start, End: start.Add(45 * time.Minute)}
	s := Clip(c, task, c.DateOf(start))
	if s.Start != 150 || s.End != 150 {
		t.Fatalf("expected end raised to start at 150, got %+v", s)
	}
}

func TestClassifyEdges(t *testing.T) {
	c := seoul(t)
	ref := at(c, 2025, time.October, 15, 12, 0)
	w := week.Compute(c, ref, ref)
	tasks := []model.CalendarTask{
		{ID: "midnight", Start: at(c, 2025, time.October, 16, 0, 0), End: at(c, 2025, time.October, 16, 0, 0)},
		{ID: "ends-at-midnight", Start: at(c, 2025, time.October, 14, 23, 0), End: at(c, 2025, time.October, 15, 0, 0)},
		{ID: "backwards", Start: at(c, 2025, time.October, 17, 10, 0), End: at(c, 2025, time.October, 17, 9, 0)},
		{ID: "outside", Start: at(c, 2025, time.October, 20, 9, 0), End: at(c, 2025, time.October, 20, 10, 0)},
		{ID: "holiday", AllDay: true, Start: at(c, 2025, time.October, 13, 0, 0), End: at(c, 2025, time.October, 14, 0, 0)},
	}
	cl := Classify(c, w, tasks)

	where := map[string][]int{}
	for i := range w.Days {
		for _, tk := range cl.Timed[i] {
			where[tk.ID] = append(where[tk.ID], i)
		}
		for _, tk := range cl.AllDay[i] {
			where["allday:"+tk.ID] = append(where["allday:"+tk.ID], i)
		}
	}
	expect := map[string][]int{
		"midnight":         {3},
		"ends-at-midnight": {1},
		"backwards":        {4},
		"allday:holiday":   {0},
	}
	for id, days := range expect {
		if fmt.Sprint(where[id]) != fmt.Sprint(days) {
			t.Fatalf("%s: expected days %v, got %v", id, days, where[id])
		}
	}
	if _, ok := where["outside"]; ok {
		t.Fatalf("task outside the window was classified")
	}
	if len(cl.Warnings) != 1 || cl.Warnings[0].TaskID != "backwards" {
		t.Fatalf("expected one warning for backwards, got %+v", cl.Warnings)
	}
}

func TestNowAt(t *testing.T) {
	c := seoul(t)
	now := time.Date(2025, 10, 16, 3, 30, 30, 0, time.UTC) // 12:30:30 KST, Thursday
	w := week.Compute(c, now, now)

	m := NowAt(c, w, now)
	if m == nil || m.Day != 3 {
		t.Fatalf("expected marker on Thursday, got %+v", m)
	}
	minutes := 12*60 + 30 + 0.5
	if want := minutes / civil.MinutesPerDay * 100; m.Top != want {
		t.Fatalf("expected top %v, got %v", want, m.Top)
	}

	other := week.Compute(c, now.AddDate(0, 0, 7), now)
	if NowAt(c, other, now) != nil {
		t.Fatalf("expected no marker outside the current week")
	}
}

func TestAutoScrollFiresOncePerWeek(t *testing.T) {
	c := seoul(t)
	now := at(c, 2025, time.October, 16, 9, 0)
	this := week.Compute(c, now, now)
	next := week.Compute(c, now.AddDate(0, 0, 7), now)
	marker := NowAt(c, this, now)

	var a AutoScroll
	if !a.Pending() || !a.Observe(this, marker) {
		t.Fatalf("expected first observation of today's week to fire")
	}
	if a.Observe(this, marker) {
		t.Fatalf("expected second observation to be suppressed")
	}
	if a.Observe(next, NowAt(c, next, now)) {
		t.Fatalf("a week without today must not fire")
	}
	if !a.Observe(this, marker) {
		t.Fatalf("returning to today's week should fire again")
	}
	a.Reset()
	if !a.Observe(this, marker) {
		t.Fatalf("reset should re-arm the scroll")
	}
}

func TestPalette(t *testing.T) {
	p := NewPalette([]model.User{
		{ID: "ana", DisplayColor: "#FF0000"},
		{ID: "bo", DisplayColor: "not-a-colour"},
	})
	if got := p.Color("ana"); got != "#ff0000" {
		t.Fatalf("expected configured colour, got %s", got)
	}
	if got := p.Color("bo"); got != PlaceholderColor("bo") {
		t.Fatalf("expected placeholder for bad colour, got %s", got)
	}
	if PlaceholderColor("ghost") != PlaceholderColor("ghost") {
		t.Fatalf("placeholder colour must be deterministic")
	}
	if p.Color("") != UnassignedColor {
		t.Fatalf("expected unassigned colour")
	}
}

func sampleTasks(c civil.Clock) []model.CalendarTask {
	return []model.CalendarTask{
		{ID: "1", Title: "standup", AssigneeID: "ana", Start: at(c, 2025, time.October, 14, 9, 0), End: at(c, 2025, time.October, 14, 9, 15)},
		{ID: "2", Title: "review", AssigneeID: "bo", Start: at(c, 2025, time.October, 14, 9, 0), End: at(c, 2025, time.October, 14, 10, 0)},
		{ID: "3", Title: "offsite", AssigneeID: "ana", AllDay: true, Start: at(c, 2025, time.October, 16, 0, 0), End: at(c, 2025, time.October, 18, 0, 0)},
		{ID: "4", Title: "deploy", Start: at(c, 2025, time.October, 18, 22, 0), End: at(c, 2025, time.October, 19, 2, 0)},
		{ID: "5", Title: "broken", AssigneeID: "cy", Start: at(c, 2025, time.October, 15, 11, 0), End: at(c, 2025, time.October, 15, 10, 0)},
	}
}

func TestEngineCompute(t *testing.T) {
	c := seoul(t)
	e := NewEngine(c)
	e.Now = func() time.Time { return at(c, 2025, time.October, 16, 14, 0) }

	out := e.Compute(Input{
		Tasks:     sampleTasks(c),
		Reference: at(c, 2025, time.October, 13, 0, 0),
		Users:     []model.User{{ID: "ana", DisplayColor: "#00ff00"}},
	})

	if out.WeekStart.String() != "2025-10-13" || out.TimeZone != "Asia/Seoul" {
		t.Fatalf("unexpected header %s %s", out.WeekStart, out.TimeZone)
	}
	if !out.Days[3].IsToday || out.Now == nil || out.Now.Day != 3 {
		t.Fatalf("expected Thursday as today with a marker, got %+v", out.Now)
	}
	if len(out.AllDay) != 2 || out.AllDay[0].Kind != KindStart || out.AllDay[1].Kind != KindEnd {
		t.Fatalf("unexpected all-day items %+v", out.AllDay)
	}
	if len(out.Timed[1]) != 2 || len(out.Timed[5]) != 1 || len(out.Timed[6]) != 1 || len(out.Timed[2]) != 1 {
		t.Fatalf("unexpected timed buckets: %d %d %d %d", len(out.Timed[1]), len(out.Timed[2]), len(out.Timed[5]), len(out.Timed[6]))
	}
	if _, ok := out.Timed[0]; ok {
		t.Fatalf("empty days should be absent from the timed map")
	}
	if out.Colors["ana"] != "#00ff00" || out.Colors[""] != UnassignedColor || out.Colors["cy"] != PlaceholderColor("cy") {
		t.Fatalf("unexpected colours %v", out.Colors)
	}
	if len(out.Warnings) != 1 || out.Warnings[0].TaskID != "5" {
		t.Fatalf("expected a warning for task 5, got %+v", out.Warnings)
	}
}

func TestEngineFilter(t *testing.T) {
	c := seoul(t)
	e := NewEngine(c)
	out := e.Compute(Input{
		Tasks:             sampleTasks(c),
		Reference:         at(c, 2025, time.October, 13, 0, 0),
		SelectedAssignees: []string{"ana"},
	})
	for _, day := range out.Timed {
		for _, l := range day {
			if l.Task.AssigneeID != "ana" {
				t.Fatalf("filtered output contains %s", l.Task.AssigneeID)
			}
		}
	}
	if len(out.Timed[1]) != 1 || out.Timed[1][0].Width != 100 {
		t.Fatalf("standup alone should take the full width: %+v", out.Timed[1])
	}
}

func TestEngineIdempotent(t *testing.T) {
	c := seoul(t)
	e := NewEngine(c)
	fixed := at(c, 2025, time.October, 16, 14, 0)
	e.Now = func() time.Time { return fixed }

	r := rand.New(rand.NewSource(7))
	var tasks []model.CalendarTask
	base := at(c, 2025, time.October, 13, 0, 0)
	for i := 0; i < 60; i++ {
		start := base.Add(time.Duration(r.Intn(7*24*60)) * time.Minute)
		tasks = append(tasks, model.CalendarTask{
			ID:    fmt.Sprintf("t%d", i),
			Start: start,
			End:   start.Add(time.Duration(r.Intn(300)) * time.Minute),
		})
	}
	in := Input{Tasks: tasks, Reference: base}

	a, err := json.Marshal(e.Compute(in))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	b, _ := json.Marshal(e.Compute(in))
	if !bytes.Equal(a, b) {
		t.Fatalf("expected byte-identical output")
	}
}
