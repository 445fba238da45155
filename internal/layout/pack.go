package layout

import (
	"cmp"
	"slices"

	"weekcal/internal/civil"
	"weekcal/internal/model"
)

// EventLayout is the placed rectangle of one segment. Top, Height, Left and
// Width are percentages of the day column.
type EventLayout struct {
	Task         model.CalendarTask `json:"task"`
	Kind         SegmentKind        `json:"kind"`
	StartMinute  int                `json:"start_minute"`
	EndMinute    int                `json:"end_minute"`
	Column       int                `json:"column"`
	TotalColumns int                `json:"total_columns"`
	Top          float64            `json:"top"`
	Height       float64            `json:"height"`
	Left         float64            `json:"left"`
	Width        float64            `json:"width"`
}

// Pack assigns every segment of one day to a column so that no two segments
// in a column overlap, then derives its geometry. Segments are visited by
// start minute (ties keep input order) and each goes into the first column
// it fits. The result is in that visiting order.
//
// TotalColumns is local: one more than the highest column among the
// segment itself and the segments it directly overlaps. Two segments
// chained through a third may therefore get different widths.
func Pack(segs []Segment) []EventLayout {
	sorted := slices.Clone(segs)
	slices.SortStableFunc(sorted, func(a, b Segment) int {
		return cmp.Compare(a.Start, b.Start)
	})

	var columns [][]int
	colOf := make([]int, len(sorted))
	for i, seg := range sorted {
		placed := false
		for c, members := range columns {
			if fits(seg, sorted, members) {
				columns[c] = append(columns[c], i)
				colOf[i] = c
				placed = true
				break
			}
		}
		if !placed {
			columns = append(columns, []int{i})
			colOf[i] = len(columns) - 1
		}
	}

	out := make([]EventLayout, len(sorted))
	for i, seg := range sorted {
		maxCol := colOf[i]
		for j, other := range sorted {
			if j != i && overlaps(seg, other) && colOf[j] > maxCol {
				maxCol = colOf[j]
			}
		}
		total := maxCol + 1
		out[i] = EventLayout{
			Task:         seg.Task,
			Kind:         seg.Kind,
			StartMinute:  seg.Start,
			EndMinute:    seg.End,
			Column:       colOf[i],
			TotalColumns: total,
			Top:          float64(seg.Start) / civil.MinutesPerDay * 100,
			Height:       float64(seg.End-seg.Start) / civil.MinutesPerDay * 100,
			Left:         float64(colOf[i]) / float64(total) * 100,
			Width:        100 / float64(total),
		}
	}
	return out
}

func fits(seg Segment, all []Segment, members []int) bool {
	for _, m := range members {
		if overlaps(seg, all[m]) {
			return false
		}
	}
	return true
}

// overlaps treats touching intervals, and zero-length ones on a boundary,
// as disjoint.
func overlaps(a, b Segment) bool {
	return !(a.End <= b.Start || a.Start >= b.End)
}
