// Package printer writes a computed week as a plain table.
package printer

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"

	"weekcal/internal/civil"
	"weekcal/internal/layout"
)

var (
	bold  = color.New(color.Bold).SprintFunc()
	today = color.New(color.Bold, color.FgRed).SprintFunc()
	faint = color.New(color.Faint).SprintFunc()
)

// Week prints one row per timed entry, grouped by day:
//
//	Mon  Oct 13  Offsite  09:00-10:00  Review [1/2]
func Week(w io.Writer, out layout.Output) error {
	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 48
	tbl.AddRow(bold("Day"), bold("Date"), bold("All day"), bold("Timed"))

	allDay := make(map[int][]string)
	for _, item := range out.AllDay {
		allDay[item.Day] = append(allDay[item.Day], item.Task.Title)
	}

	for i, col := range out.Days {
		label, date := col.Label, col.DateLabel
		if col.IsToday {
			label, date = today(label), today(date)
		}
		timed := out.Timed[i]
		if len(timed) == 0 {
			tbl.AddRow(label, date, strings.Join(allDay[i], ", "), faint("-"))
			continue
		}
		for j, ev := range timed {
			if j == 0 {
				tbl.AddRow(label, date, strings.Join(allDay[i], ", "), entry(ev))
				continue
			}
			tbl.AddRow("", "", "", entry(ev))
		}
	}

	if _, err := fmt.Fprintln(w, tbl); err != nil {
		return err
	}
	if out.Now != nil {
		minutes := int(math.Floor(out.Now.Top/100*civil.MinutesPerDay + 1e-9))
		if _, err := fmt.Fprintf(w, "now: %s %s\n", out.Days[out.Now.Day].Label, clock(minutes)); err != nil {
			return err
		}
	}
	for _, warn := range out.Warnings {
		if _, err := fmt.Fprintf(w, "warning: %s: %s\n", warn.TaskID, warn.Message); err != nil {
			return err
		}
	}
	return nil
}

func entry(ev layout.EventLayout) string {
	s := fmt.Sprintf("%s-%s  %s", clock(ev.StartMinute), clock(ev.EndMinute), ev.Task.Title)
	if ev.TotalColumns > 1 {
		s += fmt.Sprintf(" [%d/%d]", ev.Column+1, ev.TotalColumns)
	}
	return s
}

func clock(minute int) string {
	return fmt.Sprintf("%02d:%02d", minute/60, minute%60)
}
