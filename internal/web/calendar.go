package web

import (
	_ "embed"
	"fmt"
	"html/template"
	"net/http"

	"weekcal/internal/civil"
	"weekcal/internal/layout"
	appLog "weekcal/internal/log"
	"weekcal/internal/week"
)

//go:embed templates/calendar.html
var calendarHTML string

var calendarTmpl = template.Must(template.New("calendar").Parse(calendarHTML))

type hourLine struct {
	Label string
	Style template.CSS
}

type eventView struct {
	Title string
	Time  string
	Style template.CSS
}

type allDayView struct {
	Title string
	Style template.CSS
}

type dayView struct {
	Column  week.DayColumn
	AllDay  []allDayView
	Events  []eventView
	NowLine template.CSS
}

type calendarPage struct {
	TimeZone string
	Title    string
	Prev     civil.Date
	Next     civil.Date
	Hours    []hourLine
	Days     []dayView
	Warnings []layout.Warning
}

// handleCalendar renders the week as plain HTML: every rectangle is placed
// with the engine's percentages, no script involved. The root carries
// data-ready="true" once written so the capture knows when to shoot.
func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.compute(r.Context(), q.Get("date"), q["assignee"])
	if err != nil {
		s.writeComputeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := calendarTmpl.Execute(w, buildPage(out)); err != nil {
		appLog.Error("calendar render failed", err)
	}
}

func buildPage(out layout.Output) calendarPage {
	page := calendarPage{
		TimeZone: out.TimeZone,
		Title:    fmt.Sprintf("Week of %s", out.Days[0].DateLabel),
		Prev:     out.WeekStart.AddDays(-week.DaysPerWeek),
		Next:     out.WeekStart.AddDays(week.DaysPerWeek),
		Warnings: out.Warnings,
	}

	for h := 0; h < 24; h++ {
		page.Hours = append(page.Hours, hourLine{
			Label: fmt.Sprintf("%02d:00", h),
			Style: template.CSS(fmt.Sprintf("top:%.4f%%", float64(h*60)/civil.MinutesPerDay*100)),
		})
	}

	for i, col := range out.Days {
		dv := dayView{Column: col}
		for _, item := range out.AllDay {
			if item.Day != i {
				continue
			}
			dv.AllDay = append(dv.AllDay, allDayView{
				Title: item.Task.Title,
				Style: template.CSS("background:" + out.Colors[item.Task.AssigneeID]),
			})
		}
		for _, ev := range out.Timed[i] {
			dv.Events = append(dv.Events, eventView{
				Title: ev.Task.Title,
				Time:  fmt.Sprintf("%s-%s", minuteLabel(ev.StartMinute), minuteLabel(ev.EndMinute)),
				Style: template.CSS(fmt.Sprintf("top:%.4f%%;height:%.4f%%;left:%.4f%%;width:%.4f%%;background:%s",
					ev.Top, ev.Height, ev.Left, ev.Width, out.Colors[ev.Task.AssigneeID])),
			})
		}
		if out.Now != nil && out.Now.Day == i {
			dv.NowLine = template.CSS(fmt.Sprintf("top:%.4f%%", out.Now.Top))
		}
		page.Days = append(page.Days, dv)
	}
	return page
}

func minuteLabel(m int) string {
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}
