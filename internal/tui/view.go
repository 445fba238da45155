package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"weekcal/internal/layout"
	"weekcal/internal/week"
)

const gutter = 6

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	headStyle   = lipgloss.NewStyle().Bold(true).Underline(true)
	todayStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#c62828"))
	hourStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	nowStyle    = lipgloss.NewStyle().Reverse(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#c62828"))
	helpStyle   = lipgloss.NewStyle().Faint(true)
	allDayStyle = lipgloss.NewStyle().Italic(true)
)

func (m Model) visibleRows() int {
	rows := m.height - 6
	if rows < 1 {
		rows = 1
	}
	if rows > week.SlotsPerDay {
		rows = week.SlotsPerDay
	}
	return rows
}

func (m Model) columnWidth() int {
	cw := (m.width-gutter)/week.DaysPerWeek - 1
	if cw < 6 {
		cw = 6
	}
	return cw
}

func (m Model) View() string {
	cw := m.columnWidth()
	lines := make([]string, 0, m.visibleRows()+6)

	lines = append(lines, titleStyle.Render(fmt.Sprintf("Week of %s  (%s)", m.out.Days[0].DateLabel, m.out.TimeZone)))
	lines = append(lines, m.filter.View())

	head := strings.Repeat(" ", gutter)
	allDay := strings.Repeat(" ", gutter)
	for i, col := range m.out.Days {
		label := fit(col.Label+" "+col.DateLabel, cw)
		if col.IsToday {
			label = todayStyle.Render(label)
		} else {
			label = headStyle.Render(label)
		}
		head += label + " "
		allDay += allDayStyle.Render(fit(strings.Join(m.allDayTitles(i), ","), cw)) + " "
	}
	lines = append(lines, head, allDay)

	for r := m.offset; r < m.offset+m.visibleRows() && r < week.SlotsPerDay; r++ {
		slot := week.Slots()[r]
		row := hourStyle.Render(fit(slot.Label, gutter-1)) + " "
		for d := range m.out.Days {
			row += m.cell(d, r, cw) + " "
		}
		lines = append(lines, row)
	}

	if m.err != nil {
		lines = append(lines, errStyle.Render("error: "+m.err.Error()))
	} else {
		lines = append(lines, helpStyle.Render("←/→ week  home today  ↑/↓ scroll  / filter  q quit"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) allDayTitles(day int) []string {
	var out []string
	for _, item := range m.out.AllDay {
		if item.Day == day {
			out = append(out, item.Task.Title)
		}
	}
	return out
}

// cell renders one half-hour row of one day: the title of an event starting
// in the row, a bar for one still running, and the now line.
func (m Model) cell(day, row, width int) string {
	from := row * week.SlotMinutes
	to := from + week.SlotMinutes

	text := ""
	color := ""
	for _, ev := range m.out.Timed[day] {
		if !inRow(ev, from, to) {
			continue
		}
		if ev.StartMinute >= from {
			text = ev.Task.Title
			color = m.out.Colors[ev.Task.AssigneeID]
			break
		}
		if text == "" {
			text = "│"
			color = m.out.Colors[ev.Task.AssigneeID]
		}
	}

	out := fit(text, width)
	if color != "" {
		out = lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(out)
	}
	if now := m.out.Now; now != nil && now.Day == day {
		minute := now.Top / 100 * float64(week.SlotsPerDay*week.SlotMinutes)
		if minute >= float64(from) && minute < float64(to) {
			out = nowStyle.Render(out)
		}
	}
	return out
}

func inRow(ev layout.EventLayout, from, to int) bool {
	if ev.StartMinute == ev.EndMinute {
		return ev.StartMinute >= from && ev.StartMinute < to
	}
	return ev.StartMinute < to && ev.EndMinute > from
}

// fit pads or truncates s to exactly n cells.
func fit(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		if n <= 1 {
			return string(r[:n])
		}
		return string(r[:n-1]) + "…"
	}
	return s + strings.Repeat(" ", n-len(r))
}
