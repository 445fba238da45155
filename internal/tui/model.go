// Package tui is the interactive terminal week view.
package tui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"weekcal/internal/layout"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/nav"
	"weekcal/internal/source"
	"weekcal/internal/week"
)

// TickInterval moves the now line; minute precision is all the grid shows.
const TickInterval = time.Minute

type tasksMsg struct {
	key   string
	tasks []model.CalendarTask
	err   error
}

type tickMsg time.Time

// Model is the bubbletea model for the week grid.
type Model struct {
	ctx    context.Context
	engine *layout.Engine
	src    source.Source
	users  []model.User

	ctrl   *nav.Controller
	filter textinput.Model

	tasks []model.CalendarTask
	out   layout.Output
	err   error

	// offset is the first visible half-hour row.
	offset int
	width  int
	height int
}

func New(ctx context.Context, engine *layout.Engine, src source.Source, users []model.User) Model {
	ti := textinput.New()
	ti.Prompt = "assignee: "
	ti.Placeholder = "ids, comma separated"
	ti.CharLimit = 128

	m := Model{
		ctx:    ctx,
		engine: engine,
		src:    src,
		users:  users,
		ctrl:   nav.New(engine.Clock, engine.Time),
		filter: ti,
		width:  100,
		height: 30,
	}
	m.recompute()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(TickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// load lists the tasks of the current window off the UI loop.
func (m Model) load() tea.Cmd {
	w := m.ctrl.Window()
	ctx, src := m.ctx, m.src
	return func() tea.Msg {
		tasks, err := src.ListTasks(ctx, w.Start, w.End)
		return tasksMsg{key: w.Key(), tasks: tasks, err: err}
	}
}

func (m Model) focus() nav.Focus {
	if m.filter.Focused() {
		return nav.FocusTextInput
	}
	return nav.FocusCalendar
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil

	case tasksMsg:
		// A reply for a week we already left.
		if msg.key != m.ctrl.Window().Key() {
			return m, nil
		}
		m.err = msg.err
		if msg.err != nil {
			appLog.Error("tui: list tasks failed", msg.err, "week", msg.key)
			m.tasks = nil
		} else {
			m.tasks = msg.tasks
		}
		m.recompute()
		return m, nil

	case tickMsg:
		m.recompute()
		return m, tick()

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.filter.Focused() {
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	// While the filter has focus the bindings are off, so arrows move the
	// cursor in the field instead of the week.
	focus := m.focus()
	if m.ctrl.HandleKey(key, focus) {
		m.recompute()
		return m, m.load()
	}

	if focus == nav.FocusTextInput {
		switch key {
		case "enter", "esc":
			m.filter.Blur()
			m.recompute()
			return m, nil
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(msg)
		return m, cmd
	}

	switch key {
	case "q":
		return m, tea.Quit
	case "/":
		cmd := m.filter.Focus()
		return m, cmd
	case "up", "k":
		if m.offset > 0 {
			m.offset--
		}
	case "down", "j":
		if m.offset < week.SlotsPerDay-m.visibleRows() {
			m.offset++
		}
	}
	return m, nil
}

// selected parses the filter field into assignee ids.
func (m Model) selected() []string {
	var ids []string
	for _, part := range strings.Split(m.filter.Value(), ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func (m *Model) recompute() {
	m.out = m.engine.Compute(layout.Input{
		Tasks:             m.tasks,
		Reference:         m.ctrl.Reference(),
		SelectedAssignees: m.selected(),
		Users:             m.users,
	})
	if m.ctrl.ShouldScroll(m.out.Window, m.out.Now) {
		m.scrollToNow()
	}
}

// scrollToNow puts the now row about a third of the way down the grid.
func (m *Model) scrollToNow() {
	rows := m.visibleRows()
	minute := int(m.out.Now.Top / 100 * float64(week.SlotsPerDay*week.SlotMinutes))
	off := week.SlotIndex(minute) - rows/3
	if last := week.SlotsPerDay - rows; off > last {
		off = last
	}
	if off < 0 {
		off = 0
	}
	m.offset = off
}
