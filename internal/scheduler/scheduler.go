// Package scheduler keeps the current week's layout fresh: a refresh job
// re-reads the task sources, a tick job moves the now marker.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"weekcal/internal/layout"
	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/source"
	"weekcal/internal/week"
)

// invalidator is implemented by caching sources.
type invalidator interface {
	Invalidate()
}

// Service owns the current-week snapshot.
type Service struct {
	Engine *layout.Engine
	Source source.Source
	Users  []model.User
	// AfterRefresh runs after every successful refresh, e.g. a capture.
	AfterRefresh func(ctx context.Context)

	cron *cron.Cron

	mu       sync.RWMutex
	tasks    []model.CalendarTask
	snapshot *layout.Output
}

func New(engine *layout.Engine, src source.Source, users []model.User) *Service {
	return &Service{Engine: engine, Source: src, Users: users}
}

// Snapshot returns the last computed layout of the current week.
func (s *Service) Snapshot() (layout.Output, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return layout.Output{}, false
	}
	return *s.snapshot, true
}

// Refresh drops cached tasks, lists the current week again and recomputes
// the snapshot.
func (s *Service) Refresh(ctx context.Context) error {
	if inv, ok := s.Source.(invalidator); ok {
		inv.Invalidate()
	}

	now := s.Engine.Time()
	w := week.Compute(s.Engine.Clock, now, now)
	tasks, err := s.Source.ListTasks(ctx, w.Start, w.End)
	if err != nil {
		return fmt.Errorf("scheduler: list tasks: %w", err)
	}

	out := s.Engine.Compute(layout.Input{Tasks: tasks, Reference: now, Users: s.Users})

	s.mu.Lock()
	s.tasks = tasks
	s.snapshot = &out
	s.mu.Unlock()

	appLog.Info("snapshot refreshed", "week", out.WeekStart.String(), "tasks", len(tasks), "warnings", len(out.Warnings))
	for _, warn := range out.Warnings {
		appLog.Warn("task data warning", "task", warn.TaskID, "message", warn.Message)
	}

	if s.AfterRefresh != nil {
		s.AfterRefresh(ctx)
	}
	return nil
}

// Tick recomputes the snapshot from the tasks already held so the now
// marker and today flag follow the clock. Crossing into a new week needs
// new tasks, so that case falls through to Refresh.
func (s *Service) Tick(ctx context.Context) error {
	now := s.Engine.Time()

	s.mu.RLock()
	snap := s.snapshot
	tasks := s.tasks
	s.mu.RUnlock()

	if snap == nil || snap.Window.Key() != week.Compute(s.Engine.Clock, now, now).Key() {
		return s.Refresh(ctx)
	}

	out := s.Engine.Compute(layout.Input{Tasks: tasks, Reference: now, Users: s.Users})
	s.mu.Lock()
	s.snapshot = &out
	s.mu.Unlock()
	return nil
}

// Start registers both jobs in the engine's zone and starts the cron
// runner. An initial refresh runs synchronously first.
func (s *Service) Start(ctx context.Context, refreshSched, tickSched string) error {
	if err := s.Refresh(ctx); err != nil {
		appLog.Error("initial refresh failed", err)
	}

	c := cron.New(cron.WithLocation(s.Engine.Clock.Location()))
	if _, err := c.AddFunc(refreshSched, func() {
		if err := s.Refresh(ctx); err != nil {
			appLog.Error("scheduled refresh failed", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduler: refresh schedule %q: %w", refreshSched, err)
	}
	if _, err := c.AddFunc(tickSched, func() {
		if err := s.Tick(ctx); err != nil {
			appLog.Error("now tick failed", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduler: now_tick schedule %q: %w", tickSched, err)
	}

	s.cron = c
	c.Start()
	appLog.Info("scheduler started", "refresh", refreshSched, "now_tick", tickSched, "timezone", s.Engine.Clock.Location().String())
	return nil
}

// Stop halts the runner and waits up to timeout for running jobs.
func (s *Service) Stop(timeout time.Duration) {
	if s.cron == nil {
		return
	}
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-time.After(timeout):
		appLog.Warn("scheduler stop timed out", "timeout", timeout.String())
	}
}
