package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"weekcal/internal/civil"
	"weekcal/internal/layout"
	"weekcal/internal/model"
	"weekcal/internal/source"
)

type fakeSource struct {
	calls int
	err   error
}

func (f *fakeSource) ListTasks(_ context.Context, start, _ time.Time) ([]model.CalendarTask, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []model.CalendarTask{{
		ID:    "standup",
		Title: "Standup",
		Start: start.Add(33 * time.Hour),
		End:   start.Add(33*time.Hour + 30*time.Minute),
	}}, nil
}

func newService(t *testing.T, src source.Source, now *time.Time) *Service {
	t.Helper()
	clock, err := civil.LoadClock("Asia/Seoul")
	if err != nil {
		t.Fatalf("load clock: %v", err)
	}
	engine := layout.NewEngine(clock)
	engine.Now = func() time.Time { return *now }
	return New(engine, src, nil)
}

func TestRefreshBuildsSnapshot(t *testing.T) {
	now := time.Date(2025, 10, 16, 1, 0, 0, 0, time.UTC)
	src := &fakeSource{}
	s := newService(t, src, &now)

	if _, ok := s.Snapshot(); ok {
		t.Fatalf("expected no snapshot before refresh")
	}
	refreshed := 0
	s.AfterRefresh = func(context.Context) { refreshed++ }

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	snap, ok := s.Snapshot()
	if !ok {
		t.Fatalf("expected snapshot")
	}
	if snap.WeekStart.String() != "2025-10-13" {
		t.Fatalf("unexpected week %s", snap.WeekStart)
	}
	if len(snap.Timed[1]) != 1 {
		t.Fatalf("expected one timed task on Tuesday, got %+v", snap.Timed)
	}
	if snap.Now == nil || snap.Now.Day != 3 {
		t.Fatalf("expected now marker on Thursday, got %+v", snap.Now)
	}
	if refreshed != 1 {
		t.Fatalf("expected AfterRefresh once, got %d", refreshed)
	}
}

func TestTickReusesTasksWithinWeek(t *testing.T) {
	now := time.Date(2025, 10, 16, 1, 0, 0, 0, time.UTC)
	src := &fakeSource{}
	s := newService(t, src, &now)

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("first tick should refresh, got %d calls", src.calls)
	}

	now = now.Add(3 * time.Hour)
	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("tick: %v", err)
	}
	if src.calls != 1 {
		t.Fatalf("tick within the week should not list tasks, got %d calls", src.calls)
	}
	snap, _ := s.Snapshot()
	if snap.Now == nil || snap.Now.Top <= 0 {
		t.Fatalf("marker not recomputed: %+v", snap.Now)
	}

	now = now.AddDate(0, 0, 7)
	_ = s.Tick(context.Background())
	if src.calls != 2 {
		t.Fatalf("crossing a week should refresh, got %d calls", src.calls)
	}
	snap, _ = s.Snapshot()
	if snap.WeekStart.String() != "2025-10-20" {
		t.Fatalf("unexpected week after rollover %s", snap.WeekStart)
	}
}

func TestRefreshInvalidatesCache(t *testing.T) {
	now := time.Date(2025, 10, 16, 1, 0, 0, 0, time.UTC)
	inner := &fakeSource{}
	cached := source.NewCached(inner, time.Hour)
	s := newService(t, cached, &now)

	for i := 0; i < 2; i++ {
		if err := s.Refresh(context.Background()); err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}
	if inner.calls != 2 {
		t.Fatalf("each refresh should bypass the cache, got %d calls", inner.calls)
	}
}

func TestRefreshError(t *testing.T) {
	now := time.Date(2025, 10, 16, 1, 0, 0, 0, time.UTC)
	s := newService(t, &fakeSource{err: errors.New("offline")}, &now)
	if err := s.Refresh(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if _, ok := s.Snapshot(); ok {
		t.Fatalf("failed refresh must not publish a snapshot")
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	now := time.Date(2025, 10, 16, 1, 0, 0, 0, time.UTC)
	s := newService(t, &fakeSource{}, &now)
	if err := s.Start(context.Background(), "not a schedule", "@every 1m"); err == nil {
		t.Fatalf("expected error for bad refresh schedule")
	}

	s = newService(t, &fakeSource{}, &now)
	if err := s.Start(context.Background(), "*/15 * * * *", "@every 1m"); err != nil {
		t.Fatalf("start: %v", err)
	}
	s.Stop(time.Second)
}
