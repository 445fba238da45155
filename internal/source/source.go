// Package source supplies tasks to the calendar. The layout engine only ever
// sees the read side: the tasks overlapping a window.
package source

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
)

// Source lists the tasks overlapping [start, end).
type Source interface {
	ListTasks(ctx context.Context, start, end time.Time) ([]model.CalendarTask, error)
}

// Overlaps reports whether a task belongs to [start, end). A zero-length task
// belongs to the range containing its instant.
func Overlaps(t model.CalendarTask, start, end time.Time) bool {
	tEnd := t.End
	if tEnd.Before(t.Start) {
		tEnd = t.Start
	}
	if t.Start.Equal(tEnd) {
		return !t.Start.Before(start) && t.Start.Before(end)
	}
	return t.Start.Before(end) && tEnd.After(start)
}

// File reads tasks from a YAML document:
//
//	tasks:
//	  - id: t1
//	    title: Planning
//	    start: 2025-10-16T09:00:00+09:00
//	    end: 2025-10-16T10:00:00+09:00
type File struct {
	Path string
}

type fileDoc struct {
	Tasks []model.CalendarTask `yaml:"tasks"`
}

func (f File) ListTasks(_ context.Context, start, end time.Time) ([]model.CalendarTask, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", f.Path, err)
	}
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("source: parse %s: %w", f.Path, err)
	}
	out := make([]model.CalendarTask, 0, len(doc.Tasks))
	for _, t := range doc.Tasks {
		if Overlaps(t, start, end) {
			out = append(out, t)
		}
	}
	return out, nil
}

// Multi concatenates several sources in order. A failing member is logged
// and skipped; an error is returned only when every member failed.
type Multi []Source

func (m Multi) ListTasks(ctx context.Context, start, end time.Time) ([]model.CalendarTask, error) {
	var (
		out  []model.CalendarTask
		errs []error
	)
	for i, src := range m {
		tasks, err := src.ListTasks(ctx, start, end)
		if err != nil {
			appLog.Error("source failed; skipping", err, "index", i)
			errs = append(errs, err)
			continue
		}
		out = append(out, tasks...)
	}
	if len(m) > 0 && len(errs) == len(m) {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Cached keeps the last result per window for TTL. It only saves work; a
// stale or missing entry is simply fetched again.
type Cached struct {
	Source Source
	TTL    time.Duration
	// Now is injectable for tests; nil means time.Now.
	Now func() time.Time

	mu      sync.RWMutex
	entries map[cacheKey]cacheEntry
}

type cacheKey struct {
	start, end int64
}

type cacheEntry struct {
	tasks     []model.CalendarTask
	updatedAt time.Time
}

func NewCached(src Source, ttl time.Duration) *Cached {
	return &Cached{Source: src, TTL: ttl}
}

func (c *Cached) now() time.Time {
	if c.Now == nil {
		return time.Now()
	}
	return c.Now()
}

func (c *Cached) ListTasks(ctx context.Context, start, end time.Time) ([]model.CalendarTask, error) {
	key := cacheKey{start: start.UnixNano(), end: end.UnixNano()}

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if ok && c.now().Sub(e.updatedAt) < c.TTL {
		return e.tasks, nil
	}

	tasks, err := c.Source.ListTasks(ctx, start, end)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.entries == nil {
		c.entries = make(map[cacheKey]cacheEntry)
	}
	c.entries[key] = cacheEntry{tasks: tasks, updatedAt: c.now()}
	c.mu.Unlock()
	return tasks, nil
}

// Invalidate drops every cached window.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.entries = nil
	c.mu.Unlock()
}
