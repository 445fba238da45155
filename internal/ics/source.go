package ics

import (
	"context"
	"errors"
	"fmt"
	"time"

	appLog "weekcal/internal/log"
	"weekcal/internal/model"
	"weekcal/internal/source"
)

// Source serves the tasks of a set of ICS feeds.
type Source struct {
	Fetcher  *Fetcher
	Feeds    []Feed
	Location *time.Location
}

var _ source.Source = (*Source)(nil)

func NewSource(fetcher *Fetcher, feeds []Feed, loc *time.Location) *Source {
	return &Source{Fetcher: fetcher, Feeds: feeds, Location: loc}
}

// ListTasks fetches every feed, parses it and expands occurrences in
// [start, end). Broken feeds are skipped; if no feed could be read the
// first error is returned.
func (s *Source) ListTasks(ctx context.Context, start, end time.Time) ([]model.CalendarTask, error) {
	if len(s.Feeds) == 0 {
		return []model.CalendarTask{}, nil
	}

	results, errs := s.Fetcher.FetchAll(ctx, s.Feeds)
	if len(results) == 0 && len(errs) > 0 {
		return nil, fmt.Errorf("ics: all feeds failed: %w", errors.Join(errs...))
	}

	events := make([]ParsedEvent, 0)
	for _, res := range results {
		parsed, err := ParseICS(res.Feed, res.Body)
		if err != nil {
			continue
		}
		events = append(events, parsed...)
	}

	expanded, err := ExpandTasks(events, ExpandConfig{
		DisplayLocation: s.Location,
		RangeStart:      start,
		RangeEnd:        end,
	})
	if err != nil {
		return nil, err
	}

	appLog.Debug("ics tasks expanded", "feeds", len(results), "events", len(events), "tasks", len(expanded.Tasks))
	return expanded.Tasks, nil
}
