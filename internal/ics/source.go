package ics

import (
	"context"
	"time"

	"leavenow/internal/model"
)

// CalendarSource adapts the fetch/parse/expand pipeline into the
// planner's view of a calendar: a flat list of today's events.
type CalendarSource struct {
	fetcher *Fetcher
	sources []Source
	loc     *time.Location
}

// NewCalendarSource builds a source over the given subscriptions.
// loc is the timezone used for day boundaries and event times.
func NewCalendarSource(fetcher *Fetcher, sources []Source, loc *time.Location) *CalendarSource {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarSource{fetcher: fetcher, sources: sources, loc: loc}
}

// EventsForToday returns all concrete occurrences between now and the
// end of the current calendar day, across all subscribed sources.
// Sources that fail to fetch or parse are skipped; the planner treats
// a thinner list the same as a quiet day.
func (c *CalendarSource) EventsForToday(ctx context.Context, now time.Time) ([]model.Event, error) {
	now = now.In(c.loc)
	cfg := ExpandConfig{
		DisplayLocation: c.loc,
		RangeStart:      now,
		RangeEnd:        EndOfDay(now),
	}

	results, _ := c.fetcher.FetchAll(ctx, c.sources)

	events := make([]model.Event, 0)
	for _, res := range results {
		parsed, err := ParseICS(res.Source, res.Body)
		if err != nil {
			continue
		}
		occs, err := ExpandOccurrences(parsed, cfg)
		if err != nil {
			continue
		}
		events = append(events, occs...)
	}

	return events, nil
}

// EndOfDay returns 23:59:59 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
