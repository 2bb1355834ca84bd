package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "leavenow/internal/log"
	"leavenow/internal/model"
)

const defaultMaxOccurrencesPerEvent = 1000

// ExpandConfig controls how recurrence expansion is performed.
type ExpandConfig struct {
	// DisplayLocation is the timezone occurrences are converted to.
	// If nil, time.Local is used.
	DisplayLocation *time.Location

	// RangeStart / RangeEnd define the inclusive time window.
	RangeStart time.Time
	RangeEnd   time.Time

	// MaxOccurrencesPerEvent caps runaway expansions. Zero means
	// defaultMaxOccurrencesPerEvent.
	MaxOccurrencesPerEvent int
}

// ExpandOccurrences expands parsed events into concrete occurrences
// within the window, handling plain events, RRULE recurrence and
// EXDATE exceptions. All-day events are dropped: they carry no
// departure moment the planner could act on.
func ExpandOccurrences(events []ParsedEvent, cfg ExpandConfig) ([]model.Event, error) {
	if cfg.RangeEnd.Before(cfg.RangeStart) {
		return nil, errors.New("expand: RangeEnd is before RangeStart")
	}
	if cfg.DisplayLocation == nil {
		cfg.DisplayLocation = time.Local
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	out := make([]model.Event, 0)

	for _, ev := range events {
		if ev.AllDay {
			continue
		}

		if ev.RawRRule == "" {
			start := ev.Start.In(cfg.DisplayLocation)
			if inRange(start, cfg.RangeStart, cfg.RangeEnd) {
				out = append(out, model.Event{
					Title:    ev.Summary,
					Location: ev.Location,
					Start:    start,
				})
			}
			continue
		}

		starts, err := expandRRule(ev, cfg)
		if err != nil {
			appLog.Error("rrule expansion failed, keeping base start only", err, "uid", ev.UID)
			start := ev.Start.In(cfg.DisplayLocation)
			if inRange(start, cfg.RangeStart, cfg.RangeEnd) {
				out = append(out, model.Event{Title: ev.Summary, Location: ev.Location, Start: start})
			}
			continue
		}

		for _, start := range starts {
			out = append(out, model.Event{
				Title:    ev.Summary,
				Location: ev.Location,
				Start:    start.In(cfg.DisplayLocation),
			})
		}
	}

	return out, nil
}

func expandRRule(ev ParsedEvent, cfg ExpandConfig) ([]time.Time, error) {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		return nil, err
	}

	var set rrule.Set
	set.RRule(r)
	set.DTStart(ev.Start)
	for _, ex := range ev.ExDates {
		set.ExDate(ex)
	}

	starts := set.Between(cfg.RangeStart, cfg.RangeEnd, true)
	if len(starts) > cfg.MaxOccurrencesPerEvent {
		appLog.Info("rrule expansion truncated", "uid", ev.UID, "count", len(starts))
		starts = starts[:cfg.MaxOccurrencesPerEvent]
	}
	return starts, nil
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && !t.After(end)
}
