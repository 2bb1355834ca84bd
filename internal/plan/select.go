package plan

import (
	"strings"
	"time"

	"leavenow/internal/ics"
	"leavenow/internal/model"
)

// eligibilityWindow is the look-ahead horizon. Events starting further
// out than this are ignored: there is nothing useful to compute hours
// ahead of departure, and every computation costs a paid API call.
const eligibilityWindow = 120 * time.Minute

// SelectNextEvent picks the event the planner should track: the
// earliest-starting event with a non-empty location that starts after
// now and within the eligibility window. If none qualifies it returns
// the sentinel, whose Start is pinned to the end of the current day.
//
// The selected event's location is normalized into a provider-
// compatible destination token.
func SelectNextEvent(events []model.Event, now time.Time) model.SelectedEvent {
	best := model.NoEvent(ics.EndOfDay(now))

	for _, ev := range events {
		if !ev.Start.After(now) {
			continue
		}
		if !ev.Start.Before(best.Start) {
			continue
		}
		if ev.Start.Sub(now) > eligibilityWindow {
			continue
		}
		if strings.TrimSpace(ev.Location) == "" {
			continue
		}
		best = model.SelectedEvent{Event: ev}
	}

	if !best.None {
		best.Location = NormalizeLocation(best.Location)
	}
	return best
}

// NormalizeLocation turns a free-form calendar location into a token
// the directions provider accepts: whitespace runs (including
// newlines) collapse to "+", commas are stripped, en-dashes become
// plain hyphens.
func NormalizeLocation(loc string) string {
	loc = strings.ReplaceAll(loc, ",", "")
	loc = strings.ReplaceAll(loc, "–", "-")
	return strings.Join(strings.Fields(loc), "+")
}
