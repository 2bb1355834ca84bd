// Package plan contains the planning core: event selection and the
// cycle orchestrator that turns "what's next on the calendar" into a
// chosen route with arrival times.
package plan

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	appLog "leavenow/internal/log"
	"leavenow/internal/model"
	"leavenow/internal/route"
	"leavenow/internal/telemetry"
)

// Sentinel destination names surfaced to the display layer.
const (
	DestNowhere  = "No where to go..."
	DestAPIError = "Maps API error"
)

// pessimismFloorSeconds is the minimum safety buffer (10 minutes).
const pessimismFloorSeconds = 600

// EventSource yields today's calendar events.
type EventSource interface {
	EventsForToday(ctx context.Context, now time.Time) ([]model.Event, error)
}

// PlacesSource yields the known-places configuration.
type PlacesSource interface {
	KnownPlaces(ctx context.Context) ([]model.KnownPlace, error)
}

// PositionSource yields the current device position.
type PositionSource interface {
	Current(ctx context.Context) (model.Position, error)
}

// RouteSource yields candidate routes between a position and a
// destination token.
type RouteSource interface {
	Routes(ctx context.Context, origin model.Position, destToken string) []model.Route
}

// Planner orchestrates one planning cycle.
type Planner struct {
	events      EventSource
	places      PlacesSource
	position    PositionSource
	routes      RouteSource
	pessimistic bool
	tel         telemetry.Telemetry
}

// NewPlanner wires a Planner. tel may be nil.
func NewPlanner(events EventSource, places PlacesSource, position PositionSource, routes RouteSource, pessimistic bool, tel telemetry.Telemetry) *Planner {
	if tel == nil {
		tel = telemetry.Nop()
	}
	return &Planner{
		events:      events,
		places:      places,
		position:    position,
		routes:      routes,
		pessimistic: pessimistic,
		tel:         tel,
	}
}

// Plan runs one cycle and returns its RouteInfo.
//
// The known-places load runs concurrently with event selection (and,
// when an event is found, with the position fix and directions query);
// it is only joined right before route choice, which is the first
// consumer. Provider failures come back as a normal RouteInfo variant,
// never as an error. The only error Plan returns is an unusable
// position, which must abort the cycle before the paid directions
// call.
func (p *Planner) Plan(ctx context.Context, now time.Time) (model.RouteInfo, error) {
	g, gctx := errgroup.WithContext(ctx)

	var knownPlaces []model.KnownPlace
	g.Go(func() error {
		var err error
		knownPlaces, err = p.places.KnownPlaces(gctx)
		return err
	})

	events, err := p.events.EventsForToday(ctx, now)
	if err != nil {
		appLog.Error("calendar read failed, treating as empty day", err)
	}
	selected := SelectNextEvent(events, now)

	if selected.None {
		// Primary cost-control path: no position fix, no paid call.
		p.tel.Event("plan short-circuit", "reason", "no eligible event")
		_ = g.Wait()
		return model.RouteInfo{RouteName: "none", DestinationName: DestNowhere}, nil
	}

	pos, err := p.position.Current(ctx)
	if err != nil {
		_ = g.Wait()
		return model.RouteInfo{}, err
	}

	candidates := p.routes.Routes(ctx, pos, selected.Location)
	if len(candidates) == 0 || candidates[0].IsError() {
		p.tel.Event("plan short-circuit", "reason", "provider error")
		_ = g.Wait()
		return model.RouteInfo{RouteName: "none", DestinationName: DestAPIError}, nil
	}

	if err := g.Wait(); err != nil {
		appLog.Error("known places load failed, using empty list", err)
		knownPlaces = nil
	}

	chosen := route.Choose(candidates, knownPlaces, selected.Location)

	travelTime := chosen.TravelTimeSeconds
	if p.pessimistic {
		travelTime += pessimismBuffer(chosen.TravelTimeSeconds)
	}

	target := selected.Start
	estimate := now.Add(time.Duration(travelTime) * time.Second)

	p.tel.Event("plan complete",
		"route", chosen.Name,
		"travel_time_s", travelTime,
		"destination", selected.Title,
	)

	return model.RouteInfo{
		RouteName:        chosen.Name,
		RouteTimeSeconds: travelTime,
		DestinationName:  selected.Title,
		ArrivalTarget:    &target,
		ArrivalEstimate:  &estimate,
	}, nil
}

// pessimismBuffer is 20% of the raw estimate, rounded up, but at least
// ten minutes.
func pessimismBuffer(travelTimeSeconds int) int {
	buf := (travelTimeSeconds + 4) / 5
	if buf < pessimismFloorSeconds {
		buf = pessimismFloorSeconds
	}
	return buf
}
