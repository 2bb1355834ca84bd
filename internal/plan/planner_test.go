package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leavenow/internal/location"
	"leavenow/internal/model"
)

// ============================================================
// Mocks
// ============================================================

type mockEvents struct {
	events []model.Event
	err    error
	calls  int
}

func (m *mockEvents) EventsForToday(_ context.Context, _ time.Time) ([]model.Event, error) {
	m.calls++
	return m.events, m.err
}

type mockPlaces struct {
	places []model.KnownPlace
	err    error
	calls  int
}

func (m *mockPlaces) KnownPlaces(_ context.Context) ([]model.KnownPlace, error) {
	m.calls++
	return m.places, m.err
}

type mockPosition struct {
	pos   model.Position
	err   error
	calls int
}

func (m *mockPosition) Current(_ context.Context) (model.Position, error) {
	m.calls++
	return m.pos, m.err
}

type mockRoutes struct {
	routes []model.Route
	calls  int
}

func (m *mockRoutes) Routes(_ context.Context, _ model.Position, _ string) []model.Route {
	m.calls++
	return m.routes
}

func eventAt(now time.Time, in time.Duration) model.Event {
	return model.Event{Title: "dentist", Location: "Main Street 5", Start: now.Add(in)}
}

// ============================================================
// Tests
// ============================================================

func TestPlan_NoEligibleEventShortCircuits(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	events := &mockEvents{}
	positions := &mockPosition{}
	routes := &mockRoutes{}
	p := NewPlanner(events, &mockPlaces{}, positions, routes, true, nil)

	info, err := p.Plan(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, "none", info.RouteName)
	assert.Equal(t, DestNowhere, info.DestinationName)
	assert.Zero(t, info.RouteTimeSeconds)
	assert.False(t, info.Tracking())

	// The cost-control path: neither the position fix nor the paid
	// directions call may happen.
	assert.Zero(t, positions.calls)
	assert.Zero(t, routes.calls)
}

func TestPlan_ProviderErrorBecomesResultVariant(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	events := &mockEvents{events: []model.Event{eventAt(now, time.Hour)}}
	routes := &mockRoutes{routes: []model.Route{model.ErrorRoute("OVER_QUERY_LIMIT", "quota exceeded")}}
	p := NewPlanner(events, &mockPlaces{}, &mockPosition{pos: model.Position{Lat: 52.5, Lon: 13.4}}, routes, true, nil)

	info, err := p.Plan(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, DestAPIError, info.DestinationName)
	assert.Zero(t, info.RouteTimeSeconds)
	assert.False(t, info.Tracking())
	assert.Equal(t, 1, routes.calls)
}

func TestPlan_PositionUnavailableIsFatalBeforePaidCall(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	events := &mockEvents{events: []model.Event{eventAt(now, time.Hour)}}
	routes := &mockRoutes{}
	p := NewPlanner(events, &mockPlaces{}, &mockPosition{err: location.ErrPositionUnavailable}, routes, true, nil)

	_, err := p.Plan(context.Background(), now)
	require.ErrorIs(t, err, location.ErrPositionUnavailable)
	assert.Zero(t, routes.calls)
}

func TestPlan_PessimismBuffer(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		travelTime  int
		pessimistic bool
		want        int
	}{
		{"small estimate gets the 10 minute floor", 1000, true, 1600},
		{"large estimate gets the 20 percent buffer", 5000, true, 6000},
		{"buffer disabled", 5000, false, 5000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &mockEvents{events: []model.Event{eventAt(now, time.Hour)}}
			routes := &mockRoutes{routes: []model.Route{{Name: "A100", TravelTimeSeconds: tt.travelTime}}}
			p := NewPlanner(events, &mockPlaces{}, &mockPosition{pos: model.Position{Lat: 52.5, Lon: 13.4}}, routes, tt.pessimistic, nil)

			info, err := p.Plan(context.Background(), now)
			require.NoError(t, err)

			assert.Equal(t, tt.want, info.RouteTimeSeconds)
			require.True(t, info.Tracking())
			assert.Equal(t, now.Add(time.Duration(tt.want)*time.Second), *info.ArrivalEstimate)
		})
	}
}

func TestPlan_HappyPath(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	eventStart := now.Add(time.Hour)

	events := &mockEvents{events: []model.Event{eventAt(now, time.Hour)}}
	places := &mockPlaces{}
	routes := &mockRoutes{routes: []model.Route{
		{Name: "slow", TravelTimeSeconds: 2400},
		{Name: "fast", TravelTimeSeconds: 1200},
	}}
	p := NewPlanner(events, places, &mockPosition{pos: model.Position{Lat: 52.5, Lon: 13.4}}, routes, false, nil)

	info, err := p.Plan(context.Background(), now)
	require.NoError(t, err)

	// No known place matched, so the worst case (candidates[0]) wins.
	assert.Equal(t, "slow", info.RouteName)
	assert.Equal(t, 2400, info.RouteTimeSeconds)
	assert.Equal(t, "dentist", info.DestinationName)
	require.True(t, info.Tracking())
	assert.Equal(t, eventStart, *info.ArrivalTarget)
	assert.Equal(t, 1, places.calls)
}

func TestPlan_KnownPlacePreferenceOverridesWorstCase(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	events := &mockEvents{events: []model.Event{eventAt(now, time.Hour)}}
	places := &mockPlaces{places: []model.KnownPlace{{
		MatchNames:      []string{"Main+Street+5"},
		PreferredRoutes: []string{"fast"},
	}}}
	routes := &mockRoutes{routes: []model.Route{
		{Name: "slow", TravelTimeSeconds: 2400},
		{Name: "fast", TravelTimeSeconds: 1200},
	}}
	p := NewPlanner(events, places, &mockPosition{pos: model.Position{Lat: 52.5, Lon: 13.4}}, routes, false, nil)

	info, err := p.Plan(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, "fast", info.RouteName)
	assert.Equal(t, 1200, info.RouteTimeSeconds)
}

func TestPlan_PlacesFailureDegradesToDefaultChoice(t *testing.T) {
	now := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	events := &mockEvents{events: []model.Event{eventAt(now, time.Hour)}}
	places := &mockPlaces{err: errors.New("disk on fire")}
	routes := &mockRoutes{routes: []model.Route{{Name: "only", TravelTimeSeconds: 900}}}
	p := NewPlanner(events, places, &mockPosition{pos: model.Position{Lat: 52.5, Lon: 13.4}}, routes, false, nil)

	info, err := p.Plan(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, "only", info.RouteName)
}
