package model

import "time"

// Event is a calendar entry that may become the tracked destination.
// Events are read fresh on every planning cycle and never persisted.
type Event struct {
	Title    string
	Location string
	Start    time.Time
}

// SelectedEvent is the single event chosen for a planning cycle.
// When None is true, no eligible event was found; Start is then set to
// the end of the current calendar day so it can still bound searches,
// but it must never be surfaced as a real arrival target.
type SelectedEvent struct {
	Event
	None bool
}

// NoEvent returns the sentinel SelectedEvent for "nothing to track".
func NoEvent(endOfDay time.Time) SelectedEvent {
	return SelectedEvent{
		Event: Event{Title: "none", Start: endOfDay},
		None:  true,
	}
}

// Position is a geographic coordinate pair.
type Position struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Zero reports whether the position carries no usable coordinates.
func (p Position) Zero() bool {
	return p.Lat == 0 && p.Lon == 0
}

// Route is one candidate route returned by the directions service.
//
// A Route is either a success variant (Name + TravelTimeSeconds) or an
// error variant (Status + Message set, travel time meaningless). The
// two are distinguished via IsError so callers cannot accidentally
// read a travel time off a failed lookup.
type Route struct {
	Name              string
	TravelTimeSeconds int

	// Status / Message are only set on the error variant.
	Status  string
	Message string
}

// ErrorRoute builds the error variant for a failed directions lookup.
func ErrorRoute(status, message string) Route {
	return Route{Name: "error", Status: status, Message: message}
}

// IsError reports whether this route is the error variant.
func (r Route) IsError() bool {
	return r.Status != "" || r.Message != ""
}

// KnownPlace is a configured destination with a preferred-route
// override. MatchNames holds the destination tokens this place answers
// to; PreferredRoutes is ordered by preference.
type KnownPlace struct {
	MatchNames      []string `json:"location_names"`
	PreferredRoutes []string `json:"preferred_routes"`
}

// Matches reports whether the destination token names this place.
func (k KnownPlace) Matches(destToken string) bool {
	for _, n := range k.MatchNames {
		if n == destToken {
			return true
		}
	}
	return false
}

// RouteInfo is the planner's output for one cycle.
//
// ArrivalTarget and ArrivalEstimate are present together or absent
// together; absent means "nothing to track" or "upstream error", both
// of which carry RouteTimeSeconds == 0.
type RouteInfo struct {
	RouteName        string     `json:"route_name"`
	RouteTimeSeconds int        `json:"route_time_seconds"`
	DestinationName  string     `json:"destination_name"`
	ArrivalTarget    *time.Time `json:"arrival_target,omitempty"`
	ArrivalEstimate  *time.Time `json:"arrival_estimate,omitempty"`
}

// Tracking reports whether this cycle produced a real destination with
// arrival times attached.
func (ri RouteInfo) Tracking() bool {
	return ri.ArrivalTarget != nil && ri.ArrivalEstimate != nil
}

// Reminder is one pending notification in the external store.
type Reminder struct {
	Title   string    `json:"title"`
	Body    string    `json:"body"`
	Trigger time.Time `json:"trigger"`
	Sound   string    `json:"sound,omitempty"`
}
