// Package route queries the directions provider for candidate routes
// and picks one. Every provider query is a paid API call, so the
// client is deliberately single-shot: one GET per planning cycle, a
// hard timeout, and a circuit breaker so a misbehaving provider cannot
// burn money on retries.
package route

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/sony/gobreaker/v2"

	appLog "leavenow/internal/log"
	"leavenow/internal/model"
	"leavenow/internal/telemetry"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/directions/json"

// directionsResponse is the subset of the provider payload we consume.
type directionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		Summary string `json:"summary"`
		Legs    []struct {
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
			DurationInTraffic struct {
				Value int `json:"value"`
			} `json:"duration_in_traffic"`
		} `json:"legs"`
	} `json:"routes"`
}

// Service queries the directions provider for all viable routes
// between two points.
type Service struct {
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[*http.Response]
	baseURL string
	apiKey  string
	tel     telemetry.Telemetry
}

// NewService builds a directions Service. tel may be nil.
func NewService(apiKey string, tel telemetry.Telemetry) *Service {
	if tel == nil {
		tel = telemetry.Nop()
	}
	cb := gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
		Name:        "directions",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
	})
	return &Service{
		client:  &http.Client{Timeout: 10 * time.Second},
		breaker: cb,
		baseURL: defaultBaseURL,
		apiKey:  apiKey,
		tel:     tel,
	}
}

// WithBaseURL overrides the provider endpoint. Used by tests.
func (s *Service) WithBaseURL(u string) *Service {
	s.baseURL = u
	return s
}

// Routes issues one directions query with alternatives enabled,
// departure "now" and the pessimistic traffic model, and returns the
// candidates sorted by travel time descending (worst case first).
//
// Failures never surface as errors: a non-success provider status, a
// malformed payload, a timeout or an open breaker all come back as a
// single-element list carrying the error variant. The caller checks
// IsError on the first element.
func (s *Service) Routes(ctx context.Context, origin model.Position, destToken string) []model.Route {
	q := url.Values{}
	q.Set("origin", fmt.Sprintf("%f,%f", origin.Lat, origin.Lon))
	q.Set("destination", destToken)
	q.Set("alternatives", "true")
	q.Set("departure_time", "now")
	q.Set("traffic_model", "pessimistic")
	q.Set("key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return []model.Route{model.ErrorRoute("REQUEST_ERROR", err.Error())}
	}

	s.tel.Event("directions query", "destination", destToken)

	resp, err := s.breaker.Execute(func() (*http.Response, error) {
		return s.client.Do(req)
	})
	if err != nil {
		appLog.Error("directions request failed", err, "destination", destToken)
		return []model.Route{model.ErrorRoute("TRANSPORT_ERROR", err.Error())}
	}
	defer resp.Body.Close()

	var payload directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		appLog.Error("directions response decode failed", err)
		return []model.Route{model.ErrorRoute("DECODE_ERROR", err.Error())}
	}

	// A missing status field is treated the same as a failure status.
	if payload.Status != "OK" {
		appLog.Error("directions provider status not OK", fmt.Errorf("status %q", payload.Status),
			"message", payload.ErrorMessage)
		return []model.Route{model.ErrorRoute(payload.Status, payload.ErrorMessage)}
	}

	candidates := make([]model.Route, 0, len(payload.Routes))
	for _, r := range payload.Routes {
		if len(r.Legs) == 0 {
			continue
		}
		secs := r.Legs[0].DurationInTraffic.Value
		if secs == 0 {
			secs = r.Legs[0].Duration.Value
		}
		candidates = append(candidates, model.Route{Name: r.Summary, TravelTimeSeconds: secs})
	}

	if len(candidates) == 0 {
		return []model.Route{model.ErrorRoute("ZERO_RESULTS", "no routes in response")}
	}

	// Longest first: with no preference match the caller defaults to
	// candidates[0], and assuming the worst case beats being late.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].TravelTimeSeconds > candidates[j].TravelTimeSeconds
	})

	return candidates
}
