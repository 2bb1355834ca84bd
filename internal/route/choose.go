package route

import (
	"leavenow/internal/model"
)

// Choose picks one route from the candidates.
//
// If a known place matches the destination token exactly, the first
// candidate whose name appears in that place's preferred routes wins,
// regardless of travel time. Otherwise the result is candidates[0],
// which thanks to the descending sort is the longest estimate.
// Fully deterministic for identical inputs.
func Choose(candidates []model.Route, knownPlaces []model.KnownPlace, destToken string) model.Route {
	if len(candidates) == 0 {
		return model.ErrorRoute("NO_CANDIDATES", "empty candidate list")
	}

	for _, place := range knownPlaces {
		if !place.Matches(destToken) {
			continue
		}
		for _, cand := range candidates {
			for _, preferred := range place.PreferredRoutes {
				if cand.Name == preferred {
					return cand
				}
			}
		}
		break
	}

	return candidates[0]
}
