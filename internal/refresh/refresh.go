// Package refresh decides when the next planning cycle may run. Each
// cycle that reaches the directions provider costs a paid API call, so
// refreshes stay sparse until the departure window actually nears.
package refresh

import (
	"time"

	"leavenow/internal/model"
)

// Floor is the minimum interval between recomputation cycles.
const Floor = 5 * time.Minute

// NextRefresh returns the earliest time the next cycle may start.
//
// With a tracked arrival, the candidate is the arrival target minus
// twice the travel time: while departure is still more than one full
// travel time away, the estimate cannot become actionable, so
// refreshing would only spend money. Without a tracked arrival there
// is no basis for delay beyond the floor.
func NextRefresh(info model.RouteInfo, now time.Time) time.Time {
	candidate := now
	if info.Tracking() {
		candidate = info.ArrivalTarget.Add(-2 * time.Duration(info.RouteTimeSeconds) * time.Second)
	}

	if floor := now.Add(Floor); candidate.Before(floor) {
		return floor
	}
	return candidate
}
