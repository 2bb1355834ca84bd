// Package remind derives the "get ready" and "leave now" reminders
// from a planning result and reconciles them against the external
// notification store.
package remind

import (
	"context"
	"time"

	appLog "leavenow/internal/log"
	"leavenow/internal/model"
)

const (
	// TitleLeaveNow / TitleGetReady identify the two reminders in the
	// store; upserts are keyed by title.
	TitleLeaveNow = "Leave Now"
	TitleGetReady = "Get Ready To Leave"

	// DefaultSound is applied to newly created reminders.
	DefaultSound = "default"

	// getReadyLead is how far before the leave-now moment the
	// get-ready reminder fires, and also how long past a missed
	// leave-now moment we keep bothering with it.
	getReadyLead = 10 * time.Minute

	// staleThreshold: a trigger this close (or in the past) has
	// effectively already happened; scheduling it would just fire a
	// notification for a moment that is gone.
	staleThreshold = 30 * time.Second
)

// Store is the external notification store. Upserts are keyed by
// title: an existing pending reminder with the same title has its body
// and trigger updated in place.
type Store interface {
	ListPending(ctx context.Context) ([]model.Reminder, error)
	Upsert(ctx context.Context, r model.Reminder) error
}

// Reconcile derives the reminder pair from info and writes it to the
// store. It only acts when the cycle produced a real arrival target.
// Store failures are logged and skipped; reminders are best-effort and
// must never fail the planning cycle.
func Reconcile(ctx context.Context, info model.RouteInfo, now time.Time, store Store) {
	if !info.Tracking() {
		return
	}

	leaveNow := info.ArrivalTarget.Add(-time.Duration(info.RouteTimeSeconds) * time.Second)

	upsert(ctx, store, model.Reminder{
		Title:   TitleLeaveNow,
		Body:    "Leave NOW to " + info.DestinationName,
		Trigger: leaveNow,
		Sound:   DefaultSound,
	}, now)

	// Skip the get-ready reminder once the leave-now moment is long
	// past; there is nothing left to get ready for.
	if leaveNow.After(now.Add(-getReadyLead)) {
		upsert(ctx, store, model.Reminder{
			Title:   TitleGetReady,
			Body:    "Get ready to leave to " + info.DestinationName,
			Trigger: leaveNow.Add(-getReadyLead),
			Sound:   DefaultSound,
		}, now)
	}
}

func upsert(ctx context.Context, store Store, r model.Reminder, now time.Time) {
	if r.Trigger.Sub(now) <= staleThreshold {
		appLog.Debug("reminder trigger stale, skipping", "title", r.Title, "trigger", r.Trigger)
		return
	}
	if err := store.Upsert(ctx, r); err != nil {
		appLog.Error("reminder upsert failed", err, "title", r.Title)
	}
}
