// Package location resolves the device's current position. A live
// source is tried first at a coarse accuracy tier; on failure the last
// successfully cached fix is used. Sub-100m precision is worthless
// downstream (travel times round to whole minutes), so the coarse tier
// trades accuracy for latency on purpose.
package location

import (
	"context"
	"errors"
	"fmt"

	appLog "leavenow/internal/log"
	"leavenow/internal/model"
)

// DefaultAccuracyMeters is the accuracy hint passed to the live source.
const DefaultAccuracyMeters = 100

// ErrPositionUnavailable is returned when neither the live source nor
// the cache can produce coordinates. This is fatal for a planning
// cycle: it must abort before any paid directions call, and the
// provider never fabricates coordinates.
var ErrPositionUnavailable = errors.New("location: no live fix and no cached position")

// Source produces a live position fix at the requested accuracy tier.
type Source interface {
	CurrentPosition(ctx context.Context, accuracyMeters int) (model.Position, error)
}

// Cache persists the last known position across cycles.
type Cache interface {
	Get() (model.Position, error)
	Set(model.Position) error
}

// Provider resolves the current position with cache fallback.
type Provider struct {
	source Source
	cache  Cache
}

// NewProvider builds a Provider over the given source and cache.
func NewProvider(source Source, cache Cache) *Provider {
	return &Provider{source: source, cache: cache}
}

// Current returns the device position. Every successful live fix
// overwrites the cache; a failed or incomplete live fix falls back to
// the cached value. With neither available it returns
// ErrPositionUnavailable.
func (p *Provider) Current(ctx context.Context) (model.Position, error) {
	pos, err := p.source.CurrentPosition(ctx, DefaultAccuracyMeters)
	if err == nil && !pos.Zero() {
		if cerr := p.cache.Set(pos); cerr != nil {
			appLog.Error("position cache write failed", cerr)
		}
		return pos, nil
	}
	if err != nil {
		appLog.Error("live position fix failed, trying cache", err)
	} else {
		appLog.Info("live position fix incomplete, trying cache")
	}

	cached, cerr := p.cache.Get()
	if cerr != nil || cached.Zero() {
		if cerr != nil {
			return model.Position{}, fmt.Errorf("%w: %s", ErrPositionUnavailable, cerr)
		}
		return model.Position{}, ErrPositionUnavailable
	}
	return cached, nil
}
