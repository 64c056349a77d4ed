// file: internal/authorizer/refresher.go

package authorizer

import (
	"context"
	"time"
)

// refreshLoop keeps the cached token fresh. Each iteration computes a
// sleep from the current cache snapshot, wakes, fetches, and replaces the
// cache state unconditionally: a failed refresh records the failure so
// readers can detect staleness instead of being served an expired token.
func (a *ManagedAuthorizer) refreshLoop(ctx context.Context) {
	defer a.wg.Done()

	a.logger.Debug("refresh loop started",
		"credential", a.name,
		"tolerance", a.tolerance)

	for {
		sleep, stop := a.nextSleep(time.Now())
		if stop {
			a.logger.Debug("token does not expire, stopping refresh loop",
				"credential", a.name)
			return
		}

		timer := time.NewTimer(sleep)
		select {
		case <-ctx.Done():
			timer.Stop()
			a.logger.Debug("refresh loop stopped", "credential", a.name)
			return
		case <-timer.C:
		}

		grant, err := a.fetcher.fetch(ctx)
		if ctx.Err() != nil {
			// Shutdown was requested while the exchange was in flight;
			// drop the result so no replacement happens after Close.
			a.logger.Debug("refresh loop stopped", "credential", a.name)
			return
		}
		if err != nil {
			a.cache.replace(entry{}, err)
			if a.metrics != nil {
				a.metrics.IncRefreshFailure(a.name)
			}
			a.logger.Error("token refresh failed",
				"credential", a.name,
				"retryIn", a.tolerance,
				"error", err)
			continue
		}

		a.storeGrant(grant)
	}
}

// nextSleep computes how long to wait before the next refresh attempt
// from the current cache snapshot. stop is true when the cached token
// never expires and the loop has nothing left to do.
func (a *ManagedAuthorizer) nextSleep(now time.Time) (sleep time.Duration, stop bool) {
	ent, err := a.cache.snapshot()
	if err != nil {
		// Last fetch failed; keep retrying at the tolerance cadence.
		return a.tolerance, false
	}
	if ent.expiry.IsZero() {
		return 0, true
	}

	remaining := ent.expiry.Sub(now)
	if remaining < a.tolerance {
		// Never hammer the endpoint with zero-duration sleeps.
		a.logger.Warn("token expires sooner than the refresh tolerance",
			"credential", a.name,
			"remaining", remaining,
			"tolerance", a.tolerance)
		return a.tolerance, false
	}
	return remaining - a.tolerance, false
}
