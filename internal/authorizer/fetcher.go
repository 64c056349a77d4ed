// file: internal/authorizer/fetcher.go

package authorizer

import (
	"context"
	"time"

	"token-keeper/internal/logger"
	"token-keeper/internal/metrics"
)

// fetcher wraps a TokenExchanger with bounded retry. Any exchange failure
// is retried uniformly up to maxRetries additional times, sleeping a fixed
// retryInterval between attempts. It holds no shared state.
type fetcher struct {
	name          string
	exchanger     TokenExchanger
	maxRetries    int
	retryInterval time.Duration
	logger        *logger.Logger
	metrics       *metrics.Metrics
}

// fetch performs up to 1+maxRetries exchange attempts and returns the
// last error when all of them fail.
func (f *fetcher) fetch(ctx context.Context) (Grant, error) {
	var lastErr error

	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			if f.metrics != nil {
				f.metrics.IncFetchRetry(f.name)
			}
			select {
			case <-ctx.Done():
				return Grant{}, &TransportError{Cause: ctx.Err()}
			case <-time.After(f.retryInterval):
			}
		}

		start := time.Now()
		grant, err := f.exchanger.Exchange(ctx)
		if f.metrics != nil {
			f.metrics.ObserveFetchDuration(f.name, time.Since(start).Seconds())
		}
		if err == nil {
			f.logger.Debug("token exchange succeeded",
				"credential", f.name,
				"attempt", attempt+1)
			return grant, nil
		}

		lastErr = err
		f.logger.Debug("token exchange failed",
			"credential", f.name,
			"attempt", attempt+1,
			"maxRetries", f.maxRetries,
			"error", err)

		if ctx.Err() != nil {
			break
		}
	}

	f.logger.Error("token exchange failed after all retries",
		"credential", f.name,
		"attempts", f.maxRetries+1,
		"error", lastErr)
	return Grant{}, lastErr
}
