// file: internal/authorizer/fetcher_test.go

package authorizer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"token-keeper/internal/logger"
)

// exchangerFunc adapts a function to the TokenExchanger interface.
type exchangerFunc func(ctx context.Context) (Grant, error)

func (f exchangerFunc) Exchange(ctx context.Context) (Grant, error) { return f(ctx) }

// failNTimesExchanger fails the first n calls, then succeeds with the
// given grant. It counts every call.
func failNTimesExchanger(n int, grant Grant, calls *atomic.Int64) exchangerFunc {
	return func(ctx context.Context) (Grant, error) {
		call := calls.Add(1)
		if call <= int64(n) {
			return Grant{}, &ProtocolError{StatusCode: 500, Cause: errors.New("server error")}
		}
		return grant, nil
	}
}

func TestFetcherRetriesUntilSuccess(t *testing.T) {
	tests := []struct {
		name       string
		failures   int
		maxRetries int
		wantCalls  int64
		wantErr    bool
	}{
		{
			name:       "first attempt succeeds",
			failures:   0,
			maxRetries: 3,
			wantCalls:  1,
		},
		{
			name:       "succeeds on last allowed attempt",
			failures:   3,
			maxRetries: 3,
			wantCalls:  4,
		},
		{
			name:       "all attempts fail",
			failures:   10,
			maxRetries: 3,
			wantCalls:  4,
			wantErr:    true,
		},
		{
			name:       "retries disabled",
			failures:   1,
			maxRetries: 0,
			wantCalls:  1,
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64
			f := &fetcher{
				name:          "test",
				exchanger:     failNTimesExchanger(tt.failures, Grant{AccessToken: "tok"}, &calls),
				maxRetries:    tt.maxRetries,
				retryInterval: time.Millisecond,
				logger:        logger.NewNop(),
			}

			grant, err := f.fetch(context.Background())
			if tt.wantErr {
				if err == nil {
					t.Fatal("fetch() expected error, got nil")
				}
				if !IsProtocolError(err) {
					t.Errorf("fetch() error = %v, want protocol error", err)
				}
			} else {
				if err != nil {
					t.Fatalf("fetch() unexpected error: %v", err)
				}
				if grant.AccessToken != "tok" {
					t.Errorf("fetch() token = %q, want %q", grant.AccessToken, "tok")
				}
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("exchange calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestFetcherReturnsLastError(t *testing.T) {
	var calls atomic.Int64
	f := &fetcher{
		name: "test",
		exchanger: exchangerFunc(func(ctx context.Context) (Grant, error) {
			if calls.Add(1) == 1 {
				return Grant{}, &TransportError{Cause: errors.New("connection refused")}
			}
			return Grant{}, &ProtocolError{StatusCode: 503, Cause: errors.New("unavailable")}
		}),
		maxRetries:    1,
		retryInterval: time.Millisecond,
		logger:        logger.NewNop(),
	}

	_, err := f.fetch(context.Background())
	if err == nil {
		t.Fatal("fetch() expected error, got nil")
	}

	// The error from the final attempt wins, not the first one.
	var pe *ProtocolError
	if !errors.As(err, &pe) {
		t.Fatalf("fetch() error = %v, want the last attempt's protocol error", err)
	}
	if pe.StatusCode != 503 {
		t.Errorf("status = %d, want 503", pe.StatusCode)
	}
}

func TestFetcherObservesRetryInterval(t *testing.T) {
	var calls atomic.Int64
	interval := 20 * time.Millisecond
	f := &fetcher{
		name:          "test",
		exchanger:     failNTimesExchanger(2, Grant{AccessToken: "tok"}, &calls),
		maxRetries:    3,
		retryInterval: interval,
		logger:        logger.NewNop(),
	}

	start := time.Now()
	if _, err := f.fetch(context.Background()); err != nil {
		t.Fatalf("fetch() unexpected error: %v", err)
	}
	elapsed := time.Since(start)

	// Two retries means two sleeps between the three attempts.
	if elapsed < 2*interval {
		t.Errorf("fetch() returned after %v, want at least %v", elapsed, 2*interval)
	}
}

func TestFetcherStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int64
	f := &fetcher{
		name: "test",
		exchanger: exchangerFunc(func(ctx context.Context) (Grant, error) {
			calls.Add(1)
			cancel()
			return Grant{}, &TransportError{Cause: errors.New("dial timeout")}
		}),
		maxRetries:    5,
		retryInterval: time.Hour,
		logger:        logger.NewNop(),
	}

	done := make(chan struct{})
	var err error
	go func() {
		_, err = f.fetch(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("fetch() did not return after context cancellation")
	}

	if err == nil {
		t.Fatal("fetch() expected error, got nil")
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("exchange calls = %d, want 1 after cancellation", got)
	}
}
