// file: internal/authorizer/cache_test.go

package authorizer

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestCacheReplaceAndSnapshot(t *testing.T) {
	var c cache

	first := entry{header: "Bearer one", expiry: time.Now().Add(time.Hour)}
	c.replace(first, nil)

	got, err := c.snapshot()
	if err != nil {
		t.Fatalf("snapshot() unexpected error: %v", err)
	}
	if got.header != first.header {
		t.Errorf("snapshot() header = %q, want %q", got.header, first.header)
	}

	// A failure replaces the previous token entirely; readers must not
	// be served the stale header.
	fetchErr := errors.New("endpoint down")
	c.replace(entry{}, fetchErr)

	got, err = c.snapshot()
	if err == nil {
		t.Fatal("snapshot() expected error after failed replace, got nil")
	}
	if !errors.Is(err, fetchErr) {
		t.Errorf("snapshot() error = %v, want %v", err, fetchErr)
	}
	if got.header != "" {
		t.Errorf("snapshot() header = %q, want empty after failure", got.header)
	}

	// A later success clears the failure for every subsequent read.
	second := entry{header: "Bearer two"}
	c.replace(second, nil)

	got, err = c.snapshot()
	if err != nil {
		t.Fatalf("snapshot() unexpected error after recovery: %v", err)
	}
	if got.header != second.header {
		t.Errorf("snapshot() header = %q, want %q", got.header, second.header)
	}
}

func TestCacheConcurrentReaders(t *testing.T) {
	var c cache
	c.replace(entry{header: "Bearer initial"}, nil)

	stop := make(chan struct{})
	var wg sync.WaitGroup

	// One writer alternating success and failure.
	wg.Add(1)
	go func() {
		defer wg.Done()
		writeErr := errors.New("transient")
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			if i%2 == 0 {
				c.replace(entry{header: "Bearer rotated"}, nil)
			} else {
				c.replace(entry{}, writeErr)
			}
		}
	}()

	// Many readers observing either a complete entry or a complete error,
	// never a mix.
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				ent, err := c.snapshot()
				if err == nil && ent.header == "" {
					t.Error("snapshot() returned neither an entry nor an error")
					return
				}
				if err != nil && ent.header != "" {
					t.Error("snapshot() returned both an entry and an error")
					return
				}
			}
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(stop)
	wg.Wait()
}
