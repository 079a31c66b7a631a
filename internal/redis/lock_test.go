package redisclient

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestLocalLockerMutualExclusion(t *testing.T) {
	locker := NewLocalLocker()

	const workers = 16
	var wg sync.WaitGroup
	var inside, maxInside, counter int
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := locker.WithSlotLock(context.Background(), "barber:2025-05-26_10:30", func(ctx context.Context) error {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				counter++ // only safe if the lock really excludes

				mu.Lock()
				inside--
				mu.Unlock()
				return nil
			})
			if err != nil {
				t.Errorf("WithSlotLock error: %v", err)
			}
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Fatalf("critical section overlap: max concurrent = %d", maxInside)
	}
	if counter != workers {
		t.Fatalf("counter = %d, want %d", counter, workers)
	}
}

func TestLocalLockerIndependentKeys(t *testing.T) {
	locker := NewLocalLocker()

	release := make(chan struct{})
	holding := make(chan struct{})

	go func() {
		_ = locker.WithSlotLock(context.Background(), "barber:2025-05-26_10:30", func(ctx context.Context) error {
			close(holding)
			<-release
			return nil
		})
	}()

	<-holding
	// A different key must not block behind the held lock.
	err := locker.WithSlotLock(context.Background(), "barber:2025-05-26_11:00", func(ctx context.Context) error {
		return nil
	})
	close(release)
	if err != nil {
		t.Fatalf("independent key blocked or failed: %v", err)
	}
}

func TestLocalLockerCancelledContext(t *testing.T) {
	locker := NewLocalLocker()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := locker.WithSlotLock(ctx, "barber:2025-05-26_10:30", func(ctx context.Context) error {
		called = true
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if called {
		t.Fatalf("fn ran despite cancelled context")
	}
}

func TestLocalLockerPropagatesFnError(t *testing.T) {
	locker := NewLocalLocker()

	want := errors.New("inner failure")
	err := locker.WithSlotLock(context.Background(), "barber:2025-05-26_10:30", func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
