package otp

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoryStore_TakeIfValid(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(5 * time.Minute)
	issued := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	store.Put(ctx, "9876543210", "042042", issued)

	ok, err := store.TakeIfValid(ctx, "9876543210", "042042", issued.Add(time.Minute))
	if err != nil || !ok {
		t.Fatalf("Expected code to be taken, got %v, %v", ok, err)
	}
	ok, _ = store.TakeIfValid(ctx, "9876543210", "042042", issued.Add(time.Minute))
	if ok {
		t.Error("Expected second take to fail")
	}
}

func TestMemoryStore_ConcurrentTake(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(5 * time.Minute)
	now := time.Now()
	store.Put(ctx, "9876543210", "123456", now)

	var wins int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if ok, _ := store.TakeIfValid(ctx, "9876543210", "123456", now); ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()

	if wins != 1 {
		t.Errorf("Expected exactly one successful take, got %d", wins)
	}
}

func TestMemoryStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(5 * time.Minute)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	store.Put(ctx, "9000000001", "111111", now.Add(-10*time.Minute))
	store.Put(ctx, "9000000002", "222222", now.Add(-5*time.Minute))
	store.Put(ctx, "9000000003", "333333", now.Add(-time.Minute))

	n, err := store.PurgeExpired(ctx, now)
	if err != nil {
		t.Fatalf("PurgeExpired failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 purged codes, got %d", n)
	}
	if ok, _ := store.TakeIfValid(ctx, "9000000003", "333333", now); !ok {
		t.Error("Expected fresh code to survive purge")
	}
}

func TestMemoryStore_BurnsCodeAfterFailedAttempts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(5 * time.Minute)
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	store.Put(ctx, "9876543210", "123456", now)

	for i := 0; i < MaxFailedAttempts-1; i++ {
		if ok, _ := store.TakeIfValid(ctx, "9876543210", "000000", now); ok {
			t.Fatal("Expected wrong code to be rejected")
		}
	}
	// one miss left: the right code still works
	if ok, _ := store.TakeIfValid(ctx, "9876543210", "123456", now); !ok {
		t.Fatal("Expected code to survive fewer than the allowed misses")
	}

	store.Put(ctx, "9876543210", "654321", now)
	for i := 0; i < MaxFailedAttempts; i++ {
		store.TakeIfValid(ctx, "9876543210", "000000", now)
	}
	if ok, _ := store.TakeIfValid(ctx, "9876543210", "654321", now); ok {
		t.Error("Expected code to be burned after the last allowed miss")
	}

	// a new code starts a fresh count
	store.Put(ctx, "9876543210", "111111", now)
	if ok, _ := store.TakeIfValid(ctx, "9876543210", "111111", now); !ok {
		t.Error("Expected reissued code to be accepted")
	}
}
