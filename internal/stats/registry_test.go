package stats

import (
	"sync"
	"testing"
	"time"
)

func TestRegistry_InitialSnapshot(t *testing.T) {
	start := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	registry := NewRegistry(start)

	snap := registry.Snapshot()
	if !snap.Online || !snap.APIConnected {
		t.Fatalf("expected online/connected by default: %+v", snap)
	}
	if !snap.StartTime.Equal(start) {
		t.Fatalf("unexpected start time: %v", snap.StartTime)
	}
	if snap.ResponseCount != 0 || snap.ActiveUsers != 0 {
		t.Fatalf("expected zero counters: %+v", snap)
	}
	if snap.LastMessageTime != nil {
		t.Fatalf("expected nil last message time")
	}
	if snap.AverageResponseSec != 2.5 {
		t.Fatalf("expected placeholder average 2.5, got %f", snap.AverageResponseSec)
	}
}

func TestRegistry_RecordResponse(t *testing.T) {
	registry := NewRegistry(time.Now())
	at := time.Date(2024, 6, 1, 15, 30, 45, 0, time.UTC)

	registry.RecordResponse(42, at)
	registry.RecordResponse(42, at.Add(time.Minute))
	registry.RecordResponse(7, at.Add(2*time.Minute))

	snap := registry.Snapshot()
	if snap.ResponseCount != 3 {
		t.Fatalf("expected 3 responses, got %d", snap.ResponseCount)
	}
	if snap.ActiveUsers != 2 {
		t.Fatalf("expected 2 distinct users, got %d", snap.ActiveUsers)
	}
	if snap.LastMessageTime == nil || !snap.LastMessageTime.Equal(at.Add(2*time.Minute)) {
		t.Fatalf("unexpected last message time: %v", snap.LastMessageTime)
	}
}

func TestRegistry_ObserveResponseTime(t *testing.T) {
	registry := NewRegistry(time.Now())

	registry.ObserveResponseTime(2 * time.Second)
	registry.ObserveResponseTime(4 * time.Second)

	snap := registry.Snapshot()
	if snap.AverageResponseSec != 3.0 {
		t.Fatalf("expected average 3.0, got %f", snap.AverageResponseSec)
	}
}

func TestRegistry_Flags(t *testing.T) {
	registry := NewRegistry(time.Now())

	registry.SetOnline(false)
	registry.SetAPIConnected(false)

	snap := registry.Snapshot()
	if snap.Online || snap.APIConnected {
		t.Fatalf("expected flags cleared: %+v", snap)
	}
}

func TestRegistry_SnapshotIsolated(t *testing.T) {
	registry := NewRegistry(time.Now())
	registry.RecordResponse(1, time.Now())

	snap := registry.Snapshot()
	mutated := snap.LastMessageTime.Add(time.Hour)
	*snap.LastMessageTime = mutated

	fresh := registry.Snapshot()
	if fresh.LastMessageTime.Equal(mutated) {
		t.Fatalf("registry mutated through snapshot")
	}
}

func TestRegistry_Concurrency(t *testing.T) {
	registry := NewRegistry(time.Now())

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				registry.RecordResponse(userID, time.Now())
				registry.ObserveResponseTime(time.Second)
			}
		}(int64(i))
	}
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				registry.Snapshot()
			}
		}()
	}
	wg.Wait()

	snap := registry.Snapshot()
	if snap.ResponseCount != 1000 {
		t.Fatalf("expected 1000 responses, got %d", snap.ResponseCount)
	}
	if snap.ActiveUsers != 10 {
		t.Fatalf("expected 10 users, got %d", snap.ActiveUsers)
	}
}
