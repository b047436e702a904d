package ingestcache

import (
	"sync"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	ttl := 5 * time.Second
	cache := New(ttl)

	if cache == nil {
		t.Fatal("New() returned nil")
	}
	if cache.ttl != ttl {
		t.Errorf("Expected TTL %v, got %v", ttl, cache.ttl)
	}
	if cache.entries == nil {
		t.Error("entries map not initialized")
	}
}

func TestSetAndGet(t *testing.T) {
	cache := New(5 * time.Second)
	eventID := "retreat-2026"

	cache.Set(eventID, Status{
		EventID:          eventID,
		JobID:            "job-1",
		Phase:            PhaseParsing,
		TracksDiscovered: 12,
	})

	s, ok := cache.Get(eventID)
	if !ok {
		t.Fatal("Expected entry to exist")
	}
	if s.EventID != eventID {
		t.Errorf("EventID = %s, want %s", s.EventID, eventID)
	}
	if s.Phase != PhaseParsing {
		t.Errorf("Phase = %s, want %s", s.Phase, PhaseParsing)
	}
	if s.TracksDiscovered != 12 {
		t.Errorf("TracksDiscovered = %d, want 12", s.TracksDiscovered)
	}
	if s.UpdatedAt.IsZero() {
		t.Error("UpdatedAt was not stamped")
	}
}

func TestGetNonExistent(t *testing.T) {
	cache := New(5 * time.Second)

	s, ok := cache.Get("nonexistent")
	if ok {
		t.Error("Expected entry not to exist")
	}
	if s != nil {
		t.Error("Expected nil entry")
	}
}

func TestIsFresh(t *testing.T) {
	cache := New(100 * time.Millisecond)
	eventID := "retreat-2026"

	if cache.IsFresh(eventID) {
		t.Error("Expected false for nonexistent entry")
	}

	cache.Set(eventID, Status{EventID: eventID, Phase: PhaseDone})
	if !cache.IsFresh(eventID) {
		t.Error("Expected true for fresh entry")
	}

	time.Sleep(150 * time.Millisecond)
	if cache.IsFresh(eventID) {
		t.Error("Expected false for expired entry")
	}
}

func TestGetAll(t *testing.T) {
	cache := New(5 * time.Second)

	cache.Set("event1", Status{EventID: "event1", Phase: PhaseDone})
	cache.Set("event2", Status{EventID: "event2", Phase: PhaseFailed})

	all := cache.GetAll()
	if len(all) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(all))
	}
	for _, id := range []string{"event1", "event2"} {
		if _, ok := all[id]; !ok {
			t.Errorf("Expected %s to exist in GetAll()", id)
		}
	}
}

func TestConcurrency(t *testing.T) {
	cache := New(5 * time.Second)
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			eventID := "event-" + string(rune('0'+id))
			cache.Set(eventID, Status{EventID: eventID, Phase: PhasePersisting})
		}(i)
	}
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			eventID := "event-" + string(rune('0'+id))
			cache.Get(eventID)
		}(i)
	}
	wg.Wait()
}

func TestMetrics(t *testing.T) {
	cache := New(5 * time.Second)

	m := cache.Metrics()
	if m.Hits != 0 || m.Misses != 0 {
		t.Error("Expected zero metrics initially")
	}

	cache.Set("event1", Status{EventID: "event1"})
	cache.Get("event1") // hit
	cache.Get("event2") // miss

	m = cache.Metrics()
	if m.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", m.Hits)
	}
	if m.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", m.Misses)
	}
	if m.Refreshes != 1 {
		t.Errorf("Expected 1 refresh, got %d", m.Refreshes)
	}
}

func TestClear(t *testing.T) {
	cache := New(5 * time.Second)

	cache.Set("event1", Status{EventID: "event1"})
	cache.Set("event2", Status{EventID: "event2"})

	if len(cache.GetAll()) != 2 {
		t.Fatalf("Expected 2 entries before clear")
	}

	cache.Clear()

	if len(cache.GetAll()) != 0 {
		t.Errorf("Expected 0 entries after clear")
	}
}
