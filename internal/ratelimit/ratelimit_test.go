package ratelimit

import (
	"testing"
	"time"
)

func TestAllowWithinBurst(t *testing.T) {
	s := New(300*time.Millisecond, 5)
	for i := 0; i < 5; i++ {
		if !s.Allow(1) {
			t.Fatalf("request %d within burst denied", i+1)
		}
	}
	if s.Allow(1) {
		t.Fatal("request beyond burst allowed")
	}
}

func TestAllowRefillsOverTime(t *testing.T) {
	current := time.Unix(0, 0)
	s := New(300*time.Millisecond, 1, withClock(func() time.Time { return current }))

	if !s.Allow(1) {
		t.Fatal("first request denied")
	}
	if s.Allow(1) {
		t.Fatal("second immediate request allowed")
	}
	current = current.Add(350 * time.Millisecond)
	if !s.Allow(1) {
		t.Fatal("request after refill denied")
	}
}

func TestUsersAreIndependent(t *testing.T) {
	s := New(300*time.Millisecond, 1)
	if !s.Allow(1) {
		t.Fatal("user 1 denied")
	}
	if !s.Allow(2) {
		t.Fatal("user 2 should have a fresh bucket")
	}
}

func TestIdleEntriesEvicted(t *testing.T) {
	current := time.Unix(0, 0)
	s := New(300*time.Millisecond, 5, WithTTL(time.Minute), withClock(func() time.Time { return current }))

	s.Allow(1)
	s.Allow(2)
	if s.Len() != 2 {
		t.Fatalf("expected 2 tracked users, got %d", s.Len())
	}

	current = current.Add(2 * time.Minute)
	s.Allow(3)
	if s.Len() != 1 {
		t.Fatalf("idle entries should be gone, got %d", s.Len())
	}
}

func TestMaxSizeEnforced(t *testing.T) {
	current := time.Unix(0, 0)
	s := New(300*time.Millisecond, 5, WithMaxSize(3), WithTTL(time.Hour), withClock(func() time.Time { return current }))

	for id := int64(1); id <= 5; id++ {
		current = current.Add(time.Second)
		s.Allow(id)
	}
	if s.Len() > 3 {
		t.Fatalf("store grew past cap: %d", s.Len())
	}
}
