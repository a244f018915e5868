package pipeline

import (
	"testing"
	"time"
)

func TestTrackerAcceptsFirstEvent(t *testing.T) {
	tracker := NewTracker(2 * time.Second)
	now := time.Now()

	if !tracker.Accept("/inbox/a.fit", now) {
		t.Fatal("first event should be accepted")
	}
	if tracker.Pending() != 1 {
		t.Fatalf("pending = %d", tracker.Pending())
	}
}

func TestTrackerRejectsWhileInFlight(t *testing.T) {
	tracker := NewTracker(2 * time.Second)
	now := time.Now()

	tracker.Accept("/inbox/a.fit", now)
	if tracker.Accept("/inbox/a.fit", now.Add(10*time.Second)) {
		t.Fatal("in-flight path must be rejected regardless of elapsed time")
	}
}

func TestTrackerDebouncesAfterRelease(t *testing.T) {
	tracker := NewTracker(2 * time.Second)
	now := time.Now()

	tracker.Accept("/inbox/a.fit", now)
	tracker.Release("/inbox/a.fit")

	if tracker.Accept("/inbox/a.fit", now.Add(500*time.Millisecond)) {
		t.Fatal("event inside the debounce window should be rejected")
	}
	if !tracker.Accept("/inbox/a.fit", now.Add(3*time.Second)) {
		t.Fatal("event after the debounce window should be accepted")
	}
}

func TestTrackerIsPerPath(t *testing.T) {
	tracker := NewTracker(2 * time.Second)
	now := time.Now()

	if !tracker.Accept("/inbox/a.fit", now) {
		t.Fatal("a.fit should be accepted")
	}
	if !tracker.Accept("/inbox/b.fit", now) {
		t.Fatal("b.fit is independent of a.fit")
	}
	if tracker.Pending() != 2 {
		t.Fatalf("pending = %d", tracker.Pending())
	}
}

func TestTrackerReleaseAllowsReacceptAfterWindow(t *testing.T) {
	tracker := NewTracker(time.Millisecond)
	now := time.Now()

	tracker.Accept("/inbox/a.fit", now)
	tracker.Release("/inbox/a.fit")
	if tracker.Pending() != 0 {
		t.Fatalf("pending = %d", tracker.Pending())
	}
	if !tracker.Accept("/inbox/a.fit", now.Add(5*time.Millisecond)) {
		t.Fatal("released path should be accepted again after the window")
	}
}
