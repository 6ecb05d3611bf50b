package engine

import (
	"testing"
	"time"
)

func TestEditGuardAutoExpires(t *testing.T) {
	clock := &MockClock{MockTime: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)}
	guard := NewEditGuardWithClock(5*time.Second, clock)

	if guard.Active() {
		t.Fatal("fresh guard should be inactive")
	}

	guard.BeginEdit()
	if !guard.Active() {
		t.Fatal("guard inactive right after BeginEdit")
	}

	// Still inside the hold window.
	clock.MockTime = clock.MockTime.Add(4 * time.Second)
	if !guard.Active() {
		t.Error("guard released before the hold expired")
	}

	// Past the deadline: auto-release with no explicit EndEdit.
	clock.MockTime = clock.MockTime.Add(2 * time.Second)
	if guard.Active() {
		t.Error("guard still active after the hold expired")
	}
}

func TestEditGuardExtendsOnRepeatedEdits(t *testing.T) {
	clock := &MockClock{MockTime: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)}
	guard := NewEditGuardWithClock(5*time.Second, clock)

	// A burst of edits: every keystroke pushes the deadline out.
	guard.BeginEdit()
	clock.MockTime = clock.MockTime.Add(4 * time.Second)
	guard.BeginEdit()
	clock.MockTime = clock.MockTime.Add(4 * time.Second)

	if !guard.Active() {
		t.Error("hold not extended by the second edit")
	}

	clock.MockTime = clock.MockTime.Add(2 * time.Second)
	if guard.Active() {
		t.Error("guard outlived the extended hold")
	}
}

func TestEditGuardManualRelease(t *testing.T) {
	clock := &MockClock{MockTime: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC)}
	guard := NewEditGuardWithClock(time.Hour, clock)

	guard.BeginEdit()
	guard.EndEdit()
	if guard.Active() {
		t.Error("EndEdit did not release the guard")
	}
}
