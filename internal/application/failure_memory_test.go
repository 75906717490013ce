package application

import "testing"

func TestFailureMemory_AddAndLookup(t *testing.T) {
	m := NewFailureMemory()

	if m.Failed("org/app", 1) {
		t.Error("fresh memory reports a failure")
	}

	m.Add("org/app", 1)
	if !m.Failed("org/app", 1) {
		t.Error("added ID not remembered")
	}
	if m.Failed("org/lib", 1) {
		t.Error("failure leaked across projects")
	}
}

func TestFailureMemory_AddIsIdempotent(t *testing.T) {
	m := NewFailureMemory()

	m.Add("org/app", 1)
	m.Add("org/app", 1)

	if got := m.Count("org/app"); got != 1 {
		t.Errorf("count = %d, want 1", got)
	}
}
