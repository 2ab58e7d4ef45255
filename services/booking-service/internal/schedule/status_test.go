package schedule

import "testing"

func TestCanTransition(t *testing.T) {
	allowed := [][2]string{
		{"pending", "confirmed"},
		{"pending", "cancelled"},
		{"confirmed", "completed"},
		{"confirmed", "cancelled"},
	}
	for _, pair := range allowed {
		if !CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]string{
		{"pending", "completed"},
		{"completed", "cancelled"},
		{"completed", "pending"},
		{"cancelled", "pending"},
		{"cancelled", "confirmed"},
		{"confirmed", "pending"},
	}
	for _, pair := range denied {
		if CanTransition(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}

func TestCanTransitionWaitlist(t *testing.T) {
	allowed := [][2]string{
		{"pending", "contacted"},
		{"pending", "cancelled"},
		{"contacted", "scheduled"},
		{"contacted", "cancelled"},
	}
	for _, pair := range allowed {
		if !CanTransitionWaitlist(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	denied := [][2]string{
		{"pending", "scheduled"},
		{"contacted", "pending"},
		{"scheduled", "contacted"},
		{"scheduled", "cancelled"},
		{"cancelled", "pending"},
		{"cancelled", "contacted"},
	}
	for _, pair := range denied {
		if CanTransitionWaitlist(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be rejected", pair[0], pair[1])
		}
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal("completed") || !IsTerminal("cancelled") {
		t.Fatal("completed and cancelled are terminal")
	}
	if IsTerminal("pending") || IsTerminal("confirmed") {
		t.Fatal("pending and confirmed are not terminal")
	}
}
