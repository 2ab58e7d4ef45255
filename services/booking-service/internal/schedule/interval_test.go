package schedule

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 8, 12, hour, min, 0, 0, time.UTC)
}

func TestOverlapsDefinition(t *testing.T) {
	cases := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"strict overlap", Interval{at(9, 0), at(10, 0)}, Interval{at(9, 30), at(10, 30)}, true},
		{"containment", Interval{at(9, 0), at(12, 0)}, Interval{at(10, 0), at(11, 0)}, true},
		{"identical", Interval{at(9, 0), at(10, 0)}, Interval{at(9, 0), at(10, 0)}, true},
		{"touching end-to-start", Interval{at(9, 0), at(10, 0)}, Interval{at(10, 0), at(11, 0)}, false},
		{"touching start-to-end", Interval{at(10, 0), at(11, 0)}, Interval{at(9, 0), at(10, 0)}, false},
		{"disjoint", Interval{at(9, 0), at(10, 0)}, Interval{at(14, 0), at(15, 0)}, false},
	}
	for _, tc := range cases {
		if got := Overlaps(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s: Overlaps = %v, want %v", tc.name, got, tc.want)
		}
		if got := Overlaps(tc.b, tc.a); got != tc.want {
			t.Fatalf("%s: Overlaps not symmetric", tc.name)
		}
	}
}

func TestConflictsIgnoresCancelled(t *testing.T) {
	existing := []Booking{
		{ID: "a1", Status: "confirmed", Interval: Interval{at(9, 0), at(10, 0)}},
	}
	candidate := Interval{at(9, 30), at(10, 30)}

	if !Conflicts(candidate, existing, "", "") {
		t.Fatal("expected conflict with confirmed booking")
	}

	existing[0].Status = "cancelled"
	if Conflicts(candidate, existing, "", "") {
		t.Fatal("cancelled booking must not conflict")
	}
}

func TestConflictsBoundaryTouch(t *testing.T) {
	existing := []Booking{
		{ID: "a1", Status: "confirmed", Interval: Interval{at(9, 0), at(10, 0)}},
	}
	if Conflicts(Interval{at(10, 0), at(11, 0)}, existing, "", "") {
		t.Fatal("back-to-back bookings must not conflict")
	}
}

func TestConflictsExcludesSelf(t *testing.T) {
	existing := []Booking{
		{ID: "a1", Status: "pending", Interval: Interval{at(9, 0), at(10, 0)}},
	}
	// Editing a1 in place: its own row must not block the new time.
	if Conflicts(Interval{at(9, 0), at(10, 0)}, existing, "a1", "") {
		t.Fatal("excluded appointment must not conflict with itself")
	}
	if !Conflicts(Interval{at(9, 0), at(10, 0)}, existing, "other", "") {
		t.Fatal("exclusion of a different id must not suppress the conflict")
	}
}

func TestConflictsEmployeeScope(t *testing.T) {
	existing := []Booking{
		{ID: "a1", EmployeeID: "emp-1", Status: "confirmed", Interval: Interval{at(9, 0), at(10, 0)}},
	}
	candidate := Interval{at(9, 30), at(10, 30)}

	if Conflicts(candidate, existing, "", "emp-2") {
		t.Fatal("another employee's booking must not conflict")
	}
	if !Conflicts(candidate, existing, "", "emp-1") {
		t.Fatal("same employee's booking must conflict")
	}
	// Unscoped candidate blocks on any non-cancelled booking.
	if !Conflicts(candidate, existing, "", "") {
		t.Fatal("unscoped candidate must conflict")
	}
}

func TestConflictsUnassignedBookings(t *testing.T) {
	existing := []Booking{
		{ID: "a1", Status: "confirmed", Interval: Interval{at(9, 0), at(10, 0)}},
	}
	candidate := Interval{at(9, 30), at(10, 30)}

	if Conflicts(candidate, existing, "", "emp-1") {
		t.Fatal("booking without an employee must not block an employee-scoped slot")
	}
	if !Conflicts(candidate, existing, "", "") {
		t.Fatal("unscoped candidate must still conflict with an unassigned booking")
	}
}

func TestConflictsInvalidCandidate(t *testing.T) {
	existing := []Booking{
		{ID: "a1", Status: "confirmed", Interval: Interval{at(9, 0), at(10, 0)}},
	}
	if Conflicts(Interval{at(10, 0), at(9, 0)}, existing, "", "") {
		t.Fatal("inverted interval must not conflict")
	}
}
