package schedule

import "time"

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

func (iv Interval) Valid() bool {
	return iv.End.After(iv.Start)
}

// Overlaps reports whether two half-open intervals share at least one
// instant: [s1,e1) overlaps [s2,e2) iff s1 < e2 && s2 < e1. Touching
// endpoints do not conflict.
func Overlaps(a, b Interval) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Booking is the subset of an appointment the conflict predicate needs.
type Booking struct {
	ID         string
	EmployeeID string
	Status     string
	Interval   Interval
}

// Conflicts reports whether the candidate interval collides with any of
// the given bookings. Cancelled bookings never conflict. excludeID skips
// one appointment (edit-in-place). When employeeID is set, only that
// employee's bookings are considered; bookings without an assigned
// employee do not block an employee-scoped slot. Unscoped candidates
// check everything.
func Conflicts(candidate Interval, bookings []Booking, excludeID, employeeID string) bool {
	if !candidate.Valid() {
		return false
	}
	for _, b := range bookings {
		if b.Status == "cancelled" {
			continue
		}
		if excludeID != "" && b.ID == excludeID {
			continue
		}
		if employeeID != "" && b.EmployeeID != employeeID {
			continue
		}
		if Overlaps(candidate, b.Interval) {
			return true
		}
	}
	return false
}
