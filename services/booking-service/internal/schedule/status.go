package schedule

// Appointment lifecycle: pending -> confirmed -> completed, and any of
// {pending, confirmed} -> cancelled. completed and cancelled are terminal.
func CanTransition(from, to string) bool {
	switch from {
	case "pending":
		return to == "confirmed" || to == "cancelled"
	case "confirmed":
		return to == "completed" || to == "cancelled"
	default:
		return false
	}
}

func IsTerminal(status string) bool {
	return status == "completed" || status == "cancelled"
}

// Waitlist lifecycle: pending -> contacted -> scheduled, and any of
// {pending, contacted} -> cancelled. scheduled and cancelled are
// terminal.
func CanTransitionWaitlist(from, to string) bool {
	switch from {
	case "pending":
		return to == "contacted" || to == "cancelled"
	case "contacted":
		return to == "scheduled" || to == "cancelled"
	default:
		return false
	}
}
