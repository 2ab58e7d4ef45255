package model

import "time"

const (
	WaitlistPending   = "pending"
	WaitlistContacted = "contacted"
	WaitlistScheduled = "scheduled"
	WaitlistCancelled = "cancelled"
)

type WaitlistEntry struct {
	ID           string
	OrgID        string
	CustomerID   string
	ServiceID    string
	EmployeeID   string
	DesiredDate  time.Time
	Notes        string
	Status       string
	FollowedUpAt *time.Time
	CreatedAt    time.Time

	CustomerName  string
	CustomerPhone string
	ServiceName   string
	EmployeeName  string
}
