package model

import "time"

// Appointment statuses. Cancellation is a status transition; rows are
// never deleted.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Payment statuses tracked on the appointment. No charging happens here;
// these fields only record what the business collected.
const (
	PaymentPending  = "pending"
	PaymentPaid     = "paid"
	PaymentRefunded = "refunded"
)

type Appointment struct {
	ID            string
	OrgID         string
	CustomerID    string
	ServiceID     string
	EmployeeID    string // empty = any staff member
	StartTime     time.Time
	EndTime       time.Time
	Status        string
	PaymentStatus string
	PaymentMethod string
	AmountPaid    float64
	PromotionID   string
	Notes         string
	CreatedAt     time.Time

	// Denormalized display fields joined from the catalog tables.
	CustomerName  string
	CustomerPhone string
	ServiceName   string
	ServicePrice  float64
	EmployeeName  string
}

type Review struct {
	ID            string
	AppointmentID string
	Rating        int
	Comment       string
	CreatedAt     time.Time
}
