package model

import "time"

type Organization struct {
	ID        string
	Name      string
	Slug      string
	Timezone  string
	LogoURL   string
	ThemeHex  string
	CreatedAt time.Time
}

type Service struct {
	ID           string
	OrgID        string
	Name         string
	Description  string
	DurationMins int
	Price        float64
	Active       bool
	CreatedAt    time.Time
}

type Customer struct {
	ID        string
	OrgID     string
	Name      string
	Phone     string
	Email     string
	Notes     string
	CreatedAt time.Time
}

type Employee struct {
	ID        string
	OrgID     string
	FullName  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	DiscountPercentage = "percentage"
	DiscountFixed      = "fixed"
)

type Promotion struct {
	ID            string
	OrgID         string
	Name          string
	ServiceID     string
	DiscountType  string
	DiscountValue float64
	StartDate     time.Time
	EndDate       *time.Time
	Active        bool
	CreatedAt     time.Time
}
