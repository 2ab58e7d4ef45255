package storage

import (
	"context"
	"time"

	"github.com/lucasvieira/agendou/libs/db"
	"github.com/lucasvieira/agendou/services/analytics-service/internal/stats"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

// FetchRange loads the appointment fields the dashboard math works on,
// for start times within [from, to).
func (r *Repository) FetchRange(ctx context.Context, orgID string, from, to time.Time) ([]stats.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id::text, c.name, s.name, a.start_time, a.end_time, a.status, s.price
		FROM appointments a
		JOIN customers c ON c.id = a.customer_id
		JOIN services s ON s.id = a.service_id
		WHERE a.organization_id = $1
			AND a.start_time >= $2
			AND a.start_time < $3
		ORDER BY a.start_time
	`, orgID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []stats.Appointment
	for rows.Next() {
		var a stats.Appointment
		if err := rows.Scan(&a.ID, &a.CustomerName, &a.ServiceName, &a.StartTime, &a.EndTime, &a.Status, &a.Price); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type MonthRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
	Count   int     `json:"count"`
}

// MonthlyRevenue sums completed-appointment revenue per calendar month
// for the last n months, oldest first. Months without completions are
// absent; the handler does not backfill them.
func (r *Repository) MonthlyRevenue(ctx context.Context, orgID string, months int) ([]MonthRevenue, error) {
	if months <= 0 {
		months = 6
	}
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(date_trunc('month', a.start_time), 'YYYY-MM') AS month,
			COALESCE(SUM(s.price), 0),
			COUNT(*)
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.organization_id = $1
			AND a.status = 'completed'
			AND a.start_time >= date_trunc('month', now()) - make_interval(months => $2 - 1)
		GROUP BY 1
		ORDER BY 1
	`, orgID, months)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []MonthRevenue
	for rows.Next() {
		var m MonthRevenue
		if err := rows.Scan(&m.Month, &m.Revenue, &m.Count); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type ServiceRank struct {
	ServiceID string  `json:"service_id"`
	Name      string  `json:"name"`
	Count     int     `json:"count"`
	Revenue   float64 `json:"revenue"`
}

func (r *Repository) TopServices(ctx context.Context, orgID string, limit int) ([]ServiceRank, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := r.pool.Query(ctx, `
		SELECT s.id::text, s.name, COUNT(*),
			COALESCE(SUM(s.price) FILTER (WHERE a.status = 'completed'), 0)
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.organization_id = $1 AND a.status <> 'cancelled'
		GROUP BY s.id, s.name
		ORDER BY COUNT(*) DESC, s.name
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ServiceRank
	for rows.Next() {
		var sr ServiceRank
		if err := rows.Scan(&sr.ServiceID, &sr.Name, &sr.Count, &sr.Revenue); err != nil {
			return nil, err
		}
		out = append(out, sr)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// PeakHours counts non-cancelled appointments per hour of day in the
// organization's timezone.
func (r *Repository) PeakHours(ctx context.Context, orgID, timezone string) ([]HourCount, error) {
	if timezone == "" {
		timezone = "UTC"
	}
	rows, err := r.pool.Query(ctx, `
		SELECT EXTRACT(HOUR FROM a.start_time AT TIME ZONE $2)::int AS hour, COUNT(*)
		FROM appointments a
		WHERE a.organization_id = $1 AND a.status <> 'cancelled'
		GROUP BY 1
		ORDER BY 1
	`, orgID, timezone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []HourCount
	for rows.Next() {
		var hc HourCount
		if err := rows.Scan(&hc.Hour, &hc.Count); err != nil {
			return nil, err
		}
		out = append(out, hc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

// BumpDailyStats maintains the per-day booked/cancelled rollup fed by
// the booking event stream.
func (r *Repository) BumpDailyStats(ctx context.Context, orgID string, day time.Time, bookedInc, cancelledInc int) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO appointment_daily_stats (organization_id, day, booked_count, cancelled_count)
		VALUES ($1, $2::date, $3, $4)
		ON CONFLICT (organization_id, day)
		DO UPDATE SET booked_count = appointment_daily_stats.booked_count + EXCLUDED.booked_count,
		              cancelled_count = appointment_daily_stats.cancelled_count + EXCLUDED.cancelled_count,
		              updated_at = now()
	`, orgID, day.UTC(), bookedInc, cancelledInc)
	return err
}

type DailyStat struct {
	Day            string `json:"day"`
	BookedCount    int    `json:"booked_count"`
	CancelledCount int    `json:"cancelled_count"`
}

func (r *Repository) DailyStats(ctx context.Context, orgID string, from, to time.Time) ([]DailyStat, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(day, 'YYYY-MM-DD'), booked_count, cancelled_count
		FROM appointment_daily_stats
		WHERE organization_id = $1 AND day >= $2::date AND day <= $3::date
		ORDER BY day
	`, orgID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DailyStat
	for rows.Next() {
		var d DailyStat
		if err := rows.Scan(&d.Day, &d.BookedCount, &d.CancelledCount); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

type OrgTotals struct {
	Appointments  int     `json:"appointments"`
	Customers     int     `json:"customers"`
	Revenue       float64 `json:"revenue"`
	AverageTicket float64 `json:"average_ticket"`
}

// Totals computes the tenant's lifetime headline numbers. Revenue and
// the average ticket only count completed appointments.
func (r *Repository) Totals(ctx context.Context, orgID string) (OrgTotals, error) {
	var t OrgTotals
	var completed int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE a.status = 'completed'),
			COALESCE(SUM(s.price) FILTER (WHERE a.status = 'completed'), 0),
			(SELECT COUNT(*) FROM customers WHERE organization_id = $1)
		FROM appointments a
		JOIN services s ON s.id = a.service_id
		WHERE a.organization_id = $1
	`, orgID).Scan(&t.Appointments, &completed, &t.Revenue, &t.Customers)
	if err != nil {
		return t, err
	}
	if completed > 0 {
		t.AverageTicket = t.Revenue / float64(completed)
	}
	return t, nil
}

// OrgTimezone resolves the tenant's display timezone for hour and day
// grouping.
func (r *Repository) OrgTimezone(ctx context.Context, orgID string) (string, error) {
	var tz string
	err := r.pool.QueryRow(ctx, `
		SELECT timezone FROM organizations WHERE id = $1
	`, orgID).Scan(&tz)
	if err != nil {
		return "", err
	}
	return tz, nil
}
