package storage

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lucasvieira/agendou/libs/db"
	"github.com/lucasvieira/agendou/services/booking-service/internal/model"
	"github.com/lucasvieira/agendou/services/booking-service/internal/schedule"
)

type BookingRepository struct {
	pool *db.Pool
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

const appointmentColumns = `
	a.id::text, a.organization_id::text, a.customer_id::text, a.service_id::text,
	COALESCE(a.employee_id::text, ''), a.start_time, a.end_time, a.status,
	a.payment_status, COALESCE(a.payment_method, ''), a.amount_paid,
	COALESCE(a.promotion_id::text, ''), COALESCE(a.notes, ''), a.created_at,
	c.name, c.phone, s.name, s.price, COALESCE(e.full_name, '')`

const appointmentJoins = `
	FROM appointments a
	JOIN customers c ON c.id = a.customer_id
	JOIN services s ON s.id = a.service_id
	LEFT JOIN employees e ON e.id = a.employee_id`

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	err := row.Scan(
		&appt.ID,
		&appt.OrgID,
		&appt.CustomerID,
		&appt.ServiceID,
		&appt.EmployeeID,
		&appt.StartTime,
		&appt.EndTime,
		&appt.Status,
		&appt.PaymentStatus,
		&appt.PaymentMethod,
		&appt.AmountPaid,
		&appt.PromotionID,
		&appt.Notes,
		&appt.CreatedAt,
		&appt.CustomerName,
		&appt.CustomerPhone,
		&appt.ServiceName,
		&appt.ServicePrice,
		&appt.EmployeeName,
	)
	return appt, err
}

// Create inserts the appointment. The partial exclusion constraint on
// (organization_id, employee_id, time range) rejects overlapping
// non-cancelled rows; callers detect that with IsConflict.
func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(organization_id, customer_id, service_id, employee_id, start_time, end_time,
			 status, payment_status, amount_paid, promotion_id, notes)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9, NULLIF($10, '')::uuid, $11)
		RETURNING id
	`, appt.OrgID, appt.CustomerID, appt.ServiceID, appt.EmployeeID,
		appt.StartTime, appt.EndTime, appt.Status, appt.PaymentStatus,
		appt.AmountPaid, appt.PromotionID, appt.Notes).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BookingRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, orgID, appointmentID string) (model.Appointment, error) {
	row := tx.QueryRow(ctx, `
		SELECT`+appointmentColumns+appointmentJoins+`
		WHERE a.id = $1 AND a.organization_id = $2
		FOR UPDATE OF a
	`, appointmentID, orgID)
	return scanAppointment(row)
}

func (r *BookingRepository) Get(ctx context.Context, orgID, appointmentID string) (model.Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT`+appointmentColumns+appointmentJoins+`
		WHERE a.id = $1 AND a.organization_id = $2
	`, appointmentID, orgID)
	return scanAppointment(row)
}

// Reschedule moves an appointment to a new interval (and optionally a new
// employee/service). The exclusion constraint re-checks overlap at commit.
func (r *BookingRepository) Reschedule(ctx context.Context, tx pgx.Tx, orgID, appointmentID string, start, end time.Time, employeeID, serviceID string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET start_time = $3,
			end_time = $4,
			employee_id = NULLIF($5, '')::uuid,
			service_id = COALESCE(NULLIF($6, '')::uuid, service_id),
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`, appointmentID, orgID, start, end, employeeID, serviceID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *BookingRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, orgID, appointmentID, status string) error {
	tag, err := tx.Exec(ctx, `
		UPDATE appointments
		SET status = $3, updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`, appointmentID, orgID, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *BookingRepository) UpdatePayment(ctx context.Context, orgID, appointmentID, paymentStatus, paymentMethod string, amountPaid float64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments
		SET payment_status = $3,
			payment_method = NULLIF($4, ''),
			amount_paid = $5,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`, appointmentID, orgID, paymentStatus, paymentMethod, amountPaid)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// AttachReview stores a review for a completed appointment. One review per
// appointment; duplicates surface as unique violations.
func (r *BookingRepository) AttachReview(ctx context.Context, orgID, appointmentID string, rating int, comment string) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO reviews (appointment_id, organization_id, rating, comment)
		SELECT a.id, a.organization_id, $3, $4
		FROM appointments a
		WHERE a.id = $1 AND a.organization_id = $2 AND a.status = 'completed'
		RETURNING id
	`, appointmentID, orgID, rating, comment).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BookingRepository) ListByOrg(ctx context.Context, orgID string, from, to time.Time, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 500
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+appointmentJoins+`
		WHERE a.organization_id = $1
			AND ($2::timestamptz IS NULL OR a.start_time >= $2)
			AND ($3::timestamptz IS NULL OR a.start_time < $3)
		ORDER BY a.start_time ASC
		LIMIT $4
	`, orgID, nullableTime(from), nullableTime(to), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

// ListOverlapping returns every non-cancelled booking in the tenant that
// overlaps [start, end), for the advisory availability predicate. Employee
// filtering and self-exclusion happen in the schedule package so the
// predicate stays testable without a database.
func (r *BookingRepository) ListOverlapping(ctx context.Context, orgID string, start, end time.Time) ([]schedule.Booking, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, COALESCE(employee_id::text, ''), status, start_time, end_time
		FROM appointments
		WHERE organization_id = $1
			AND status <> 'cancelled'
			AND start_time < $3
			AND end_time > $2
	`, orgID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bookings []schedule.Booking
	for rows.Next() {
		var b schedule.Booking
		if err := rows.Scan(&b.ID, &b.EmployeeID, &b.Status, &b.Interval.Start, &b.Interval.End); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return bookings, nil
}

func (r *BookingRepository) ListByCustomer(ctx context.Context, orgID, customerID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT`+appointmentColumns+appointmentJoins+`
		WHERE a.organization_id = $1 AND a.customer_id = $2
		ORDER BY a.start_time DESC
		LIMIT $3
	`, orgID, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// IsConflict reports an exclusion-constraint violation (23P01): the slot
// was taken between the advisory check and the write.
func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

// IsForeignKeyViolation reports a reference to a missing row (23503),
// e.g. booking against an unknown customer or service.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
