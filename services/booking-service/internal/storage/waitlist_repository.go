package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/lucasvieira/agendou/libs/db"
	"github.com/lucasvieira/agendou/services/booking-service/internal/model"
)

type WaitlistRepository struct {
	pool *db.Pool
}

func NewWaitlistRepository(pool *db.Pool) *WaitlistRepository {
	return &WaitlistRepository{pool: pool}
}

func (r *WaitlistRepository) Add(ctx context.Context, entry *model.WaitlistEntry) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO waitlist
			(organization_id, customer_id, service_id, employee_id, desired_date, notes, status)
		VALUES ($1, $2, NULLIF($3, '')::uuid, NULLIF($4, '')::uuid, $5, $6, 'pending')
		RETURNING id
	`, entry.OrgID, entry.CustomerID, entry.ServiceID, entry.EmployeeID,
		entry.DesiredDate, entry.Notes).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *WaitlistRepository) ListByOrg(ctx context.Context, orgID string, limit int) ([]model.WaitlistEntry, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT w.id::text, w.organization_id::text, w.customer_id::text,
			COALESCE(w.service_id::text, ''), COALESCE(w.employee_id::text, ''),
			w.desired_date, COALESCE(w.notes, ''), w.status, w.followed_up_at, w.created_at,
			c.name, c.phone, COALESCE(s.name, ''), COALESCE(e.full_name, '')
		FROM waitlist w
		JOIN customers c ON c.id = w.customer_id
		LEFT JOIN services s ON s.id = w.service_id
		LEFT JOIN employees e ON e.id = w.employee_id
		WHERE w.organization_id = $1
		ORDER BY w.created_at DESC
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.WaitlistEntry
	for rows.Next() {
		var e model.WaitlistEntry
		if err := rows.Scan(
			&e.ID,
			&e.OrgID,
			&e.CustomerID,
			&e.ServiceID,
			&e.EmployeeID,
			&e.DesiredDate,
			&e.Notes,
			&e.Status,
			&e.FollowedUpAt,
			&e.CreatedAt,
			&e.CustomerName,
			&e.CustomerPhone,
			&e.ServiceName,
			&e.EmployeeName,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return entries, nil
}

func (r *WaitlistRepository) GetStatus(ctx context.Context, orgID, entryID string) (string, error) {
	var status string
	err := r.pool.QueryRow(ctx, `
		SELECT status FROM waitlist
		WHERE id = $1 AND organization_id = $2
	`, entryID, orgID).Scan(&status)
	if err != nil {
		return "", err
	}
	return status, nil
}

// UpdateStatus moves an entry from one status to another. The from
// guard keeps concurrent updates from skipping a lifecycle step.
func (r *WaitlistRepository) UpdateStatus(ctx context.Context, orgID, entryID, from, to string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE waitlist
		SET status = $4, updated_at = now()
		WHERE id = $1 AND organization_id = $2 AND status = $3
	`, entryID, orgID, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *WaitlistRepository) Delete(ctx context.Context, orgID, entryID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM waitlist
		WHERE id = $1 AND organization_id = $2
	`, entryID, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// FetchDueFollowups locks pending entries whose desired date has arrived
// and that have not been followed up yet. SKIP LOCKED keeps concurrent
// workers from processing the same entry.
func (r *WaitlistRepository) FetchDueFollowups(ctx context.Context, tx pgx.Tx, asOf time.Time, limit int) ([]model.WaitlistEntry, error) {
	rows, err := tx.Query(ctx, `
		SELECT w.id::text, w.organization_id::text, w.customer_id::text,
			COALESCE(w.service_id::text, ''), COALESCE(w.employee_id::text, ''),
			w.desired_date, COALESCE(w.notes, ''), w.status, w.followed_up_at, w.created_at,
			c.name, c.phone, '', ''
		FROM waitlist w
		JOIN customers c ON c.id = w.customer_id
		WHERE w.status = 'pending'
			AND w.followed_up_at IS NULL
			AND w.desired_date <= $1
		ORDER BY w.desired_date
		LIMIT $2
		FOR UPDATE OF w SKIP LOCKED
	`, asOf, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.WaitlistEntry
	for rows.Next() {
		var e model.WaitlistEntry
		if err := rows.Scan(
			&e.ID,
			&e.OrgID,
			&e.CustomerID,
			&e.ServiceID,
			&e.EmployeeID,
			&e.DesiredDate,
			&e.Notes,
			&e.Status,
			&e.FollowedUpAt,
			&e.CreatedAt,
			&e.CustomerName,
			&e.CustomerPhone,
			&e.ServiceName,
			&e.EmployeeName,
		); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return entries, nil
}

func (r *WaitlistRepository) MarkFollowedUp(ctx context.Context, tx pgx.Tx, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := tx.Exec(ctx, `
		UPDATE waitlist
		SET followed_up_at = now()
		WHERE id = ANY($1::uuid[])
	`, ids)
	return err
}
