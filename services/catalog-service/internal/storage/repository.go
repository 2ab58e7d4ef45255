package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lucasvieira/agendou/libs/db"
	"github.com/lucasvieira/agendou/services/catalog-service/internal/model"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetOrganization(ctx context.Context, orgID string) (model.Organization, error) {
	var org model.Organization
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, slug, timezone, COALESCE(logo_url, ''), COALESCE(theme_hex, ''), created_at
		FROM organizations
		WHERE id = $1
	`, orgID).Scan(&org.ID, &org.Name, &org.Slug, &org.Timezone, &org.LogoURL, &org.ThemeHex, &org.CreatedAt)
	return org, err
}

func (r *Repository) GetOrganizationBySlug(ctx context.Context, slug string) (model.Organization, error) {
	var org model.Organization
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, name, slug, timezone, COALESCE(logo_url, ''), COALESCE(theme_hex, ''), created_at
		FROM organizations
		WHERE slug = $1
	`, strings.ToLower(slug)).Scan(&org.ID, &org.Name, &org.Slug, &org.Timezone, &org.LogoURL, &org.ThemeHex, &org.CreatedAt)
	return org, err
}

func (r *Repository) UpdateOrganization(ctx context.Context, org model.Organization) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE organizations
		SET name = $2,
			timezone = $3,
			logo_url = NULLIF($4, ''),
			theme_hex = NULLIF($5, ''),
			updated_at = now()
		WHERE id = $1
	`, org.ID, org.Name, org.Timezone, org.LogoURL, org.ThemeHex)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) CreateService(ctx context.Context, svc *model.Service) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO services (id, organization_id, name, description, duration_minutes, price, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, svc.OrgID, svc.Name, svc.Description, svc.DurationMins, svc.Price, svc.Active)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) UpdateService(ctx context.Context, svc *model.Service) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE services
		SET name = $3, description = $4, duration_minutes = $5, price = $6, active = $7, updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`, svc.ID, svc.OrgID, svc.Name, svc.Description, svc.DurationMins, svc.Price, svc.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) GetService(ctx context.Context, orgID, serviceID string) (model.Service, error) {
	var svc model.Service
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, organization_id::text, name, COALESCE(description, ''), duration_minutes, price, active, created_at
		FROM services
		WHERE id = $1 AND organization_id = $2
	`, serviceID, orgID).Scan(&svc.ID, &svc.OrgID, &svc.Name, &svc.Description, &svc.DurationMins, &svc.Price, &svc.Active, &svc.CreatedAt)
	return svc, err
}

func (r *Repository) ListServices(ctx context.Context, orgID string, activeOnly bool, limit int) ([]model.Service, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, organization_id::text, name, COALESCE(description, ''), duration_minutes, price, active, created_at
		FROM services
		WHERE organization_id = $1 AND ($2 = false OR active)
		ORDER BY name
		LIMIT $3
	`, orgID, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Service
	for rows.Next() {
		var svc model.Service
		if err := rows.Scan(&svc.ID, &svc.OrgID, &svc.Name, &svc.Description, &svc.DurationMins, &svc.Price, &svc.Active, &svc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, svc)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) DeleteService(ctx context.Context, orgID, serviceID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM services
		WHERE id = $1 AND organization_id = $2
	`, serviceID, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) CreateCustomer(ctx context.Context, c *model.Customer) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO customers (id, organization_id, name, phone, email, notes)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''))
	`, id, c.OrgID, c.Name, c.Phone, c.Email, c.Notes)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) UpdateCustomer(ctx context.Context, c *model.Customer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers
		SET name = $3, phone = $4, email = NULLIF($5, ''), notes = NULLIF($6, ''), updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`, c.ID, c.OrgID, c.Name, c.Phone, c.Email, c.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) GetCustomerByPhone(ctx context.Context, orgID, phone string) (model.Customer, error) {
	var c model.Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, organization_id::text, name, phone, COALESCE(email, ''), COALESCE(notes, ''), created_at
		FROM customers
		WHERE organization_id = $1 AND phone = $2
	`, orgID, phone).Scan(&c.ID, &c.OrgID, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.CreatedAt)
	return c, err
}

func (r *Repository) ListCustomers(ctx context.Context, orgID, search string, limit int) ([]model.Customer, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, organization_id::text, name, phone, COALESCE(email, ''), COALESCE(notes, ''), created_at
		FROM customers
		WHERE organization_id = $1
			AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR phone LIKE '%' || $2 || '%')
		ORDER BY name
		LIMIT $3
	`, orgID, search, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.OrgID, &c.Name, &c.Phone, &c.Email, &c.Notes, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) DeleteCustomer(ctx context.Context, orgID, customerID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM customers
		WHERE id = $1 AND organization_id = $2
	`, customerID, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) CreateEmployee(ctx context.Context, e *model.Employee) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO employees (id, organization_id, full_name, role, active)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	`, id, e.OrgID, e.FullName, e.Role, e.Active)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) UpdateEmployee(ctx context.Context, e *model.Employee) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE employees
		SET full_name = $3, role = NULLIF($4, ''), active = $5, updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`, e.ID, e.OrgID, e.FullName, e.Role, e.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) ListEmployees(ctx context.Context, orgID string, activeOnly bool, limit int) ([]model.Employee, error) {
	if limit <= 0 {
		limit = 200
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, organization_id::text, full_name, COALESCE(role, ''), active, created_at
		FROM employees
		WHERE organization_id = $1 AND ($2 = false OR active)
		ORDER BY full_name
		LIMIT $3
	`, orgID, activeOnly, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Employee
	for rows.Next() {
		var e model.Employee
		if err := rows.Scan(&e.ID, &e.OrgID, &e.FullName, &e.Role, &e.Active, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) DeleteEmployee(ctx context.Context, orgID, employeeID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM employees
		WHERE id = $1 AND organization_id = $2
	`, employeeID, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) CreatePromotion(ctx context.Context, p *model.Promotion) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO promotions
			(id, organization_id, name, service_id, discount_type, discount_value, start_date, end_date, active)
		VALUES ($1, $2, $3, NULLIF($4, '')::uuid, $5, $6, $7, $8, $9)
	`, id, p.OrgID, p.Name, p.ServiceID, p.DiscountType, p.DiscountValue, p.StartDate, p.EndDate, p.Active)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) UpdatePromotion(ctx context.Context, p *model.Promotion) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE promotions
		SET name = $3,
			service_id = NULLIF($4, '')::uuid,
			discount_type = $5,
			discount_value = $6,
			start_date = $7,
			end_date = $8,
			active = $9,
			updated_at = now()
		WHERE id = $1 AND organization_id = $2
	`, p.ID, p.OrgID, p.Name, p.ServiceID, p.DiscountType, p.DiscountValue, p.StartDate, p.EndDate, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) ListPromotions(ctx context.Context, orgID string, limit int) ([]model.Promotion, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, organization_id::text, name, COALESCE(service_id::text, ''),
			discount_type, discount_value, start_date, end_date, active, created_at
		FROM promotions
		WHERE organization_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, orgID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Promotion
	for rows.Next() {
		var p model.Promotion
		if err := rows.Scan(&p.ID, &p.OrgID, &p.Name, &p.ServiceID, &p.DiscountType, &p.DiscountValue, &p.StartDate, &p.EndDate, &p.Active, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) DeletePromotion(ctx context.Context, orgID, promotionID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM promotions
		WHERE id = $1 AND organization_id = $2
	`, promotionID, orgID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsForeignKeyViolation reports rows still referencing the target, e.g.
// deleting a service that appointments point at.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}
