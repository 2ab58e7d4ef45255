package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lucasvieira/agendou/services/catalog-service/internal/model"
	"github.com/lucasvieira/agendou/services/catalog-service/internal/storage"
	"github.com/nyaruka/phonenumbers"
)

type Handler struct {
	repo          *storage.Repository
	logger        *slog.Logger
	defaultRegion string
}

func New(repo *storage.Repository, logger *slog.Logger, defaultRegion string) *Handler {
	if defaultRegion == "" {
		defaultRegion = "BR"
	}
	return &Handler{repo: repo, logger: logger, defaultRegion: defaultRegion}
}

func orgIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Org-Id"))
}

func (h *Handler) normalizePhone(raw string) (string, error) {
	num, err := phonenumbers.Parse(raw, h.defaultRegion)
	if err != nil {
		return "", err
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) Organization(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.getOrganization(w, r)
	case http.MethodPut:
		h.updateOrganization(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func organizationBody(org model.Organization) map[string]any {
	return map[string]any{
		"organization_id": org.ID,
		"name":            org.Name,
		"slug":            org.Slug,
		"timezone":        org.Timezone,
		"logo_url":        org.LogoURL,
		"theme_hex":       org.ThemeHex,
	}
}

func (h *Handler) getOrganization(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	org, err := h.repo.GetOrganization(r.Context(), orgID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "organization not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load organization", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, organizationBody(org))
}

func (h *Handler) updateOrganization(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	var req struct {
		Name     string `json:"name"`
		Timezone string `json:"timezone"`
		LogoURL  string `json:"logo_url"`
		ThemeHex string `json:"theme_hex"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Timezone = strings.TrimSpace(req.Timezone)
	if req.Name == "" {
		http.Error(w, "name required", http.StatusBadRequest)
		return
	}
	if req.Timezone == "" {
		req.Timezone = "UTC"
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		http.Error(w, "invalid timezone", http.StatusBadRequest)
		return
	}

	err := h.repo.UpdateOrganization(r.Context(), model.Organization{
		ID:       orgID,
		Name:     req.Name,
		Timezone: req.Timezone,
		LogoURL:  strings.TrimSpace(req.LogoURL),
		ThemeHex: strings.TrimSpace(req.ThemeHex),
	})
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "organization not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update organization", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublicOrganization resolves an organization by slug for the customer
// portal's booking page. No auth headers involved.
func (h *Handler) PublicOrganization(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		http.Error(w, "slug required", http.StatusBadRequest)
		return
	}

	org, err := h.repo.GetOrganizationBySlug(r.Context(), slug)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "organization not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load organization", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, organizationBody(org))
}

type serviceRequest struct {
	ServiceID       string  `json:"service_id"`
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	DurationMinutes int     `json:"duration_minutes"`
	Price           float64 `json:"price"`
	Active          *bool   `json:"active"`
}

func serviceBody(svc model.Service) map[string]any {
	return map[string]any{
		"service_id":       svc.ID,
		"name":             svc.Name,
		"description":      svc.Description,
		"duration_minutes": svc.DurationMins,
		"price":            svc.Price,
		"active":           svc.Active,
	}
}

func (h *Handler) Services(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		activeOnly := r.URL.Query().Get("active") == "true"
		services, err := h.repo.ListServices(r.Context(), orgID, activeOnly, 0)
		if err != nil {
			http.Error(w, "failed to list services", http.StatusInternalServerError)
			return
		}
		out := make([]map[string]any, 0, len(services))
		for _, svc := range services {
			out = append(out, serviceBody(svc))
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost, http.MethodPut:
		var req serviceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || req.DurationMinutes <= 0 || req.Price < 0 {
			http.Error(w, "name, positive duration_minutes and non-negative price required", http.StatusBadRequest)
			return
		}
		active := true
		if req.Active != nil {
			active = *req.Active
		}
		svc := &model.Service{
			ID:           strings.TrimSpace(req.ServiceID),
			OrgID:        orgID,
			Name:         req.Name,
			Description:  strings.TrimSpace(req.Description),
			DurationMins: req.DurationMinutes,
			Price:        req.Price,
			Active:       active,
		}
		if r.Method == http.MethodPost {
			id, err := h.repo.CreateService(r.Context(), svc)
			if err != nil {
				http.Error(w, "failed to create service", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]string{"service_id": id})
			return
		}
		if svc.ID == "" {
			http.Error(w, "service_id required", http.StatusBadRequest)
			return
		}
		if err := h.repo.UpdateService(r.Context(), svc); err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "service not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to update service", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
		if serviceID == "" {
			http.Error(w, "service_id required", http.StatusBadRequest)
			return
		}
		if err := h.repo.DeleteService(r.Context(), orgID, serviceID); err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "service not found", http.StatusNotFound)
				return
			}
			if storage.IsForeignKeyViolation(err) {
				http.Error(w, "service has appointments; deactivate it instead", http.StatusConflict)
				return
			}
			http.Error(w, "failed to delete service", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

type customerRequest struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
	Notes      string `json:"notes"`
}

func customerBody(c model.Customer) map[string]any {
	return map[string]any{
		"customer_id": c.ID,
		"name":        c.Name,
		"phone":       c.Phone,
		"email":       c.Email,
		"notes":       c.Notes,
	}
}

func (h *Handler) Customers(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		search := strings.TrimSpace(r.URL.Query().Get("q"))
		customers, err := h.repo.ListCustomers(r.Context(), orgID, search, 0)
		if err != nil {
			http.Error(w, "failed to list customers", http.StatusInternalServerError)
			return
		}
		out := make([]map[string]any, 0, len(customers))
		for _, c := range customers {
			out = append(out, customerBody(c))
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost, http.MethodPut:
		var req customerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" || strings.TrimSpace(req.Phone) == "" {
			http.Error(w, "name and phone required", http.StatusBadRequest)
			return
		}
		phone, err := h.normalizePhone(req.Phone)
		if err != nil {
			http.Error(w, "invalid phone", http.StatusBadRequest)
			return
		}
		c := &model.Customer{
			ID:    strings.TrimSpace(req.CustomerID),
			OrgID: orgID,
			Name:  req.Name,
			Phone: phone,
			Email: strings.TrimSpace(req.Email),
			Notes: strings.TrimSpace(req.Notes),
		}
		if r.Method == http.MethodPost {
			id, err := h.repo.CreateCustomer(r.Context(), c)
			if err != nil {
				if storage.IsUniqueViolation(err) {
					http.Error(w, "phone already registered", http.StatusConflict)
					return
				}
				http.Error(w, "failed to create customer", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]string{"customer_id": id})
			return
		}
		if c.ID == "" {
			http.Error(w, "customer_id required", http.StatusBadRequest)
			return
		}
		if err := h.repo.UpdateCustomer(r.Context(), c); err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "customer not found", http.StatusNotFound)
				return
			}
			if storage.IsUniqueViolation(err) {
				http.Error(w, "phone already registered", http.StatusConflict)
				return
			}
			http.Error(w, "failed to update customer", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		customerID := strings.TrimSpace(r.URL.Query().Get("customer_id"))
		if customerID == "" {
			http.Error(w, "customer_id required", http.StatusBadRequest)
			return
		}
		if err := h.repo.DeleteCustomer(r.Context(), orgID, customerID); err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "customer not found", http.StatusNotFound)
				return
			}
			if storage.IsForeignKeyViolation(err) {
				http.Error(w, "customer has appointments", http.StatusConflict)
				return
			}
			http.Error(w, "failed to delete customer", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// CustomerByPhone resolves a customer from a normalized phone number.
// The portal uses this after OTP verification.
func (h *Handler) CustomerByPhone(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}
	rawPhone := strings.TrimSpace(r.URL.Query().Get("phone"))
	if rawPhone == "" {
		http.Error(w, "phone required", http.StatusBadRequest)
		return
	}
	phone, err := h.normalizePhone(rawPhone)
	if err != nil {
		http.Error(w, "invalid phone", http.StatusBadRequest)
		return
	}

	c, err := h.repo.GetCustomerByPhone(r.Context(), orgID, phone)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load customer", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, customerBody(c))
}

type employeeRequest struct {
	EmployeeID string `json:"employee_id"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	Active     *bool  `json:"active"`
}

func (h *Handler) Employees(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		activeOnly := r.URL.Query().Get("active") == "true"
		employees, err := h.repo.ListEmployees(r.Context(), orgID, activeOnly, 0)
		if err != nil {
			http.Error(w, "failed to list employees", http.StatusInternalServerError)
			return
		}
		out := make([]map[string]any, 0, len(employees))
		for _, e := range employees {
			out = append(out, map[string]any{
				"employee_id": e.ID,
				"full_name":   e.FullName,
				"role":        e.Role,
				"active":      e.Active,
			})
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost, http.MethodPut:
		var req employeeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		req.FullName = strings.TrimSpace(req.FullName)
		if req.FullName == "" {
			http.Error(w, "full_name required", http.StatusBadRequest)
			return
		}
		active := true
		if req.Active != nil {
			active = *req.Active
		}
		e := &model.Employee{
			ID:       strings.TrimSpace(req.EmployeeID),
			OrgID:    orgID,
			FullName: req.FullName,
			Role:     strings.TrimSpace(req.Role),
			Active:   active,
		}
		if r.Method == http.MethodPost {
			id, err := h.repo.CreateEmployee(r.Context(), e)
			if err != nil {
				http.Error(w, "failed to create employee", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]string{"employee_id": id})
			return
		}
		if e.ID == "" {
			http.Error(w, "employee_id required", http.StatusBadRequest)
			return
		}
		if err := h.repo.UpdateEmployee(r.Context(), e); err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "employee not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to update employee", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		employeeID := strings.TrimSpace(r.URL.Query().Get("employee_id"))
		if employeeID == "" {
			http.Error(w, "employee_id required", http.StatusBadRequest)
			return
		}
		if err := h.repo.DeleteEmployee(r.Context(), orgID, employeeID); err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "employee not found", http.StatusNotFound)
				return
			}
			if storage.IsForeignKeyViolation(err) {
				http.Error(w, "employee has appointments", http.StatusConflict)
				return
			}
			http.Error(w, "failed to delete employee", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}
