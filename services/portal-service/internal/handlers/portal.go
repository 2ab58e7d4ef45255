package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lucasvieira/agendou/libs/auth"
	"github.com/lucasvieira/agendou/services/portal-service/internal/clients"
	"github.com/lucasvieira/agendou/services/portal-service/internal/otp"
	"github.com/nyaruka/phonenumbers"
)

// codeStore is the slice of the OTP store the login flow needs.
type codeStore interface {
	Issue(ctx context.Context, orgID, phone, code string) error
	Verify(ctx context.Context, orgID, phone, code string) (bool, error)
}

type Handler struct {
	store         codeStore
	catalog       *clients.Catalog
	booking       *clients.Booking
	relay         *clients.Relay
	logger        *slog.Logger
	jwtSecret     string
	tokenTTL      time.Duration
	defaultRegion string
}

type Config struct {
	JWTSecret     string
	TokenTTL      time.Duration
	DefaultRegion string
}

func New(store codeStore, catalog *clients.Catalog, booking *clients.Booking, relay *clients.Relay, logger *slog.Logger, cfg Config) *Handler {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.DefaultRegion == "" {
		cfg.DefaultRegion = "BR"
	}
	return &Handler{
		store:         store,
		catalog:       catalog,
		booking:       booking,
		relay:         relay,
		logger:        logger,
		jwtSecret:     cfg.JWTSecret,
		tokenTTL:      cfg.TokenTTL,
		defaultRegion: cfg.DefaultRegion,
	}
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

// portalClaims authenticates a portal bearer token. Only tokens carrying
// a customer id are accepted here; dashboard tokens do not grant portal
// access.
func (h *Handler) portalClaims(r *http.Request) (*auth.Claims, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, auth.ErrInvalidToken
	}
	claims, err := auth.ParseAndVerifyHS256(strings.TrimPrefix(header, "Bearer "), h.jwtSecret)
	if err != nil {
		return nil, err
	}
	if claims.CustomerID == "" || claims.OrgID == "" {
		return nil, auth.ErrInvalidToken
	}
	return claims, nil
}

type otpRequest struct {
	Slug  string `json:"slug"`
	Phone string `json:"phone"`
}

// resolveOrg turns the tenant slug a login request names into the
// organization record. The portal never trusts a client-supplied
// organization id.
func (h *Handler) resolveOrg(ctx context.Context, slug string) (clients.Organization, bool, error) {
	org, err := h.catalog.OrganizationBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			return org, false, nil
		}
		return org, false, err
	}
	return org, true, nil
}

// RequestOTP issues a login code for a known customer and hands it to
// the relay. The response is 204 regardless of relay delivery: the code
// is stored, and a retry just re-requests it.
func (h *Handler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req otpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Slug = strings.TrimSpace(req.Slug)
	if req.Slug == "" || strings.TrimSpace(req.Phone) == "" {
		http.Error(w, "slug and phone required", http.StatusBadRequest)
		return
	}
	phone, err := h.normalizePhone(req.Phone)
	if err != nil {
		http.Error(w, "invalid phone", http.StatusBadRequest)
		return
	}

	org, found, err := h.resolveOrg(r.Context(), req.Slug)
	if err != nil {
		h.logger.Error("organization lookup failed", "err", err)
		http.Error(w, "failed to look up organization", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "organization not found", http.StatusNotFound)
		return
	}

	if _, err := h.catalog.CustomerByPhone(r.Context(), org.OrganizationID, phone); err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			http.Error(w, "customer not found", http.StatusNotFound)
			return
		}
		h.logger.Error("customer lookup failed", "err", err)
		http.Error(w, "failed to look up customer", http.StatusInternalServerError)
		return
	}

	code, err := otp.GenerateCode()
	if err != nil {
		http.Error(w, "failed to generate code", http.StatusInternalServerError)
		return
	}
	if err := h.store.Issue(r.Context(), org.OrganizationID, phone, code); err != nil {
		h.logger.Error("otp store failed", "err", err)
		http.Error(w, "failed to issue code", http.StatusInternalServerError)
		return
	}
	if err := h.relay.SendOTP(r.Context(), phone, code); err != nil {
		h.logger.Warn("otp relay delivery failed", "err", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type otpVerifyRequest struct {
	Slug  string `json:"slug"`
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

func (h *Handler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req otpVerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Slug = strings.TrimSpace(req.Slug)
	req.Code = strings.TrimSpace(req.Code)
	if req.Slug == "" || strings.TrimSpace(req.Phone) == "" || req.Code == "" {
		http.Error(w, "slug, phone and code required", http.StatusBadRequest)
		return
	}
	phone, err := h.normalizePhone(req.Phone)
	if err != nil {
		http.Error(w, "invalid phone", http.StatusBadRequest)
		return
	}

	org, found, err := h.resolveOrg(r.Context(), req.Slug)
	if err != nil {
		h.logger.Error("organization lookup failed", "err", err)
		http.Error(w, "failed to look up organization", http.StatusInternalServerError)
		return
	}
	if !found {
		http.Error(w, "organization not found", http.StatusNotFound)
		return
	}

	ok, err := h.store.Verify(r.Context(), org.OrganizationID, phone, req.Code)
	if err != nil {
		h.logger.Error("otp verify failed", "err", err)
		http.Error(w, "failed to verify code", http.StatusInternalServerError)
		return
	}
	if !ok {
		http.Error(w, "invalid or expired code", http.StatusUnauthorized)
		return
	}

	customer, err := h.catalog.CustomerByPhone(r.Context(), org.OrganizationID, phone)
	if err != nil {
		h.logger.Error("customer lookup failed after verify", "err", err)
		http.Error(w, "failed to look up customer", http.StatusInternalServerError)
		return
	}

	now := time.Now()
	token, err := auth.SignHS256(auth.Claims{
		Sub:        customer.CustomerID,
		OrgID:      org.OrganizationID,
		Role:       "customer",
		CustomerID: customer.CustomerID,
		Iat:        now.Unix(),
		Exp:        now.Add(h.tokenTTL).Unix(),
	}, h.jwtSecret)
	if err != nil {
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"token": token,
		"customer": map[string]string{
			"customer_id": customer.CustomerID,
			"name":        customer.Name,
			"phone":       customer.Phone,
		},
	})
}

func (h *Handler) Appointments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, err := h.portalClaims(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	appts, err := h.booking.ListByCustomer(r.Context(), claims.OrgID, claims.CustomerID)
	if err != nil {
		h.logger.Error("portal appointment list failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}
	if appts == nil {
		appts = []clients.Appointment{}
	}
	writeJSON(w, http.StatusOK, appts)
}

type bookRequest struct {
	ServiceID  string `json:"service_id"`
	EmployeeID string `json:"employee_id"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Notes      string `json:"notes"`
}

func (h *Handler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, err := h.portalClaims(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	if req.ServiceID == "" || req.StartTime == "" || req.EndTime == "" {
		http.Error(w, "service_id, start_time and end_time required", http.StatusBadRequest)
		return
	}

	id, err := h.booking.Book(r.Context(), claims.OrgID, clients.BookRequest{
		CustomerID: claims.CustomerID,
		ServiceID:  req.ServiceID,
		EmployeeID: strings.TrimSpace(req.EmployeeID),
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
		Notes:      strings.TrimSpace(req.Notes),
	})
	if err != nil {
		if errors.Is(err, clients.ErrConflict) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		h.logger.Error("portal booking failed", "err", err)
		http.Error(w, "failed to book appointment", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"appointment_id": id})
}

// Availability lets the portal's booking page probe a slot before
// submitting. Errors surface as unavailable, matching the booking
// service's own fail-closed stance.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, err := h.portalClaims(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	q := r.URL.Query()
	start := strings.TrimSpace(q.Get("start"))
	end := strings.TrimSpace(q.Get("end"))
	if start == "" || end == "" {
		http.Error(w, "start and end required", http.StatusBadRequest)
		return
	}

	available, err := h.booking.CheckAvailability(r.Context(), claims.OrgID, start, end, strings.TrimSpace(q.Get("employee_id")))
	if err != nil {
		h.logger.Error("portal availability check failed", "err", err)
		available = false
	}
	writeJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// Organization exposes the tenant's public branding by slug for the
// portal landing page.
func (h *Handler) Organization(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	slug := strings.TrimSpace(r.URL.Query().Get("slug"))
	if slug == "" {
		http.Error(w, "slug required", http.StatusBadRequest)
		return
	}

	org, err := h.catalog.OrganizationBySlug(r.Context(), slug)
	if err != nil {
		if errors.Is(err, clients.ErrNotFound) {
			http.Error(w, "organization not found", http.StatusNotFound)
			return
		}
		h.logger.Error("organization lookup failed", "err", err)
		http.Error(w, "failed to load organization", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, org)
}
