// Package clients wraps the internal HTTP APIs the portal composes:
// catalog for customer lookup, booking for appointments, relay for
// delivering login codes.
package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")

func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout:   5 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

func decodeInto(resp *http.Response, out any) error {
	defer resp.Body.Close()
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusConflict:
		return ErrConflict
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("upstream returned %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type Catalog struct {
	baseURL string
	http    *http.Client
}

func NewCatalog(baseURL string) *Catalog {
	return &Catalog{baseURL: strings.TrimRight(baseURL, "/"), http: newHTTPClient()}
}

type Customer struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email"`
}

func (c *Catalog) CustomerByPhone(ctx context.Context, orgID, phone string) (Customer, error) {
	var out Customer
	u := c.baseURL + "/api/v1/customers/by-phone?phone=" + url.QueryEscape(phone)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("X-Org-Id", orgID)
	resp, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	return out, decodeInto(resp, &out)
}

type Organization struct {
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	Slug           string `json:"slug"`
	Timezone       string `json:"timezone"`
	LogoURL        string `json:"logo_url"`
	ThemeHex       string `json:"theme_hex"`
}

func (c *Catalog) OrganizationBySlug(ctx context.Context, slug string) (Organization, error) {
	var out Organization
	u := c.baseURL + "/api/v1/public/organization?slug=" + url.QueryEscape(slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return out, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	return out, decodeInto(resp, &out)
}

type Booking struct {
	baseURL string
	http    *http.Client
}

func NewBooking(baseURL string) *Booking {
	return &Booking{baseURL: strings.TrimRight(baseURL, "/"), http: newHTTPClient()}
}

type Appointment struct {
	AppointmentID string  `json:"appointment_id"`
	ServiceName   string  `json:"service_name"`
	ServicePrice  float64 `json:"service_price"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Status        string  `json:"status"`
}

func (b *Booking) ListByCustomer(ctx context.Context, orgID, customerID string) ([]Appointment, error) {
	u := b.baseURL + "/api/v1/appointments/by-customer?customer_id=" + url.QueryEscape(customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Org-Id", orgID)
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, err
	}
	var out []Appointment
	return out, decodeInto(resp, &out)
}

type BookRequest struct {
	CustomerID string `json:"customer_id"`
	ServiceID  string `json:"service_id"`
	EmployeeID string `json:"employee_id,omitempty"`
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	Notes      string `json:"notes,omitempty"`
}

func (b *Booking) Book(ctx context.Context, orgID string, br BookRequest) (string, error) {
	raw, err := json.Marshal(br)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/api/v1/appointments", bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Org-Id", orgID)
	resp, err := b.http.Do(req)
	if err != nil {
		return "", err
	}
	var out struct {
		AppointmentID string `json:"appointment_id"`
	}
	if err := decodeInto(resp, &out); err != nil {
		return "", err
	}
	return out.AppointmentID, nil
}

func (b *Booking) CheckAvailability(ctx context.Context, orgID string, start, end, employeeID string) (bool, error) {
	q := url.Values{}
	q.Set("start", start)
	q.Set("end", end)
	if employeeID != "" {
		q.Set("employee_id", employeeID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/v1/availability?"+q.Encode(), nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("X-Org-Id", orgID)
	resp, err := b.http.Do(req)
	if err != nil {
		return false, err
	}
	var out struct {
		Available bool `json:"available"`
	}
	if err := decodeInto(resp, &out); err != nil {
		return false, err
	}
	return out.Available, nil
}

type Relay struct {
	baseURL string
	http    *http.Client
}

func NewRelay(baseURL string) *Relay {
	return &Relay{baseURL: strings.TrimRight(baseURL, "/"), http: newHTTPClient()}
}

// SendOTP asks the relay to deliver a login code over WhatsApp. Callers
// treat failures as soft: the code is already stored, so the customer
// can retry the request.
func (r *Relay) SendOTP(ctx context.Context, phone, code string) error {
	raw, err := json.Marshal(map[string]string{
		"phone": phone,
		"code":  code,
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/v1/send-otp", bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := r.http.Do(req)
	if err != nil {
		return err
	}
	return decodeInto(resp, nil)
}
