package handlers

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/lucasvieira/agendou/services/booking-service/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCreateRejectsMissingOrg(t *testing.T) {
	h := NewBookingHandler(nil, nil, discardLogger())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateRejectsInvertedInterval(t *testing.T) {
	h := NewBookingHandler(nil, nil, discardLogger())
	body := `{
		"customer_id": "c1",
		"service_id": "s1",
		"start_time": "2026-08-12T15:00:00Z",
		"end_time": "2026-08-12T14:00:00Z"
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(body))
	req.Header.Set("X-Org-Id", "org-1")
	rec := httptest.NewRecorder()

	h.Create(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreateRejectsWrongMethod(t *testing.T) {
	h := NewBookingHandler(nil, nil, discardLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/appointments/status", nil)
	rec := httptest.NewRecorder()

	h.UpdateStatus(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestAvailabilityRejectsInvalidRange(t *testing.T) {
	h := NewAvailabilityHandler(nil, discardLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/availability?start=2026-08-12T15:00:00Z&end=2026-08-12T15:00:00Z", nil)
	req.Header.Set("X-Org-Id", "org-1")
	rec := httptest.NewRecorder()

	h.Check(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for zero-length interval, got %d", rec.Code)
	}
}

func TestWaitlistAddRejectsBadDate(t *testing.T) {
	h := NewWaitlistHandler(nil, discardLogger())
	body := `{"customer_id": "c1", "desired_date": "12/08/2026"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/waitlist", strings.NewReader(body))
	req.Header.Set("X-Org-Id", "org-1")
	rec := httptest.NewRecorder()

	h.Collection(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestPaymentValidation(t *testing.T) {
	for _, s := range []string{model.PaymentPending, model.PaymentPaid, model.PaymentRefunded} {
		if !validPaymentStatus(s) {
			t.Fatalf("status %q should be valid", s)
		}
	}
	if validPaymentStatus("charged") {
		t.Fatal("unknown payment status accepted")
	}
	if !validPaymentMethod("pix") || !validPaymentMethod("") {
		t.Fatal("expected pix and empty method to be valid")
	}
	if validPaymentMethod("barter") {
		t.Fatal("unknown payment method accepted")
	}
}

func TestToItemFormatsRFC3339(t *testing.T) {
	appt := model.Appointment{
		ID:        "a1",
		StartTime: time.Date(2026, 8, 12, 14, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 8, 12, 15, 0, 0, 0, time.UTC),
		CreatedAt: time.Date(2026, 8, 1, 9, 30, 0, 0, time.UTC),
	}
	item := toItem(appt)
	if item.StartTime != "2026-08-12T14:00:00Z" {
		t.Fatalf("start_time = %q", item.StartTime)
	}
	if item.EndTime != "2026-08-12T15:00:00Z" {
		t.Fatalf("end_time = %q", item.EndTime)
	}
	if item.CreatedAt != "2026-08-01T09:30:00Z" {
		t.Fatalf("created_at = %q", item.CreatedAt)
	}
}
