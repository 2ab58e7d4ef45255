package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lucasvieira/agendou/services/booking-service/internal/model"
	"github.com/lucasvieira/agendou/services/booking-service/internal/outbox"
	"github.com/lucasvieira/agendou/services/booking-service/internal/schedule"
	"github.com/lucasvieira/agendou/services/booking-service/internal/storage"
)

type BookingHandler struct {
	repo       *storage.BookingRepository
	outboxRepo *outbox.Repository
	logger     *slog.Logger
}

func NewBookingHandler(repo *storage.BookingRepository, outboxRepo *outbox.Repository, logger *slog.Logger) *BookingHandler {
	return &BookingHandler{
		repo:       repo,
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func orgIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Org-Id"))
}

type createAppointmentRequest struct {
	CustomerID  string  `json:"customer_id"`
	ServiceID   string  `json:"service_id"`
	EmployeeID  string  `json:"employee_id"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	PromotionID string  `json:"promotion_id"`
	AmountPaid  float64 `json:"amount_paid"`
	Notes       string  `json:"notes"`
}

type createAppointmentResponse struct {
	AppointmentID string `json:"appointment_id"`
}

type appointmentItem struct {
	AppointmentID string  `json:"appointment_id"`
	CustomerID    string  `json:"customer_id"`
	CustomerName  string  `json:"customer_name"`
	CustomerPhone string  `json:"customer_phone"`
	ServiceID     string  `json:"service_id"`
	ServiceName   string  `json:"service_name"`
	ServicePrice  float64 `json:"service_price"`
	EmployeeID    string  `json:"employee_id,omitempty"`
	EmployeeName  string  `json:"employee_name,omitempty"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	Status        string  `json:"status"`
	PaymentStatus string  `json:"payment_status"`
	PaymentMethod string  `json:"payment_method,omitempty"`
	AmountPaid    float64 `json:"amount_paid"`
	PromotionID   string  `json:"promotion_id,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func toItem(appt model.Appointment) appointmentItem {
	return appointmentItem{
		AppointmentID: appt.ID,
		CustomerID:    appt.CustomerID,
		CustomerName:  appt.CustomerName,
		CustomerPhone: appt.CustomerPhone,
		ServiceID:     appt.ServiceID,
		ServiceName:   appt.ServiceName,
		ServicePrice:  appt.ServicePrice,
		EmployeeID:    appt.EmployeeID,
		EmployeeName:  appt.EmployeeName,
		StartTime:     appt.StartTime.UTC().Format(time.RFC3339),
		EndTime:       appt.EndTime.UTC().Format(time.RFC3339),
		Status:        appt.Status,
		PaymentStatus: appt.PaymentStatus,
		PaymentMethod: appt.PaymentMethod,
		AmountPaid:    appt.AmountPaid,
		PromotionID:   appt.PromotionID,
		Notes:         appt.Notes,
		CreatedAt:     appt.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	var req createAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	req.ServiceID = strings.TrimSpace(req.ServiceID)
	req.EmployeeID = strings.TrimSpace(req.EmployeeID)
	if req.CustomerID == "" || req.ServiceID == "" {
		http.Error(w, "customer_id and service_id required", http.StatusBadRequest)
		return
	}

	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	if !endTime.After(startTime) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	appt := &model.Appointment{
		OrgID:         orgID,
		CustomerID:    req.CustomerID,
		ServiceID:     req.ServiceID,
		EmployeeID:    req.EmployeeID,
		StartTime:     startTime,
		EndTime:       endTime,
		Status:        model.StatusPending,
		PaymentStatus: model.PaymentPending,
		AmountPaid:    req.AmountPaid,
		PromotionID:   strings.TrimSpace(req.PromotionID),
		Notes:         strings.TrimSpace(req.Notes),
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	id, err := h.repo.Create(ctx, tx, appt)
	if err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		if storage.IsForeignKeyViolation(err) {
			http.Error(w, "unknown customer, service or employee", http.StatusBadRequest)
			return
		}
		h.logger.Error("appointment insert failed", "err", err)
		http.Error(w, "failed to create appointment", http.StatusInternalServerError)
		return
	}

	var custName, custPhone, custEmail, svcName string
	var svcPrice float64
	if err := tx.QueryRow(ctx, `
		SELECT c.name, c.phone, COALESCE(c.email, ''), s.name, s.price
		FROM customers c, services s
		WHERE c.id = $1 AND c.organization_id = $3
			AND s.id = $2 AND s.organization_id = $3
	`, appt.CustomerID, appt.ServiceID, orgID).Scan(&custName, &custPhone, &custEmail, &svcName, &svcPrice); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "unknown customer or service", http.StatusBadRequest)
			return
		}
		http.Error(w, "failed to resolve booking details", http.StatusInternalServerError)
		return
	}

	evtPayload, err := json.Marshal(map[string]any{
		"appointment_id":  id,
		"organization_id": orgID,
		"customer_id":     appt.CustomerID,
		"customer_name":   custName,
		"customer_phone":  custPhone,
		"customer_email":  custEmail,
		"service_id":      appt.ServiceID,
		"service_name":    svcName,
		"service_price":   svcPrice,
		"employee_id":     appt.EmployeeID,
		"start_time":      appt.StartTime.UTC().Format(time.RFC3339),
		"end_time":        appt.EndTime.UTC().Format(time.RFC3339),
	})
	if err != nil {
		http.Error(w, "failed to build event payload", http.StatusInternalServerError)
		return
	}
	if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
		AggregateType: "appointment",
		AggregateID:   id,
		EventType:     "booking.appointment.booked.v1",
		Payload:       evtPayload,
	}); err != nil {
		http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			// Deferred exclusion check can also fire at commit.
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(createAppointmentResponse{AppointmentID: id})
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	var from, to time.Time
	if raw := strings.TrimSpace(r.URL.Query().Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		from = t
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}
		to = t
	}
	limit := 500
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 2000 {
			limit = n
		}
	}

	appts, err := h.repo.ListByOrg(r.Context(), orgID, from, to, limit)
	if err != nil {
		h.logger.Error("appointment list failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, toItem(appt))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(items)
}

// ListByCustomer serves the portal's "my appointments" view.
func (h *BookingHandler) ListByCustomer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}
	customerID := strings.TrimSpace(r.URL.Query().Get("customer_id"))
	if customerID == "" {
		http.Error(w, "customer_id required", http.StatusBadRequest)
		return
	}

	appts, err := h.repo.ListByCustomer(r.Context(), orgID, customerID, 100)
	if err != nil {
		h.logger.Error("customer appointment list failed", "err", err)
		http.Error(w, "failed to list appointments", http.StatusInternalServerError)
		return
	}

	items := make([]appointmentItem, 0, len(appts))
	for _, appt := range appts {
		items = append(items, toItem(appt))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(items)
}

type statusRequest struct {
	AppointmentID string `json:"appointment_id"`
	Status        string `json:"status"`
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.Status = strings.TrimSpace(req.Status)
	if req.AppointmentID == "" || req.Status == "" {
		http.Error(w, "appointment_id and status required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, orgID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}

	if appt.Status == req.Status {
		h.writeStatusResponse(w, appt.ID, appt.Status)
		return
	}
	if !schedule.CanTransition(appt.Status, req.Status) {
		http.Error(w, "invalid status transition", http.StatusConflict)
		return
	}

	if err := h.repo.UpdateStatus(ctx, tx, orgID, appt.ID, req.Status); err != nil {
		http.Error(w, "failed to update status", http.StatusInternalServerError)
		return
	}

	if req.Status == model.StatusCancelled {
		cancelPayload, err := json.Marshal(map[string]any{
			"appointment_id":  appt.ID,
			"organization_id": appt.OrgID,
			"customer_id":     appt.CustomerID,
			"service_id":      appt.ServiceID,
			"start_time":      appt.StartTime.UTC().Format(time.RFC3339),
			"end_time":        appt.EndTime.UTC().Format(time.RFC3339),
			"cancelled_at":    time.Now().UTC().Format(time.RFC3339),
		})
		if err != nil {
			http.Error(w, "failed to build cancellation event", http.StatusInternalServerError)
			return
		}
		if err := h.outboxRepo.Insert(ctx, tx, outbox.Event{
			AggregateType: "appointment",
			AggregateID:   appt.ID,
			EventType:     "booking.appointment.cancelled.v1",
			Payload:       cancelPayload,
		}); err != nil {
			http.Error(w, "failed to write outbox event", http.StatusInternalServerError)
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}
	h.writeStatusResponse(w, appt.ID, req.Status)
}

func (h *BookingHandler) writeStatusResponse(w http.ResponseWriter, appointmentID, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"appointment_id": appointmentID,
		"status":         status,
	})
}

type rescheduleRequest struct {
	AppointmentID string `json:"appointment_id"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	EmployeeID    string `json:"employee_id"`
	ServiceID     string `json:"service_id"`
}

func (h *BookingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" {
		http.Error(w, "appointment_id required", http.StatusBadRequest)
		return
	}
	startTime, err := time.Parse(time.RFC3339, req.StartTime)
	if err != nil {
		http.Error(w, "invalid start_time", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse(time.RFC3339, req.EndTime)
	if err != nil {
		http.Error(w, "invalid end_time", http.StatusBadRequest)
		return
	}
	if !endTime.After(startTime) {
		http.Error(w, "end_time must be after start_time", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	tx, err := h.repo.Begin(ctx)
	if err != nil {
		http.Error(w, "db error", http.StatusInternalServerError)
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	appt, err := h.repo.GetForUpdate(ctx, tx, orgID, req.AppointmentID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load appointment", http.StatusInternalServerError)
		return
	}
	if schedule.IsTerminal(appt.Status) {
		http.Error(w, "appointment can no longer be rescheduled", http.StatusConflict)
		return
	}

	if err := h.repo.Reschedule(ctx, tx, orgID, appt.ID, startTime, endTime, strings.TrimSpace(req.EmployeeID), strings.TrimSpace(req.ServiceID)); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to reschedule", http.StatusInternalServerError)
		return
	}

	if err := tx.Commit(ctx); err != nil {
		if storage.IsConflict(err) {
			http.Error(w, "time slot already booked", http.StatusConflict)
			return
		}
		http.Error(w, "failed to commit", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"appointment_id": appt.ID,
		"start_time":     startTime.UTC().Format(time.RFC3339),
		"end_time":       endTime.UTC().Format(time.RFC3339),
	})
}

type paymentRequest struct {
	AppointmentID string  `json:"appointment_id"`
	PaymentStatus string  `json:"payment_status"`
	PaymentMethod string  `json:"payment_method"`
	AmountPaid    float64 `json:"amount_paid"`
}

func validPaymentStatus(s string) bool {
	switch s {
	case model.PaymentPending, model.PaymentPaid, model.PaymentRefunded:
		return true
	default:
		return false
	}
}

func validPaymentMethod(s string) bool {
	switch s {
	case "", "credit_card", "debit_card", "pix", "cash", "online":
		return true
	default:
		return false
	}
}

func (h *BookingHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	req.PaymentStatus = strings.TrimSpace(req.PaymentStatus)
	req.PaymentMethod = strings.TrimSpace(req.PaymentMethod)
	if req.AppointmentID == "" || !validPaymentStatus(req.PaymentStatus) {
		http.Error(w, "appointment_id and a valid payment_status required", http.StatusBadRequest)
		return
	}
	if !validPaymentMethod(req.PaymentMethod) {
		http.Error(w, "invalid payment_method", http.StatusBadRequest)
		return
	}
	if req.AmountPaid < 0 {
		http.Error(w, "amount_paid must not be negative", http.StatusBadRequest)
		return
	}

	if err := h.repo.UpdatePayment(r.Context(), orgID, req.AppointmentID, req.PaymentStatus, req.PaymentMethod, req.AmountPaid); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "appointment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to update payment", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reviewRequest struct {
	AppointmentID string `json:"appointment_id"`
	Rating        int    `json:"rating"`
	Comment       string `json:"comment"`
}

func (h *BookingHandler) AttachReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.AppointmentID = strings.TrimSpace(req.AppointmentID)
	if req.AppointmentID == "" || req.Rating < 1 || req.Rating > 5 {
		http.Error(w, "appointment_id and rating 1-5 required", http.StatusBadRequest)
		return
	}

	id, err := h.repo.AttachReview(r.Context(), orgID, req.AppointmentID, req.Rating, strings.TrimSpace(req.Comment))
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "completed appointment not found", http.StatusNotFound)
			return
		}
		if storage.IsUniqueViolation(err) {
			http.Error(w, "appointment already reviewed", http.StatusConflict)
			return
		}
		http.Error(w, "failed to store review", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"review_id": id})
}
