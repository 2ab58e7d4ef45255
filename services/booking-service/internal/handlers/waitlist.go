package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lucasvieira/agendou/services/booking-service/internal/model"
	"github.com/lucasvieira/agendou/services/booking-service/internal/schedule"
	"github.com/lucasvieira/agendou/services/booking-service/internal/storage"
)

type WaitlistHandler struct {
	repo   *storage.WaitlistRepository
	logger *slog.Logger
}

func NewWaitlistHandler(repo *storage.WaitlistRepository, logger *slog.Logger) *WaitlistHandler {
	return &WaitlistHandler{repo: repo, logger: logger}
}

type waitlistAddRequest struct {
	CustomerID  string `json:"customer_id"`
	ServiceID   string `json:"service_id"`
	EmployeeID  string `json:"employee_id"`
	DesiredDate string `json:"desired_date"`
	Notes       string `json:"notes"`
}

type waitlistItem struct {
	EntryID       string `json:"entry_id"`
	CustomerID    string `json:"customer_id"`
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	ServiceID     string `json:"service_id,omitempty"`
	ServiceName   string `json:"service_name,omitempty"`
	EmployeeID    string `json:"employee_id,omitempty"`
	EmployeeName  string `json:"employee_name,omitempty"`
	DesiredDate   string `json:"desired_date"`
	Notes         string `json:"notes,omitempty"`
	Status        string `json:"status"`
	FollowedUpAt  string `json:"followed_up_at,omitempty"`
	CreatedAt     string `json:"created_at"`
}

// Collection serves the waitlist resource: POST adds an entry, GET lists
// the tenant's entries newest first.
func (h *WaitlistHandler) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.add(w, r)
	case http.MethodGet:
		h.list(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *WaitlistHandler) add(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	var req waitlistAddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.CustomerID = strings.TrimSpace(req.CustomerID)
	if req.CustomerID == "" {
		http.Error(w, "customer_id required", http.StatusBadRequest)
		return
	}
	desired, err := time.Parse("2006-01-02", strings.TrimSpace(req.DesiredDate))
	if err != nil {
		http.Error(w, "invalid desired_date, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	id, err := h.repo.Add(r.Context(), &model.WaitlistEntry{
		OrgID:       orgID,
		CustomerID:  req.CustomerID,
		ServiceID:   strings.TrimSpace(req.ServiceID),
		EmployeeID:  strings.TrimSpace(req.EmployeeID),
		DesiredDate: desired,
		Notes:       strings.TrimSpace(req.Notes),
	})
	if err != nil {
		h.logger.Error("waitlist insert failed", "err", err)
		http.Error(w, "failed to add waitlist entry", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]string{"entry_id": id})
}

func (h *WaitlistHandler) list(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	entries, err := h.repo.ListByOrg(r.Context(), orgID, 0)
	if err != nil {
		h.logger.Error("waitlist list failed", "err", err)
		http.Error(w, "failed to list waitlist", http.StatusInternalServerError)
		return
	}

	items := make([]waitlistItem, 0, len(entries))
	for _, e := range entries {
		item := waitlistItem{
			EntryID:       e.ID,
			CustomerID:    e.CustomerID,
			CustomerName:  e.CustomerName,
			CustomerPhone: e.CustomerPhone,
			ServiceID:     e.ServiceID,
			ServiceName:   e.ServiceName,
			EmployeeID:    e.EmployeeID,
			EmployeeName:  e.EmployeeName,
			DesiredDate:   e.DesiredDate.Format("2006-01-02"),
			Notes:         e.Notes,
			Status:        e.Status,
			CreatedAt:     e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if e.FollowedUpAt != nil {
			item.FollowedUpAt = e.FollowedUpAt.UTC().Format(time.RFC3339)
		}
		items = append(items, item)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(items)
}

type waitlistStatusRequest struct {
	EntryID string `json:"entry_id"`
	Status  string `json:"status"`
}

func validWaitlistStatus(s string) bool {
	switch s {
	case model.WaitlistPending, model.WaitlistContacted, model.WaitlistScheduled, model.WaitlistCancelled:
		return true
	default:
		return false
	}
}

func (h *WaitlistHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	var req waitlistStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.EntryID = strings.TrimSpace(req.EntryID)
	req.Status = strings.TrimSpace(req.Status)
	if req.EntryID == "" || !validWaitlistStatus(req.Status) {
		http.Error(w, "entry_id and a valid status required", http.StatusBadRequest)
		return
	}

	current, err := h.repo.GetStatus(r.Context(), orgID, req.EntryID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "waitlist entry not found", http.StatusNotFound)
			return
		}
		h.logger.Error("waitlist status lookup failed", "err", err)
		http.Error(w, "failed to update waitlist entry", http.StatusInternalServerError)
		return
	}
	if current == req.Status {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if !schedule.CanTransitionWaitlist(current, req.Status) {
		http.Error(w, "invalid status transition", http.StatusConflict)
		return
	}

	if err := h.repo.UpdateStatus(r.Context(), orgID, req.EntryID, current, req.Status); err != nil {
		if storage.IsNotFound(err) {
			// The row moved under us; the guard refused the stale write.
			http.Error(w, "invalid status transition", http.StatusConflict)
			return
		}
		h.logger.Error("waitlist status update failed", "err", err)
		http.Error(w, "failed to update waitlist entry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *WaitlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	entryID := strings.TrimSpace(r.URL.Query().Get("entry_id"))
	if entryID == "" {
		var req struct {
			EntryID string `json:"entry_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			entryID = strings.TrimSpace(req.EntryID)
		}
	}
	if entryID == "" {
		http.Error(w, "entry_id required", http.StatusBadRequest)
		return
	}

	if err := h.repo.Delete(r.Context(), orgID, entryID); err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "waitlist entry not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to remove waitlist entry", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
