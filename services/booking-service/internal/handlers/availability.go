package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lucasvieira/agendou/services/booking-service/internal/schedule"
	"github.com/lucasvieira/agendou/services/booking-service/internal/storage"
)

type AvailabilityHandler struct {
	repo   *storage.BookingRepository
	logger *slog.Logger
}

func NewAvailabilityHandler(repo *storage.BookingRepository, logger *slog.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{repo: repo, logger: logger}
}

type availabilityResponse struct {
	Available bool `json:"available"`
}

// Check answers whether [start, end) is free of non-cancelled bookings.
// This is advisory: the exclusion constraint is the authority at write
// time. On storage errors the answer is "not available", never a 500,
// so a degraded database cannot hand out double bookings.
func (h *AvailabilityHandler) Check(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	startTime, err := time.Parse(time.RFC3339, q.Get("start"))
	if err != nil {
		http.Error(w, "invalid start", http.StatusBadRequest)
		return
	}
	endTime, err := time.Parse(time.RFC3339, q.Get("end"))
	if err != nil {
		http.Error(w, "invalid end", http.StatusBadRequest)
		return
	}
	candidate := schedule.Interval{Start: startTime, End: endTime}
	if !candidate.Valid() {
		http.Error(w, "end must be after start", http.StatusBadRequest)
		return
	}
	excludeID := strings.TrimSpace(q.Get("exclude_id"))
	employeeID := strings.TrimSpace(q.Get("employee_id"))

	available := false
	bookings, err := h.repo.ListOverlapping(r.Context(), orgID, startTime, endTime)
	if err != nil {
		h.logger.Error("availability query failed", "err", err)
	} else {
		available = !schedule.Conflicts(candidate, bookings, excludeID, employeeID)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(availabilityResponse{Available: available})
}
