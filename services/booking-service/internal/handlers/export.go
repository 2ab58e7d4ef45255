package handlers

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/lucasvieira/agendou/services/booking-service/internal/export"
	"github.com/lucasvieira/agendou/services/booking-service/internal/storage"
)

type ExportHandler struct {
	repo   *storage.BookingRepository
	logger *slog.Logger
}

func NewExportHandler(repo *storage.BookingRepository, logger *slog.Logger) *ExportHandler {
	return &ExportHandler{repo: repo, logger: logger}
}

// AppointmentsCSV streams the tenant's appointments as a CSV download.
// Optional from/to bound the range; tz localizes date and time columns.
func (h *ExportHandler) AppointmentsCSV(w http.ResponseWriter, r *http.Request) {
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
	var from, to time.Time
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid from", http.StatusBadRequest)
			return
		}
		from = t
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			http.Error(w, "invalid to", http.StatusBadRequest)
			return
		}
		to = t
	}

	loc := time.UTC
	if tz := strings.TrimSpace(q.Get("tz")); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			http.Error(w, "invalid tz", http.StatusBadRequest)
			return
		}
		loc = l
	}

	appts, err := h.repo.ListByOrg(r.Context(), orgID, from, to, 2000)
	if err != nil {
		h.logger.Error("appointment export query failed", "err", err)
		http.Error(w, "failed to export appointments", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="appointments.csv"`)
	w.WriteHeader(http.StatusOK)
	if err := export.WriteCSV(w, appts, loc); err != nil {
		h.logger.Error("csv write failed", "err", err)
	}
}
