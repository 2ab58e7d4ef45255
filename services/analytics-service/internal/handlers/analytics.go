package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lucasvieira/agendou/services/analytics-service/internal/holidays"
	"github.com/lucasvieira/agendou/services/analytics-service/internal/stats"
	"github.com/lucasvieira/agendou/services/analytics-service/internal/storage"
)

type Handler struct {
	repo   *storage.Repository
	logger *slog.Logger
}

func New(repo *storage.Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

func orgIDFromHeader(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Org-Id"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// orgLocation resolves the tenant's timezone, falling back to UTC so a
// missing organization row degrades display grouping, not the request.
func (h *Handler) orgLocation(r *http.Request, orgID string) *time.Location {
	tz, err := h.repo.OrgTimezone(r.Context(), orgID)
	if err != nil {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	loc := h.orgLocation(r, orgID)
	now := time.Now().In(loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	monthEnd := monthStart.AddDate(0, 1, 0)

	appts, err := h.repo.FetchRange(r.Context(), orgID, monthStart, monthEnd)
	if err != nil {
		h.logger.Error("dashboard query failed", "err", err)
		http.Error(w, "failed to load dashboard", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats.Derive(appts, now))
}

func (h *Handler) WeekChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	loc := h.orgLocation(r, orgID)
	now := time.Now().In(loc)
	windowStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc).AddDate(0, 0, -6)

	appts, err := h.repo.FetchRange(r.Context(), orgID, windowStart, now.Add(24*time.Hour))
	if err != nil {
		h.logger.Error("week chart query failed", "err", err)
		http.Error(w, "failed to load week chart", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats.DayBuckets(appts, now, 7, loc))
}

func (h *Handler) Calendar(w http.ResponseWriter, r *http.Request) {
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
	from, err := time.Parse(time.RFC3339, q.Get("from"))
	if err != nil {
		http.Error(w, "invalid from", http.StatusBadRequest)
		return
	}
	to, err := time.Parse(time.RFC3339, q.Get("to"))
	if err != nil {
		http.Error(w, "invalid to", http.StatusBadRequest)
		return
	}
	if !to.After(from) {
		http.Error(w, "to must be after from", http.StatusBadRequest)
		return
	}

	loc := h.orgLocation(r, orgID)
	appts, err := h.repo.FetchRange(r.Context(), orgID, from, to)
	if err != nil {
		h.logger.Error("calendar query failed", "err", err)
		http.Error(w, "failed to load calendar", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"events":   stats.CalendarEvents(appts, loc),
		"holidays": holidays.Between(from.In(loc).Format("2006-01-02"), to.In(loc).Format("2006-01-02")),
	})
}

func (h *Handler) MonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	months := 6
	if raw := strings.TrimSpace(r.URL.Query().Get("months")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 24 {
			months = n
		}
	}

	out, err := h.repo.MonthlyRevenue(r.Context(), orgID, months)
	if err != nil {
		h.logger.Error("monthly revenue query failed", "err", err)
		http.Error(w, "failed to load revenue", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []storage.MonthRevenue{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) TopServices(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	out, err := h.repo.TopServices(r.Context(), orgID, 5)
	if err != nil {
		h.logger.Error("top services query failed", "err", err)
		http.Error(w, "failed to load top services", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []storage.ServiceRank{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) PeakHours(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	tz, err := h.repo.OrgTimezone(r.Context(), orgID)
	if err != nil {
		tz = "UTC"
	}
	out, err := h.repo.PeakHours(r.Context(), orgID, tz)
	if err != nil {
		h.logger.Error("peak hours query failed", "err", err)
		http.Error(w, "failed to load peak hours", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []storage.HourCount{}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) Totals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	out, err := h.repo.Totals(r.Context(), orgID)
	if err != nil {
		h.logger.Error("totals query failed", "err", err)
		http.Error(w, "failed to load totals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) DailyStats(w http.ResponseWriter, r *http.Request) {
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
	from, err := time.Parse("2006-01-02", q.Get("from"))
	if err != nil {
		http.Error(w, "invalid from, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	to, err := time.Parse("2006-01-02", q.Get("to"))
	if err != nil {
		http.Error(w, "invalid to, want YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	if to.Before(from) {
		http.Error(w, "to before from", http.StatusBadRequest)
		return
	}

	out, err := h.repo.DailyStats(r.Context(), orgID, from, to)
	if err != nil {
		h.logger.Error("daily stats query failed", "err", err)
		http.Error(w, "failed to load daily stats", http.StatusInternalServerError)
		return
	}
	if out == nil {
		out = []storage.DailyStat{}
	}
	writeJSON(w, http.StatusOK, out)
}
