package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/lucasvieira/agendou/services/catalog-service/internal/model"
	"github.com/lucasvieira/agendou/services/catalog-service/internal/pricing"
	"github.com/lucasvieira/agendou/services/catalog-service/internal/storage"
)

type promotionRequest struct {
	PromotionID   string  `json:"promotion_id"`
	Name          string  `json:"name"`
	ServiceID     string  `json:"service_id"`
	DiscountType  string  `json:"discount_type"`
	DiscountValue float64 `json:"discount_value"`
	StartDate     string  `json:"start_date"`
	EndDate       string  `json:"end_date"`
	Active        *bool   `json:"active"`
}

func promotionBody(p model.Promotion) map[string]any {
	body := map[string]any{
		"promotion_id":   p.ID,
		"name":           p.Name,
		"service_id":     p.ServiceID,
		"discount_type":  p.DiscountType,
		"discount_value": p.DiscountValue,
		"start_date":     p.StartDate.Format("2006-01-02"),
		"active":         p.Active,
	}
	if p.EndDate != nil {
		body["end_date"] = p.EndDate.Format("2006-01-02")
	}
	return body
}

func parsePromotion(req promotionRequest, orgID string) (*model.Promotion, string) {
	req.Name = strings.TrimSpace(req.Name)
	req.DiscountType = strings.TrimSpace(req.DiscountType)
	if req.Name == "" {
		return nil, "name required"
	}
	if req.DiscountType != model.DiscountPercentage && req.DiscountType != model.DiscountFixed {
		return nil, "discount_type must be percentage or fixed"
	}
	if req.DiscountValue <= 0 {
		return nil, "discount_value must be positive"
	}
	if req.DiscountType == model.DiscountPercentage && req.DiscountValue > 100 {
		return nil, "percentage discount cannot exceed 100"
	}
	start, err := time.Parse("2006-01-02", strings.TrimSpace(req.StartDate))
	if err != nil {
		return nil, "invalid start_date, want YYYY-MM-DD"
	}
	var end *time.Time
	if raw := strings.TrimSpace(req.EndDate); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, "invalid end_date, want YYYY-MM-DD"
		}
		if t.Before(start) {
			return nil, "end_date before start_date"
		}
		// Promotions run through the whole last day.
		t = t.Add(24*time.Hour - time.Second)
		end = &t
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}
	return &model.Promotion{
		ID:            strings.TrimSpace(req.PromotionID),
		OrgID:         orgID,
		Name:          req.Name,
		ServiceID:     strings.TrimSpace(req.ServiceID),
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		StartDate:     start,
		EndDate:       end,
		Active:        active,
	}, ""
}

func (h *Handler) Promotions(w http.ResponseWriter, r *http.Request) {
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}

	switch r.Method {
	case http.MethodGet:
		promos, err := h.repo.ListPromotions(r.Context(), orgID, 0)
		if err != nil {
			http.Error(w, "failed to list promotions", http.StatusInternalServerError)
			return
		}
		out := make([]map[string]any, 0, len(promos))
		for _, p := range promos {
			out = append(out, promotionBody(p))
		}
		writeJSON(w, http.StatusOK, out)

	case http.MethodPost, http.MethodPut:
		var req promotionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		promo, msg := parsePromotion(req, orgID)
		if msg != "" {
			http.Error(w, msg, http.StatusBadRequest)
			return
		}
		if r.Method == http.MethodPost {
			id, err := h.repo.CreatePromotion(r.Context(), promo)
			if err != nil {
				http.Error(w, "failed to create promotion", http.StatusInternalServerError)
				return
			}
			writeJSON(w, http.StatusCreated, map[string]string{"promotion_id": id})
			return
		}
		if promo.ID == "" {
			http.Error(w, "promotion_id required", http.StatusBadRequest)
			return
		}
		if err := h.repo.UpdatePromotion(r.Context(), promo); err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "promotion not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to update promotion", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	case http.MethodDelete:
		promotionID := strings.TrimSpace(r.URL.Query().Get("promotion_id"))
		if promotionID == "" {
			http.Error(w, "promotion_id required", http.StatusBadRequest)
			return
		}
		if err := h.repo.DeletePromotion(r.Context(), orgID, promotionID); err != nil {
			if storage.IsNotFound(err) {
				http.Error(w, "promotion not found", http.StatusNotFound)
				return
			}
			http.Error(w, "failed to delete promotion", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)

	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// EffectivePrice quotes a service's price after the best applicable
// promotion, so booking surfaces show what the customer will pay.
func (h *Handler) EffectivePrice(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	orgID := orgIDFromHeader(r)
	if orgID == "" {
		http.Error(w, "missing X-Org-Id", http.StatusBadRequest)
		return
	}
	serviceID := strings.TrimSpace(r.URL.Query().Get("service_id"))
	if serviceID == "" {
		http.Error(w, "service_id required", http.StatusBadRequest)
		return
	}

	svc, err := h.repo.GetService(r.Context(), orgID, serviceID)
	if err != nil {
		if storage.IsNotFound(err) {
			http.Error(w, "service not found", http.StatusNotFound)
			return
		}
		http.Error(w, "failed to load service", http.StatusInternalServerError)
		return
	}
	promos, err := h.repo.ListPromotions(r.Context(), orgID, 0)
	if err != nil {
		http.Error(w, "failed to load promotions", http.StatusInternalServerError)
		return
	}

	final, applied := pricing.EffectivePrice(svc.Price, svc.ID, promos, time.Now().UTC())
	body := map[string]any{
		"service_id":  svc.ID,
		"list_price":  svc.Price,
		"final_price": final,
	}
	if applied != nil {
		body["promotion_id"] = applied.ID
		body["promotion_name"] = applied.Name
	}
	writeJSON(w, http.StatusOK, body)
}
