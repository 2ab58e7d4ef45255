package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/lucasvieira/agendou/services/relay-service/internal/storage"
	"github.com/lucasvieira/agendou/services/relay-service/internal/whatsapp"
)

type RelayHandler struct {
	sender whatsapp.Sender
	repo   *storage.Repository
	logger *slog.Logger
}

func NewRelayHandler(sender whatsapp.Sender, repo *storage.Repository, logger *slog.Logger) *RelayHandler {
	return &RelayHandler{sender: sender, repo: repo, logger: logger}
}

type sendOTPRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
}

type sendOTPResponse struct {
	Success  bool   `json:"success"`
	Provider string `json:"provider"`
}

// SendOTP pushes a login code to the customer's WhatsApp. Each attempt
// is logged whether or not the provider accepted it.
func (h *RelayHandler) SendOTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	req.Code = strings.TrimSpace(req.Code)
	if req.Phone == "" || req.Code == "" {
		http.Error(w, "phone and code required", http.StatusBadRequest)
		return
	}

	status := "sent"
	sendErr := h.sender.SendCode(r.Context(), req.Phone, req.Code)
	if sendErr != nil {
		status = "failed"
		h.logger.Error("otp delivery failed", "err", sendErr, "provider", h.sender.ProviderID())
	}

	if h.repo != nil {
		if err := h.repo.Insert(r.Context(), storage.Message{
			Channel:   "whatsapp",
			Recipient: req.Phone,
			Kind:      "otp",
			Payload:   map[string]any{"provider": h.sender.ProviderID()},
			Status:    status,
		}); err != nil {
			h.logger.Error("relay log insert failed", "err", err)
		}
	}

	if sendErr != nil {
		writeJSON(w, http.StatusBadGateway, sendOTPResponse{Success: false, Provider: h.sender.ProviderID()})
		return
	}
	writeJSON(w, http.StatusOK, sendOTPResponse{Success: true, Provider: h.sender.ProviderID()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
