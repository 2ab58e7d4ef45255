package handlers

import (
	"io"
	"log/slog"
	"testing"
)

func TestParsePromotionValidation(t *testing.T) {
	base := promotionRequest{
		Name:          "Spring special",
		DiscountType:  "percentage",
		DiscountValue: 15,
		StartDate:     "2026-03-01",
	}

	if promo, msg := parsePromotion(base, "org-1"); msg != "" || promo == nil {
		t.Fatalf("valid request rejected: %q", msg)
	}

	tests := []struct {
		name   string
		mutate func(*promotionRequest)
	}{
		{"empty name", func(r *promotionRequest) { r.Name = " " }},
		{"bad discount type", func(r *promotionRequest) { r.DiscountType = "bogo" }},
		{"zero value", func(r *promotionRequest) { r.DiscountValue = 0 }},
		{"percentage over 100", func(r *promotionRequest) { r.DiscountValue = 120 }},
		{"bad start date", func(r *promotionRequest) { r.StartDate = "01/03/2026" }},
		{"end before start", func(r *promotionRequest) { r.EndDate = "2026-02-01" }},
	}
	for _, tt := range tests {
		req := base
		tt.mutate(&req)
		if _, msg := parsePromotion(req, "org-1"); msg == "" {
			t.Fatalf("%s: expected rejection", tt.name)
		}
	}
}

func TestParsePromotionEndDateInclusive(t *testing.T) {
	req := promotionRequest{
		Name:          "Week deal",
		DiscountType:  "fixed",
		DiscountValue: 10,
		StartDate:     "2026-03-01",
		EndDate:       "2026-03-07",
	}
	promo, msg := parsePromotion(req, "org-1")
	if msg != "" {
		t.Fatalf("unexpected rejection: %q", msg)
	}
	if promo.EndDate == nil {
		t.Fatal("expected end date")
	}
	if promo.EndDate.Day() != 7 || promo.EndDate.Hour() != 23 {
		t.Fatalf("end date should cover the whole last day, got %v", promo.EndDate)
	}
}

func TestNormalizePhone(t *testing.T) {
	h := New(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), "BR")

	got, err := h.normalizePhone("(11) 99999-0000")
	if err != nil {
		t.Fatalf("normalizePhone failed: %v", err)
	}
	if got != "+5511999990000" {
		t.Fatalf("normalized = %q, want +5511999990000", got)
	}

	if _, err := h.normalizePhone("not a phone"); err == nil {
		t.Fatal("expected error for garbage input")
	}
}
