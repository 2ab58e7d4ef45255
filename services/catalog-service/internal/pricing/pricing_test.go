package pricing

import (
	"testing"
	"time"

	"github.com/lucasvieira/agendou/services/catalog-service/internal/model"
)

var now = time.Date(2026, 8, 12, 12, 0, 0, 0, time.UTC)

func activePromo(discountType string, value float64) model.Promotion {
	return model.Promotion{
		ID:            "p1",
		Name:          "Winter deal",
		DiscountType:  discountType,
		DiscountValue: value,
		StartDate:     now.AddDate(0, 0, -7),
		Active:        true,
	}
}

func TestFinalPricePercentage(t *testing.T) {
	got := FinalPrice(100, activePromo(model.DiscountPercentage, 20))
	if got != 80 {
		t.Fatalf("FinalPrice = %v, want 80", got)
	}
}

func TestFinalPriceFixedFloorsAtZero(t *testing.T) {
	got := FinalPrice(100, activePromo(model.DiscountFixed, 150))
	if got != 0 {
		t.Fatalf("FinalPrice = %v, want 0", got)
	}
}

func TestFinalPriceUnknownTypeLeavesPrice(t *testing.T) {
	got := FinalPrice(100, activePromo("loyalty", 50))
	if got != 100 {
		t.Fatalf("FinalPrice = %v, want 100", got)
	}
}

func TestAppliesOn(t *testing.T) {
	end := now.AddDate(0, 0, 7)
	tests := []struct {
		name      string
		promo     model.Promotion
		serviceID string
		want      bool
	}{
		{"active open ended", activePromo(model.DiscountPercentage, 10), "svc-1", true},
		{"inactive", func() model.Promotion {
			p := activePromo(model.DiscountPercentage, 10)
			p.Active = false
			return p
		}(), "svc-1", false},
		{"not started yet", func() model.Promotion {
			p := activePromo(model.DiscountPercentage, 10)
			p.StartDate = now.AddDate(0, 0, 1)
			return p
		}(), "svc-1", false},
		{"expired", func() model.Promotion {
			p := activePromo(model.DiscountPercentage, 10)
			p.StartDate = now.AddDate(0, 0, -14)
			ended := now.AddDate(0, 0, -1)
			p.EndDate = &ended
			return p
		}(), "svc-1", false},
		{"within window", func() model.Promotion {
			p := activePromo(model.DiscountPercentage, 10)
			p.EndDate = &end
			return p
		}(), "svc-1", true},
		{"scoped to other service", func() model.Promotion {
			p := activePromo(model.DiscountPercentage, 10)
			p.ServiceID = "svc-2"
			return p
		}(), "svc-1", false},
		{"scoped to this service", func() model.Promotion {
			p := activePromo(model.DiscountPercentage, 10)
			p.ServiceID = "svc-1"
			return p
		}(), "svc-1", true},
	}
	for _, tt := range tests {
		if got := AppliesOn(tt.promo, tt.serviceID, now); got != tt.want {
			t.Fatalf("%s: AppliesOn = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestEffectivePricePicksCheapest(t *testing.T) {
	ten := activePromo(model.DiscountPercentage, 10)
	ten.ID = "p10"
	thirty := activePromo(model.DiscountPercentage, 30)
	thirty.ID = "p30"
	inactive := activePromo(model.DiscountPercentage, 90)
	inactive.Active = false

	price, promo := EffectivePrice(200, "svc-1", []model.Promotion{ten, inactive, thirty}, now)
	if price != 140 {
		t.Fatalf("price = %v, want 140", price)
	}
	if promo == nil || promo.ID != "p30" {
		t.Fatalf("expected p30 to win, got %+v", promo)
	}
}

func TestEffectivePriceNoApplicablePromotion(t *testing.T) {
	expiredEnd := now.AddDate(0, 0, -2)
	expired := activePromo(model.DiscountFixed, 50)
	expired.StartDate = now.AddDate(0, 0, -10)
	expired.EndDate = &expiredEnd

	price, promo := EffectivePrice(200, "svc-1", []model.Promotion{expired}, now)
	if price != 200 || promo != nil {
		t.Fatalf("expected full price and no promotion, got %v %+v", price, promo)
	}
}
