package pricing

import (
	"time"

	"github.com/lucasvieira/agendou/services/catalog-service/internal/model"
)

// AppliesOn reports whether the promotion discounts the given service at
// the given instant. A promotion without a service scope applies to the
// whole catalog; an open end date never expires.
func AppliesOn(p model.Promotion, serviceID string, now time.Time) bool {
	if !p.Active {
		return false
	}
	if p.ServiceID != "" && p.ServiceID != serviceID {
		return false
	}
	if now.Before(p.StartDate) {
		return false
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return false
	}
	return true
}

// FinalPrice applies the promotion's discount to price. Fixed discounts
// never push the price below zero.
func FinalPrice(price float64, p model.Promotion) float64 {
	switch p.DiscountType {
	case model.DiscountPercentage:
		final := price * (1 - p.DiscountValue/100)
		if final < 0 {
			return 0
		}
		return final
	case model.DiscountFixed:
		final := price - p.DiscountValue
		if final < 0 {
			return 0
		}
		return final
	default:
		return price
	}
}

// EffectivePrice picks the applicable promotion with the lowest final
// price. It returns the undiscounted price and no promotion when none
// applies.
func EffectivePrice(price float64, serviceID string, promos []model.Promotion, now time.Time) (float64, *model.Promotion) {
	best := price
	var chosen *model.Promotion
	for i := range promos {
		if !AppliesOn(promos[i], serviceID, now) {
			continue
		}
		if final := FinalPrice(price, promos[i]); final < best {
			best = final
			chosen = &promos[i]
		}
	}
	return best, chosen
}
