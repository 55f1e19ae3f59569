// Package pricing resolves the unit price charged for a menu item at a given
// instant, taking its offer price and time-windowed discounts into account.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"servora-system/internal/database/models"
)

type Source string

const (
	SourceBase     Source = "BASE"
	SourceOffer    Source = "OFFER"
	SourceDiscount Source = "DISCOUNT"
)

var hundred = decimal.NewFromInt(100)

// Resolution explains how a unit price was obtained.
type Resolution struct {
	UnitPrice decimal.Decimal          `json:"unit_price"`
	BasePrice decimal.Decimal          `json:"base_price"`
	Source    Source                   `json:"source"`
	Discount  *models.MenuItemDiscount `json:"discount,omitempty"`
}

// IsActive reports whether d is switched on and now falls inside
// [StartDate, EndDate], both ends inclusive.
func IsActive(d models.MenuItemDiscount, now time.Time) bool {
	return d.IsActive && !now.Before(d.StartDate) && !now.After(d.EndDate)
}

// ActiveDiscount picks the discount in effect at now. When several qualify the
// one with the latest StartDate wins, then the latest CreatedAt, then the
// highest ID, so the choice never depends on query order.
func ActiveDiscount(discounts []models.MenuItemDiscount, now time.Time) *models.MenuItemDiscount {
	var best *models.MenuItemDiscount
	for i := range discounts {
		d := &discounts[i]
		if !IsActive(*d, now) {
			continue
		}
		if best == nil || preferred(d, best) {
			best = d
		}
	}
	return best
}

func preferred(a, b *models.MenuItemDiscount) bool {
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID > b.ID
}

// ApplyDiscount returns base reduced by d. Values are not validated here;
// discounts are checked when they are created.
func ApplyDiscount(base decimal.Decimal, d models.MenuItemDiscount) decimal.Decimal {
	switch d.DiscountType {
	case models.DiscountTypePercentage:
		return base.Sub(base.Mul(d.DiscountValue).Div(hundred))
	case models.DiscountTypeFlat:
		return decimal.Max(decimal.Zero, base.Sub(d.DiscountValue))
	default:
		return base
	}
}

// Resolve computes the unit price of item at now. An active discount always
// applies to the base price and overrides the offer price.
func Resolve(item models.MenuItem, discounts []models.MenuItemDiscount, now time.Time) Resolution {
	res := Resolution{BasePrice: item.Price}

	if d := ActiveDiscount(discounts, now); d != nil {
		res.UnitPrice = ApplyDiscount(item.Price, *d)
		res.Source = SourceDiscount
		res.Discount = d
		return res
	}

	if item.OfferPrice.Valid {
		res.UnitPrice = item.OfferPrice.Decimal
		res.Source = SourceOffer
		return res
	}

	res.UnitPrice = item.Price
	res.Source = SourceBase
	return res
}

// ResolvePrice is Resolve without the explanation.
func ResolvePrice(item models.MenuItem, discounts []models.MenuItemDiscount, now time.Time) decimal.Decimal {
	return Resolve(item, discounts, now).UnitPrice
}
