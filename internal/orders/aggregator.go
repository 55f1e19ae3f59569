package orders

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"servora-system/internal/apperr"
	"servora-system/internal/currency"
	"servora-system/internal/database/models"
	"servora-system/internal/pricing"
)

type LineRequest struct {
	MenuItemID int64   `json:"menu_item_id" binding:"required"`
	Quantity   int     `json:"quantity"`
	Notes      *string `json:"notes"`
}

type CreateRequest struct {
	TableNumber  *string       `json:"table_number"`
	CustomerName *string       `json:"customer_name"`
	Notes        *string       `json:"notes"`
	Items        []LineRequest `json:"items"`
}

// Total sums the captured line prices and rounds to the currency's minor unit.
func Total(lines []models.OrderItem) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.LineTotal())
	}
	return currency.Round(sum)
}

// BuildOrder prices every requested line at now and stores the order with the
// captured prices. Lines pointing at menu items the restaurant does not have
// are dropped, or rejected when the service is configured to.
func (s *Service) BuildOrder(ctx context.Context, restaurantID int64, req CreateRequest, now time.Time) (*models.Order, error) {
	ids := make([]int64, 0, len(req.Items))
	seen := make(map[int64]bool, len(req.Items))
	for i, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, apperr.Invalid("items[%d]: quantity must be greater than 0", i)
		}
		if !seen[line.MenuItemID] {
			seen[line.MenuItemID] = true
			ids = append(ids, line.MenuItemID)
		}
	}

	byID := make(map[int64]models.MenuItem, len(ids))
	if len(ids) > 0 {
		var items []models.MenuItem
		err := s.db.WithContext(ctx).
			Where("restaurant_id = ? AND id IN ?", restaurantID, ids).
			Preload("Discounts", "is_active = ?", true).
			Find(&items).Error
		if err != nil {
			s.log.WithError(err).WithField("restaurant_id", restaurantID).Error("failed to load menu items for order")
			return nil, apperr.Internal(err, "failed to load menu items")
		}
		for _, it := range items {
			byID[it.ID] = it
		}
	}

	var (
		lines   []models.OrderItem
		dropped []int64
	)
	for _, line := range req.Items {
		item, ok := byID[line.MenuItemID]
		if !ok {
			dropped = append(dropped, line.MenuItemID)
			continue
		}
		lines = append(lines, models.OrderItem{
			MenuItemID: item.ID,
			Quantity:   line.Quantity,
			Price:      currency.Round(pricing.ResolvePrice(item, item.Discounts, now)),
			Notes:      trimmed(line.Notes),
			CreatedAt:  now,
		})
	}

	if len(dropped) > 0 {
		if s.opts.RejectUnknownItems {
			return nil, apperr.Invalid("unknown menu items: %v", dropped)
		}
		s.log.WithFields(log.Fields{
			"restaurant_id": restaurantID,
			"menu_item_ids": dropped,
		}).Warn("dropping order lines for unknown menu items")
	}
	if len(lines) == 0 {
		return nil, apperr.Invalid("order must contain at least one item")
	}

	order := models.Order{
		RestaurantID: restaurantID,
		TableNumber:  trimmed(req.TableNumber),
		CustomerName: trimmed(req.CustomerName),
		Notes:        trimmed(req.Notes),
		Status:       models.OrderStatusPending,
		TotalAmount:  Total(lines),
		CreatedAt:    now,
		UpdatedAt:    now,
		OrderItems:   lines,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	})
	if err != nil {
		s.log.WithError(err).WithField("restaurant_id", restaurantID).Error("failed to create order")
		return nil, apperr.Internal(err, "failed to create order")
	}

	return s.Get(ctx, restaurantID, order.ID)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
