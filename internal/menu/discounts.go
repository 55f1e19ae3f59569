package menu

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"servora-system/internal/apperr"
	"servora-system/internal/database/models"
)

var hundred = decimal.NewFromInt(100)

type DiscountInput struct {
	MenuItemID    int64               `json:"menu_item_id" binding:"required"`
	DiscountType  models.DiscountType `json:"discount_type"`
	DiscountValue decimal.Decimal     `json:"discount_value"`
	StartDate     time.Time           `json:"start_date"`
	EndDate       time.Time           `json:"end_date"`
}

// ValidateDiscount rejects values the price resolver would otherwise have to
// cope with at read time.
func ValidateDiscount(in DiscountInput) error {
	if !in.DiscountType.Valid() {
		return apperr.Invalid("invalid discount type %q", in.DiscountType)
	}
	if !in.DiscountValue.IsPositive() {
		return apperr.Invalid("discount_value must be greater than 0")
	}
	if in.DiscountType == models.DiscountTypePercentage && in.DiscountValue.GreaterThan(hundred) {
		return apperr.Invalid("percentage discount must not exceed 100")
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return apperr.Invalid("start_date and end_date required")
	}
	if in.EndDate.Before(in.StartDate) {
		return apperr.Invalid("end_date must not be before start_date")
	}
	return nil
}

// CreateDiscount stores a discount that is switched on from the start.
func (s *Service) CreateDiscount(ctx context.Context, restaurantID int64, in DiscountInput) (*models.MenuItemDiscount, error) {
	if err := ValidateDiscount(in); err != nil {
		return nil, err
	}
	if _, err := s.findItem(ctx, restaurantID, in.MenuItemID); err != nil {
		return nil, err
	}

	d := models.MenuItemDiscount{
		MenuItemID:    in.MenuItemID,
		DiscountType:  in.DiscountType,
		DiscountValue: in.DiscountValue,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate.UTC(),
		IsActive:      true,
	}
	if err := s.db.WithContext(ctx).Create(&d).Error; err != nil {
		s.log.WithError(err).WithField("menu_item_id", in.MenuItemID).Error("failed to create discount")
		return nil, apperr.Internal(err, "failed to create discount")
	}

	s.log.WithFields(log.Fields{
		"restaurant_id": restaurantID,
		"menu_item_id":  in.MenuItemID,
		"discount_id":   d.ID,
		"type":          d.DiscountType,
		"value":         d.DiscountValue.String(),
	}).Info("discount created")

	s.InvalidateMenuCache(ctx, restaurantID)
	return &d, nil
}

func (s *Service) ListDiscounts(ctx context.Context, restaurantID, menuItemID int64) ([]models.MenuItemDiscount, error) {
	item, err := s.findItem(ctx, restaurantID, menuItemID)
	if err != nil {
		return nil, err
	}
	return item.Discounts, nil
}

// SetDiscountActive flips the manual switch of a discount, independent of its window.
func (s *Service) SetDiscountActive(ctx context.Context, restaurantID, discountID int64, active bool) (*models.MenuItemDiscount, error) {
	var d models.MenuItemDiscount
	err := s.db.WithContext(ctx).
		Select("menu_item_discounts.*").
		Joins("JOIN menu_items ON menu_items.id = menu_item_discounts.menu_item_id").
		Where("menu_item_discounts.id = ? AND menu_items.restaurant_id = ?", discountID, restaurantID).
		First(&d).Error
	if err != nil {
		return nil, apperr.FromDB(err, "discount")
	}

	if err := s.db.WithContext(ctx).Model(&d).Update("is_active", active).Error; err != nil {
		return nil, apperr.Internal(err, "failed to update discount")
	}
	d.IsActive = active

	s.InvalidateMenuCache(ctx, restaurantID)
	return &d, nil
}
