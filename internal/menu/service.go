// Package menu manages categories, menu items and their discounts, and
// serves the menu with prices resolved at read time.
package menu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"servora-system/internal/apperr"
	"servora-system/internal/database/models"
	"servora-system/internal/pricing"
)

const (
	MENU_CACHE_PREFIX = "menu:"
	CACHE_TTL_SHORT   = 5 * time.Minute
)

type Service struct {
	db    *gorm.DB
	redis *redis.Client
	log   log.FieldLogger
	now   func() time.Time
}

func NewService(db *gorm.DB, redisClient *redis.Client, logger log.FieldLogger) *Service {
	return &Service{db: db, redis: redisClient, log: logger, now: time.Now}
}

// ItemView is a menu item with the price a customer pays right now.
type ItemView struct {
	models.MenuItem
	ResolvedPrice  decimal.Decimal          `json:"resolved_price"`
	PriceSource    pricing.Source           `json:"price_source"`
	ActiveDiscount *models.MenuItemDiscount `json:"active_discount,omitempty"`
	OrderCount     int64                    `json:"order_count"`
}

func cacheKey(restaurantID int64) string {
	return fmt.Sprintf("%s%d", MENU_CACHE_PREFIX, restaurantID)
}

// InvalidateMenuCache drops the cached menu of the restaurant.
func (s *Service) InvalidateMenuCache(ctx context.Context, restaurantID int64) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, cacheKey(restaurantID)).Err(); err != nil {
		s.log.WithError(err).WithField("restaurant_id", restaurantID).Warn("failed to invalidate menu cache")
	}
}

type ItemFilter struct {
	CategoryID    int64
	AvailableOnly bool
	FeaturedOnly  bool
}

// ListItems returns the restaurant's menu ordered by name.
func (s *Service) ListItems(ctx context.Context, restaurantID int64, f ItemFilter) ([]ItemView, error) {
	items, err := s.loadMenu(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	counts, err := s.orderCounts(ctx, restaurantID, 0)
	if err != nil {
		return nil, err
	}

	now := s.now()
	views := make([]ItemView, 0, len(items))
	for _, it := range items {
		if f.CategoryID != 0 && it.CategoryID != f.CategoryID {
			continue
		}
		if f.AvailableOnly && !it.IsAvailable {
			continue
		}
		if f.FeaturedOnly && !it.IsFeatured {
			continue
		}
		views = append(views, resolve(it, counts[it.ID], now))
	}
	return views, nil
}

func (s *Service) GetItem(ctx context.Context, restaurantID, id int64) (*ItemView, error) {
	item, err := s.findItem(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.orderCounts(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}
	v := resolve(*item, counts[id], s.now())
	return &v, nil
}

func resolve(item models.MenuItem, orderCount int64, now time.Time) ItemView {
	res := pricing.Resolve(item, item.Discounts, now)
	return ItemView{
		MenuItem:       item,
		ResolvedPrice:  res.UnitPrice,
		PriceSource:    res.Source,
		ActiveDiscount: res.Discount,
		OrderCount:     orderCount,
	}
}

// loadMenu returns the restaurant's items with categories and discounts.
// Only this catalogue is cached: resolved prices and order counts change
// without a menu write and are computed on every read.
func (s *Service) loadMenu(ctx context.Context, restaurantID int64) ([]models.MenuItem, error) {
	key := cacheKey(restaurantID)

	if s.redis != nil {
		val, err := s.redis.Get(ctx, key).Result()
		if err == nil {
			var cached []models.MenuItem
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			s.log.WithError(err).Warn("redis error on GET, falling back to DB")
		}
	}

	var items []models.MenuItem
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Preload("Category").
		Preload("Discounts", func(db *gorm.DB) *gorm.DB { return db.Order("start_date DESC") }).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		s.log.WithError(err).WithField("restaurant_id", restaurantID).Error("failed to list menu items")
		return nil, apperr.Internal(err, "failed to list menu items")
	}

	if s.redis != nil {
		if jsonData, err := json.Marshal(items); err == nil {
			if err := s.redis.Set(ctx, key, jsonData, CACHE_TTL_SHORT).Err(); err != nil {
				s.log.WithError(err).WithField("key", key).Warn("failed to set menu cache")
			}
		}
	}
	return items, nil
}

// orderCounts counts order lines per menu item; itemID 0 means every item.
func (s *Service) orderCounts(ctx context.Context, restaurantID, itemID int64) (map[int64]int64, error) {
	var rows []struct {
		MenuItemID int64
		OrderCount int64
	}
	query := s.db.WithContext(ctx).Model(&models.OrderItem{}).
		Select("order_items.menu_item_id, COUNT(*) AS order_count").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.restaurant_id = ?", restaurantID)
	if itemID != 0 {
		query = query.Where("order_items.menu_item_id = ?", itemID)
	}
	err := query.Group("order_items.menu_item_id").Scan(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to count orders per item")
	}

	counts := make(map[int64]int64, len(rows))
	for _, r := range rows {
		counts[r.MenuItemID] = r.OrderCount
	}
	return counts, nil
}

type ItemInput struct {
	Name            string           `json:"name" binding:"required"`
	Description     *string          `json:"description"`
	Image           *string          `json:"image"`
	Price           decimal.Decimal  `json:"price"`
	OfferPrice      *decimal.Decimal `json:"offer_price"`
	CostPrice       *decimal.Decimal `json:"cost_price"`
	SKU             *string          `json:"sku"`
	PreparationTime *int             `json:"preparation_time"`
	Calories        *int             `json:"calories"`
	IsAvailable     *bool            `json:"is_available"`
	IsFeatured      bool             `json:"is_featured"`
	CategoryID      int64            `json:"category_id" binding:"required"`
}

func (s *Service) CreateItem(ctx context.Context, restaurantID int64, in ItemInput) (*ItemView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("name required")
	}
	if !in.Price.IsPositive() {
		return nil, apperr.Invalid("price must be greater than 0")
	}
	if err := validateOptionalPrice("offer_price", in.OfferPrice); err != nil {
		return nil, err
	}
	if err := validateOptionalPrice("cost_price", in.CostPrice); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, restaurantID, in.CategoryID); err != nil {
		return nil, err
	}

	item := models.MenuItem{
		Name:            name,
		Description:     in.Description,
		Image:           in.Image,
		Price:           in.Price,
		OfferPrice:      nullable(in.OfferPrice),
		CostPrice:       nullable(in.CostPrice),
		SKU:             in.SKU,
		PreparationTime: in.PreparationTime,
		Calories:        in.Calories,
		IsAvailable:     in.IsAvailable == nil || *in.IsAvailable,
		IsFeatured:      in.IsFeatured,
		CategoryID:      in.CategoryID,
		RestaurantID:    restaurantID,
	}
	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		s.log.WithError(err).WithField("restaurant_id", restaurantID).Error("failed to create menu item")
		return nil, apperr.Internal(err, "failed to create menu item")
	}

	s.InvalidateMenuCache(ctx, restaurantID)
	return s.GetItem(ctx, restaurantID, item.ID)
}

// ItemPatch carries a partial update; nil fields are left alone. ClearOfferPrice
// removes the offer price.
type ItemPatch struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Image           *string          `json:"image"`
	Price           *decimal.Decimal `json:"price"`
	OfferPrice      *decimal.Decimal `json:"offer_price"`
	ClearOfferPrice bool             `json:"clear_offer_price"`
	CostPrice       *decimal.Decimal `json:"cost_price"`
	SKU             *string          `json:"sku"`
	PreparationTime *int             `json:"preparation_time"`
	Calories        *int             `json:"calories"`
	IsAvailable     *bool            `json:"is_available"`
	IsFeatured      *bool            `json:"is_featured"`
	CategoryID      *int64           `json:"category_id"`
}

func (s *Service) UpdateItem(ctx context.Context, restaurantID, id int64, p ItemPatch) (*ItemView, error) {
	item, err := s.findItem(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, apperr.Invalid("name must not be empty")
		}
		updates["name"] = name
	}
	if p.Description != nil {
		updates["description"] = *p.Description
	}
	if p.Image != nil {
		updates["image"] = *p.Image
	}
	if p.Price != nil {
		if !p.Price.IsPositive() {
			return nil, apperr.Invalid("price must be greater than 0")
		}
		updates["price"] = *p.Price
	}
	if p.ClearOfferPrice {
		updates["offer_price"] = gorm.Expr("NULL")
	} else if p.OfferPrice != nil {
		if err := validateOptionalPrice("offer_price", p.OfferPrice); err != nil {
			return nil, err
		}
		updates["offer_price"] = *p.OfferPrice
	}
	if p.CostPrice != nil {
		if err := validateOptionalPrice("cost_price", p.CostPrice); err != nil {
			return nil, err
		}
		updates["cost_price"] = *p.CostPrice
	}
	if p.SKU != nil {
		updates["sku"] = *p.SKU
	}
	if p.PreparationTime != nil {
		updates["preparation_time"] = *p.PreparationTime
	}
	if p.Calories != nil {
		updates["calories"] = *p.Calories
	}
	if p.IsAvailable != nil {
		updates["is_available"] = *p.IsAvailable
	}
	if p.IsFeatured != nil {
		updates["is_featured"] = *p.IsFeatured
	}
	if p.CategoryID != nil {
		if err := s.checkCategory(ctx, restaurantID, *p.CategoryID); err != nil {
			return nil, err
		}
		updates["category_id"] = *p.CategoryID
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(item).Updates(updates).Error; err != nil {
			s.log.WithError(err).WithField("menu_item_id", id).Error("failed to update menu item")
			return nil, apperr.Internal(err, "failed to update menu item")
		}
		s.InvalidateMenuCache(ctx, restaurantID)
	}
	return s.GetItem(ctx, restaurantID, id)
}

// DeleteItems soft deletes the given items and reports how many were removed.
// Past orders keep pointing at them.
func (s *Service) DeleteItems(ctx context.Context, restaurantID int64, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, apperr.Invalid("ids required")
	}
	res := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND id IN ?", restaurantID, ids).
		Delete(&models.MenuItem{})
	if res.Error != nil {
		s.log.WithError(res.Error).WithField("restaurant_id", restaurantID).Error("failed to delete menu items")
		return 0, apperr.Internal(res.Error, "failed to delete menu items")
	}
	s.InvalidateMenuCache(ctx, restaurantID)
	return res.RowsAffected, nil
}

func (s *Service) findItem(ctx context.Context, restaurantID, id int64) (*models.MenuItem, error) {
	var item models.MenuItem
	err := s.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", id, restaurantID).
		Preload("Category").
		Preload("Discounts", func(db *gorm.DB) *gorm.DB { return db.Order("start_date DESC") }).
		First(&item).Error
	if err != nil {
		return nil, apperr.FromDB(err, "menu item")
	}
	return &item, nil
}

func (s *Service) checkCategory(ctx context.Context, restaurantID, categoryID int64) error {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.MenuCategory{}).
		Where("id = ? AND restaurant_id = ?", categoryID, restaurantID).
		Count(&count).Error
	if err != nil {
		return apperr.Internal(err, "failed to check category")
	}
	if count == 0 {
		return apperr.Invalid("category %d does not exist", categoryID)
	}
	return nil
}

func validateOptionalPrice(field string, v *decimal.Decimal) error {
	if v != nil && v.IsNegative() {
		return apperr.Invalid("%s must not be negative", field)
	}
	return nil
}

func nullable(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}
