package menu

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"servora-system/internal/apperr"
	"servora-system/internal/database/models"
)

// DefaultCategories are created for every new restaurant.
var DefaultCategories = []string{"Appetizers", "Main Course", "Desserts", "Beverages"}

// CreateDefaultCategories runs on the caller's transaction so a restaurant
// never exists without its starter categories.
func CreateDefaultCategories(tx *gorm.DB, restaurantID int64) error {
	cats := make([]models.MenuCategory, len(DefaultCategories))
	for i, name := range DefaultCategories {
		cats[i] = models.MenuCategory{Name: name, DisplayOrder: i + 1, RestaurantID: restaurantID}
	}
	return tx.Create(&cats).Error
}

func (s *Service) ListCategories(ctx context.Context, restaurantID int64) ([]models.MenuCategory, error) {
	var cats []models.MenuCategory
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ?", restaurantID).
		Order("display_order ASC, name ASC").
		Find(&cats).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to list categories")
	}
	return cats, nil
}

type CategoryInput struct {
	Name         string  `json:"name" binding:"required"`
	Description  *string `json:"description"`
	DisplayOrder *int    `json:"display_order"`
}

// CreateCategory appends the category at the end of the menu unless a display
// order is given.
func (s *Service) CreateCategory(ctx context.Context, restaurantID int64, in CategoryInput) (*models.MenuCategory, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("name required")
	}

	cat := models.MenuCategory{Name: name, Description: in.Description, RestaurantID: restaurantID}
	if in.DisplayOrder != nil {
		cat.DisplayOrder = *in.DisplayOrder
	} else {
		var maxOrder *int
		err := s.db.WithContext(ctx).Model(&models.MenuCategory{}).
			Where("restaurant_id = ?", restaurantID).
			Select("MAX(display_order)").
			Scan(&maxOrder).Error
		if err != nil {
			return nil, apperr.Internal(err, "failed to read display order")
		}
		if maxOrder != nil {
			cat.DisplayOrder = *maxOrder + 1
		} else {
			cat.DisplayOrder = 1
		}
	}

	if err := s.db.WithContext(ctx).Create(&cat).Error; err != nil {
		s.log.WithError(err).WithField("restaurant_id", restaurantID).Error("failed to create category")
		return nil, apperr.Internal(err, "failed to create category")
	}
	s.InvalidateMenuCache(ctx, restaurantID)
	return &cat, nil
}
