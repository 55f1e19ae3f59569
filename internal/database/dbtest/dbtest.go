// Package dbtest opens migrated in-memory databases for tests.
package dbtest

import (
	"testing"

	"gorm.io/gorm"

	"servora-system/internal/database"
	"servora-system/internal/database/models"
)

func New(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.NewConnection("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Restaurant creates a tenant row and returns it.
func Restaurant(t testing.TB, db *gorm.DB, name string) models.Restaurant {
	t.Helper()

	r := models.Restaurant{Name: name, Currency: "USD"}
	if err := db.Create(&r).Error; err != nil {
		t.Fatalf("create restaurant: %v", err)
	}
	return r
}

// Category creates a menu category for restaurantID.
func Category(t testing.TB, db *gorm.DB, restaurantID int64, name string) models.MenuCategory {
	t.Helper()

	c := models.MenuCategory{Name: name, DisplayOrder: 1, RestaurantID: restaurantID}
	if err := db.Create(&c).Error; err != nil {
		t.Fatalf("create category: %v", err)
	}
	return c
}
