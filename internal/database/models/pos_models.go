package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DiscountType string

const (
	DiscountTypePercentage DiscountType = "PERCENTAGE"
	DiscountTypeFlat       DiscountType = "FLAT"
)

func (t DiscountType) Valid() bool {
	return t == DiscountTypePercentage || t == DiscountTypeFlat
}

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusServed    OrderStatus = "SERVED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusPaid      OrderStatus = "PAID"
)

//-- GORM MODEL --

type MenuCategory struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string    `gorm:"type:varchar(128);not null" json:"name"`
	Description  *string   `gorm:"type:text" json:"description"`
	DisplayOrder int       `gorm:"not null" json:"display_order"`
	RestaurantID int64     `gorm:"index;not null" json:"restaurant_id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MenuItem is soft deleted so historical order lines keep resolving it.
type MenuItem struct {
	ID              int64               `gorm:"primaryKey;autoIncrement" json:"id"`
	Name            string              `gorm:"type:varchar(128);not null" json:"name"`
	Description     *string             `gorm:"type:text" json:"description"`
	Image           *string             `gorm:"type:varchar(256)" json:"image"`
	Price           decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"price"`
	OfferPrice      decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"offer_price"`
	CostPrice       decimal.NullDecimal `gorm:"type:decimal(12,2)" json:"cost_price"`
	SKU             *string             `gorm:"column:sku;type:varchar(64)" json:"sku"`
	PreparationTime *int                `json:"preparation_time"`
	Calories        *int                `json:"calories"`
	IsAvailable     bool                `gorm:"not null" json:"is_available"`
	IsFeatured      bool                `gorm:"not null" json:"is_featured"`
	CategoryID      int64               `gorm:"index;not null" json:"category_id"`
	RestaurantID    int64               `gorm:"index;not null" json:"restaurant_id"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
	DeletedAt       gorm.DeletedAt      `gorm:"index" json:"-"`

	Category  *MenuCategory      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Discounts []MenuItemDiscount `gorm:"foreignKey:MenuItemID" json:"discounts,omitempty"`
}

type MenuItemDiscount struct {
	ID            int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	MenuItemID    int64           `gorm:"index;not null" json:"menu_item_id"`
	DiscountType  DiscountType    `gorm:"type:varchar(16);not null" json:"discount_type"`
	DiscountValue decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"discount_value"`
	StartDate     time.Time       `gorm:"not null" json:"start_date"`
	EndDate       time.Time       `gorm:"not null" json:"end_date"`
	IsActive      bool            `gorm:"not null" json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

type Order struct {
	ID           int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID int64           `gorm:"index;not null" json:"restaurant_id"`
	TableNumber  *string         `gorm:"type:varchar(32)" json:"table_number"`
	CustomerName *string         `gorm:"type:varchar(128)" json:"customer_name"`
	Notes        *string         `gorm:"type:text" json:"notes"`
	Status       OrderStatus     `gorm:"type:varchar(16);index;not null" json:"status"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"total_amount"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`

	OrderItems []OrderItem `gorm:"foreignKey:OrderID" json:"order_items"`
}

// OrderNumber is the display number shown on tickets and the POS screen.
func (o Order) OrderNumber() string {
	return fmt.Sprintf("ORD%05d", o.ID)
}

// OrderItem stores the unit price captured when the order was created.
type OrderItem struct {
	ID         int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID    int64           `gorm:"index;not null" json:"order_id"`
	MenuItemID int64           `gorm:"index;not null" json:"menu_item_id"`
	Quantity   int             `gorm:"not null" json:"quantity"`
	Price      decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Notes      *string         `gorm:"type:text" json:"notes"`
	CreatedAt  time.Time       `json:"created_at"`

	MenuItem *MenuItem `gorm:"foreignKey:MenuItemID" json:"menu_item,omitempty"`
}

// LineTotal is price × quantity for the captured price.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
