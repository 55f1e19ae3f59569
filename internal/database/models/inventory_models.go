package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type TransactionType string

const (
	TransactionAdd    TransactionType = "ADD"
	TransactionRemove TransactionType = "REMOVE"
	TransactionWaste  TransactionType = "WASTE"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionAdd, TransactionRemove, TransactionWaste:
		return true
	}
	return false
}

// InventoryItem.Quantity is a cached projection of its transaction ledger and
// is only ever changed together with a new InventoryTransaction row.
type InventoryItem struct {
	ID              int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID    int64           `gorm:"index;not null" json:"restaurant_id"`
	Name            string          `gorm:"type:varchar(128);not null" json:"name"`
	Quantity        decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"quantity"`
	Unit            string          `gorm:"type:varchar(16);not null" json:"unit"`
	MinimumQuantity decimal.Decimal `gorm:"type:decimal(14,3);not null" json:"minimum_quantity"`
	CostPerUnit     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"cost_per_unit"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	Transactions []InventoryTransaction `gorm:"foreignKey:InventoryItemID" json:"transactions,omitempty"`
}

// InventoryTransaction is append-only. Quantity is a magnitude; the sign comes from Type.
type InventoryTransaction struct {
	ID              int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	InventoryItemID int64             `gorm:"index;not null" json:"inventory_item_id"`
	Type            TransactionType   `gorm:"type:varchar(8);not null" json:"type"`
	Quantity        decimal.Decimal   `gorm:"type:decimal(14,3);not null" json:"quantity"`
	Notes           *string           `gorm:"type:text" json:"notes"`
	Attributes      datatypes.JSONMap `json:"attributes,omitempty"`
	CreatedAt       time.Time         `gorm:"index" json:"created_at"`
}

// Signed returns the quantity with the sign implied by the transaction type.
func (t InventoryTransaction) Signed() decimal.Decimal {
	if t.Type == TransactionAdd {
		return t.Quantity
	}
	return t.Quantity.Neg()
}
