package inventory

import (
	"github.com/shopspring/decimal"

	"servora-system/internal/database/models"
)

type StockStatus string

const (
	StockOutOfStock StockStatus = "OUT_OF_STOCK"
	StockLow        StockStatus = "LOW_STOCK"
	StockIn         StockStatus = "IN_STOCK"
)

// ClassifyStock: nothing on hand is out of stock, anything up to and including
// the minimum is low, the rest is in stock.
func ClassifyStock(quantity, minimum decimal.Decimal) StockStatus {
	switch {
	case quantity.Sign() <= 0:
		return StockOutOfStock
	case quantity.LessThanOrEqual(minimum):
		return StockLow
	default:
		return StockIn
	}
}

func Classify(item models.InventoryItem) StockStatus {
	return ClassifyStock(item.Quantity, item.MinimumQuantity)
}

// Replay folds a transaction log onto an opening quantity.
func Replay(opening decimal.Decimal, txns []models.InventoryTransaction) decimal.Decimal {
	q := opening
	for _, t := range txns {
		q = q.Add(t.Signed())
	}
	return q
}
