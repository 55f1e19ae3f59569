package reports

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"servora-system/internal/database/models"
	"servora-system/internal/inventory"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, f))
	out, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	t.Cleanup(func() { out.Close() })
	return out
}

func TestInventoryWorkbook(t *testing.T) {
	items := []inventory.ItemView{
		{InventoryItem: models.InventoryItem{Name: "Flour", Quantity: dec("4"), Unit: "kg", MinimumQuantity: dec("5"), CostPerUnit: dec("1.25")}, StockStatus: inventory.StockLow},
		{InventoryItem: models.InventoryItem{Name: "Salt", Quantity: dec("10"), Unit: "kg", MinimumQuantity: dec("1"), CostPerUnit: dec("0.5")}, StockStatus: inventory.StockIn},
	}

	f, err := InventoryWorkbook(items, "USD")
	require.NoError(t, err)
	got := reopen(t, f)

	rows, err := got.GetRows(InventorySheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, rows, 5)
	assert.Equal(t, "Name", rows[0][0])
	assert.Equal(t, []string{"Flour", "4", "kg", "5", "1.25", "5", "LOW_STOCK"}, rows[1])
	assert.Equal(t, "Total stock value", rows[4][0])
	assert.Equal(t, "10", rows[4][5])
	assert.Equal(t, "$10.00", rows[4][6])
}

func TestSalesWorkbook(t *testing.T) {
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	table := "4"
	orders := []models.Order{
		{
			ID: 1, Status: models.OrderStatusPaid, TotalAmount: dec("25.5"), CreatedAt: at, TableNumber: &table,
			OrderItems: []models.OrderItem{
				{MenuItemID: 1, Quantity: 2, Price: dec("10"), MenuItem: &models.MenuItem{Name: "Burger"}},
				{MenuItemID: 2, Quantity: 1, Price: dec("5.5")},
			},
		},
		{
			ID: 2, Status: models.OrderStatusCancelled, TotalAmount: dec("99"), CreatedAt: at,
			OrderItems: []models.OrderItem{{MenuItemID: 1, Quantity: 9, Price: dec("11")}},
		},
	}

	f, err := SalesWorkbook(orders, "USD", at, at)
	require.NoError(t, err)
	got := reopen(t, f)

	rows, err := got.GetRows(OrdersSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	assert.Equal(t, "ORD00001", rows[1][0])
	assert.Equal(t, "4", rows[1][3])
	assert.Equal(t, "3", rows[1][5])
	assert.Equal(t, "Revenue", rows[4][0])
	assert.Equal(t, "25.5", rows[4][6])
	assert.Equal(t, "$25.50", rows[5][1])

	lines, err := got.GetRows(OrderLinesSheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	require.Len(t, lines, 4)
	assert.Equal(t, "Burger", lines[1][1])
	assert.Equal(t, "#2", lines[2][1])
	assert.Equal(t, "20", lines[1][4])
}
