// Package reports renders inventory and sales data as xlsx workbooks.
package reports

import (
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"servora-system/internal/currency"
	"servora-system/internal/database/models"
	"servora-system/internal/inventory"
)

const (
	InventorySheet  = "Inventory"
	OrdersSheet     = "Orders"
	OrderLinesSheet = "Order lines"

	// builtin number format "#,##0.00"
	moneyFormat = 4
)

type styles struct {
	header int
	money  int
}

func newStyles(f *excelize.File) (styles, error) {
	var st styles
	var err error
	if st.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return st, err
	}
	if st.money, err = f.NewStyle(&excelize.Style{NumFmt: moneyFormat}); err != nil {
		return st, err
	}
	return st, nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func styleColumn(f *excelize.File, sheet, col string, fromRow, toRow, style int) error {
	if toRow < fromRow {
		return nil
	}
	return f.SetCellStyle(sheet, fmt.Sprintf("%s%d", col, fromRow), fmt.Sprintf("%s%d", col, toRow), style)
}

func num(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func str(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// InventoryWorkbook lists every item with its stock status and stock value.
func InventoryWorkbook(items []inventory.ItemView, currencyCode string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", InventorySheet); err != nil {
		return nil, err
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	header := []interface{}{"Name", "Quantity", "Unit", "Minimum", "Cost per unit", "Stock value", "Status"}
	if err := writeRow(f, InventorySheet, 1, header...); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(InventorySheet, "A1", "G1", st.header); err != nil {
		return nil, err
	}

	total := decimal.Zero
	for i, it := range items {
		value := currency.Round(it.Quantity.Mul(it.CostPerUnit))
		total = total.Add(value)
		err := writeRow(f, InventorySheet, i+2,
			it.Name, num(it.Quantity), it.Unit, num(it.MinimumQuantity),
			num(it.CostPerUnit), num(value), string(it.StockStatus))
		if err != nil {
			return nil, err
		}
	}

	last := len(items) + 1
	if err := styleColumn(f, InventorySheet, "E", 2, last, st.money); err != nil {
		return nil, err
	}
	if err := styleColumn(f, InventorySheet, "F", 2, last, st.money); err != nil {
		return nil, err
	}

	summary := last + 2
	if err := writeRow(f, InventorySheet, summary, "Total stock value", nil, nil, nil, nil, num(total), currency.Format(total, currencyCode)); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(InventorySheet, "A", "G", 16); err != nil {
		return nil, err
	}
	return f, nil
}

// SalesWorkbook has one sheet of orders and one of their lines. Cancelled
// orders are listed but left out of the revenue total.
func SalesWorkbook(orders []models.Order, currencyCode string, from, to time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", OrdersSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(OrderLinesSheet); err != nil {
		return nil, err
	}
	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := writeRow(f, OrdersSheet, 1, "Order", "Created", "Status", "Table", "Customer", "Items", "Total"); err != nil {
		return nil, err
	}
	if err := writeRow(f, OrderLinesSheet, 1, "Order", "Item", "Quantity", "Unit price", "Line total", "Notes"); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(OrdersSheet, "A1", "G1", st.header); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(OrderLinesSheet, "A1", "F1", st.header); err != nil {
		return nil, err
	}

	revenue := decimal.Zero
	lineRow := 2
	for i, o := range orders {
		if o.Status != models.OrderStatusCancelled {
			revenue = revenue.Add(o.TotalAmount)
		}
		units := 0
		for _, l := range o.OrderItems {
			units += l.Quantity
			name := fmt.Sprintf("#%d", l.MenuItemID)
			if l.MenuItem != nil {
				name = l.MenuItem.Name
			}
			err := writeRow(f, OrderLinesSheet, lineRow,
				o.OrderNumber(), name, l.Quantity, num(l.Price), num(l.LineTotal()), str(l.Notes))
			if err != nil {
				return nil, err
			}
			lineRow++
		}

		err := writeRow(f, OrdersSheet, i+2,
			o.OrderNumber(), o.CreatedAt.UTC().Format(time.RFC3339), string(o.Status),
			str(o.TableNumber), str(o.CustomerName), units, num(o.TotalAmount))
		if err != nil {
			return nil, err
		}
	}

	last := len(orders) + 1
	if err := styleColumn(f, OrdersSheet, "G", 2, last, st.money); err != nil {
		return nil, err
	}
	if err := styleColumn(f, OrderLinesSheet, "D", 2, lineRow-1, st.money); err != nil {
		return nil, err
	}
	if err := styleColumn(f, OrderLinesSheet, "E", 2, lineRow-1, st.money); err != nil {
		return nil, err
	}

	period := fmt.Sprintf("%s to %s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	if err := writeRow(f, OrdersSheet, last+2, "Revenue", period, nil, nil, nil, nil, num(currency.Round(revenue))); err != nil {
		return nil, err
	}
	if err := writeRow(f, OrdersSheet, last+3, "Formatted", currency.Format(revenue, currencyCode)); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(OrdersSheet, "A", "G", 16); err != nil {
		return nil, err
	}
	return f, nil
}

// Write streams the workbook and releases it.
func Write(w io.Writer, f *excelize.File) error {
	defer f.Close()
	return f.Write(w)
}
