package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"servora-system/internal/apperr"
	"servora-system/internal/database/dbtest"
	"servora-system/internal/database/models"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newLedger(t *testing.T) (*Ledger, int64) {
	db := dbtest.New(t)
	r := dbtest.Restaurant(t, db, "Bistro")
	logger, _ := test.NewNullLogger()
	return NewLedger(db, logger), r.ID
}

func createItem(t *testing.T, l *Ledger, rid int64, qty, min string) ItemView {
	v, err := l.CreateItem(context.Background(), rid, CreateItemInput{
		Name:            "Tomatoes",
		Quantity:        dec(qty),
		Unit:            "kg",
		MinimumQuantity: dec(min),
		CostPerUnit:     dec("2.40"),
	})
	require.NoError(t, err)
	return *v
}

func TestClassifyStock(t *testing.T) {
	assert.Equal(t, StockOutOfStock, ClassifyStock(dec("0"), dec("5")))
	assert.Equal(t, StockLow, ClassifyStock(dec("4"), dec("5")))
	assert.Equal(t, StockLow, ClassifyStock(dec("5"), dec("5")))
	assert.Equal(t, StockIn, ClassifyStock(dec("5.001"), dec("5")))
	assert.Equal(t, StockOutOfStock, ClassifyStock(dec("0"), dec("0")))
}

func TestCreateItemRecordsOpeningStock(t *testing.T) {
	l, rid := newLedger(t)
	ctx := context.Background()

	item := createItem(t, l, rid, "10", "5")
	assert.Equal(t, StockIn, item.StockStatus)
	require.Len(t, item.Transactions, 1)
	assert.Equal(t, models.TransactionAdd, item.Transactions[0].Type)

	rec, err := l.Reconcile(ctx, rid, item.ID)
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.True(t, rec.Ledger.Equal(dec("10")))
}

func TestCreateItemValidation(t *testing.T) {
	l, rid := newLedger(t)
	ctx := context.Background()

	_, err := l.CreateItem(ctx, rid, CreateItemInput{Name: "  "})
	assert.True(t, apperr.IsInvalid(err))

	_, err = l.CreateItem(ctx, rid, CreateItemInput{Name: "Salt", Quantity: dec("-1")})
	assert.True(t, apperr.IsInvalid(err))
}

func TestApplyTransactionRemove(t *testing.T) {
	l, rid := newLedger(t)
	item := createItem(t, l, rid, "10", "5")

	res, err := l.ApplyTransaction(context.Background(), TransactionRequest{
		RestaurantID:    rid,
		InventoryItemID: item.ID,
		Type:            models.TransactionRemove,
		Quantity:        dec("6"),
		Attributes:      map[string]interface{}{"channel": "test"},
	})
	require.NoError(t, err)

	assert.True(t, res.Item.Quantity.Equal(dec("4")), res.Item.Quantity.String())
	assert.Equal(t, StockLow, res.StockStatus)
	assert.Equal(t, models.TransactionRemove, res.Transaction.Type)
	assert.NotZero(t, res.Transaction.ID)
}

func TestApplyTransactionKeepsLedgerInSync(t *testing.T) {
	l, rid := newLedger(t)
	ctx := context.Background()
	item := createItem(t, l, rid, "3", "1")

	steps := []struct {
		kind models.TransactionType
		qty  string
	}{
		{models.TransactionAdd, "7.5"},
		{models.TransactionWaste, "0.25"},
		{models.TransactionRemove, "4"},
		{models.TransactionAdd, "1"},
	}
	for _, s := range steps {
		_, err := l.ApplyTransaction(ctx, TransactionRequest{
			RestaurantID: rid, InventoryItemID: item.ID, Type: s.kind, Quantity: dec(s.qty),
		})
		require.NoError(t, err)
	}

	rec, err := l.Reconcile(ctx, rid, item.ID)
	require.NoError(t, err)
	assert.True(t, rec.Cached.Equal(dec("7.25")), rec.Cached.String())
	assert.True(t, rec.Consistent)

	got, err := l.GetItem(ctx, rid, item.ID)
	require.NoError(t, err)
	assert.Len(t, got.Transactions, 5)
}

func TestApplyTransactionRejectsOverdraw(t *testing.T) {
	l, rid := newLedger(t)
	ctx := context.Background()
	item := createItem(t, l, rid, "2", "1")

	_, err := l.ApplyTransaction(ctx, TransactionRequest{
		RestaurantID: rid, InventoryItemID: item.ID, Type: models.TransactionWaste, Quantity: dec("2.5"),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsInvalid(err))
	assert.Contains(t, apperr.Message(err), "insufficient stock")

	got, err := l.GetItem(ctx, rid, item.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.Equal(dec("2")))
	assert.Len(t, got.Transactions, 1)
}

func TestApplyTransactionValidation(t *testing.T) {
	l, rid := newLedger(t)
	ctx := context.Background()
	item := createItem(t, l, rid, "2", "1")

	cases := []TransactionRequest{
		{RestaurantID: rid, InventoryItemID: item.ID, Type: "STEAL", Quantity: dec("1")},
		{RestaurantID: rid, InventoryItemID: item.ID, Type: models.TransactionAdd, Quantity: dec("0")},
		{RestaurantID: rid, InventoryItemID: item.ID, Type: models.TransactionAdd, Quantity: dec("-1")},
		{RestaurantID: rid, Type: models.TransactionAdd, Quantity: dec("1")},
	}
	for _, req := range cases {
		_, err := l.ApplyTransaction(ctx, req)
		assert.True(t, apperr.IsInvalid(err), "%+v", req)
	}
}

func TestApplyTransactionUnknownItem(t *testing.T) {
	l, rid := newLedger(t)

	_, err := l.ApplyTransaction(context.Background(), TransactionRequest{
		RestaurantID: rid, InventoryItemID: 999, Type: models.TransactionAdd, Quantity: dec("1"),
	})
	assert.True(t, apperr.IsNotFound(err))
}

func TestLedgerIsTenantScoped(t *testing.T) {
	l, rid := newLedger(t)
	ctx := context.Background()
	other := dbtest.Restaurant(t, l.db, "Other")
	item := createItem(t, l, rid, "5", "1")

	_, err := l.ApplyTransaction(ctx, TransactionRequest{
		RestaurantID: other.ID, InventoryItemID: item.ID, Type: models.TransactionRemove, Quantity: dec("1"),
	})
	assert.True(t, apperr.IsNotFound(err))

	_, err = l.GetItem(ctx, other.ID, item.ID)
	assert.True(t, apperr.IsNotFound(err))

	assert.True(t, apperr.IsNotFound(l.DeleteItem(ctx, other.ID, item.ID)))

	items, err := l.ListItems(ctx, other.ID)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestConcurrentRemovalsNeverOverdraw(t *testing.T) {
	l, rid := newLedger(t)
	ctx := context.Background()
	item := createItem(t, l, rid, "10", "2")

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	for i := 0; i < 15; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.ApplyTransaction(ctx, TransactionRequest{
				RestaurantID: rid, InventoryItemID: item.ID, Type: models.TransactionRemove, Quantity: dec("1"),
			})
			if err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, accepted)
	rec, err := l.Reconcile(ctx, rid, item.ID)
	require.NoError(t, err)
	assert.True(t, rec.Cached.IsZero())
	assert.True(t, rec.Consistent)
}

func TestUpdateItemLeavesQuantityAlone(t *testing.T) {
	l, rid := newLedger(t)
	ctx := context.Background()
	item := createItem(t, l, rid, "10", "5")

	name := "Roma tomatoes"
	min := dec("12")
	got, err := l.UpdateItem(ctx, rid, item.ID, UpdateItemInput{Name: &name, MinimumQuantity: &min})
	require.NoError(t, err)

	assert.Equal(t, "Roma tomatoes", got.Name)
	assert.True(t, got.Quantity.Equal(dec("10")))
	assert.Equal(t, StockLow, got.StockStatus)

	empty := " "
	_, err = l.UpdateItem(ctx, rid, item.ID, UpdateItemInput{Name: &empty})
	assert.True(t, apperr.IsInvalid(err))
}

func TestListLowStockAndDelete(t *testing.T) {
	l, rid := newLedger(t)
	ctx := context.Background()

	low := createItem(t, l, rid, "1", "5")
	createItem(t, l, rid, "50", "5")
	empty := createItem(t, l, rid, "0", "0")

	items, err := l.ListLowStock(ctx, rid)
	require.NoError(t, err)
	require.Len(t, items, 2)
	ids := []int64{items[0].ID, items[1].ID}
	assert.ElementsMatch(t, []int64{low.ID, empty.ID}, ids)

	require.NoError(t, l.DeleteItem(ctx, rid, low.ID))
	_, err = l.GetItem(ctx, rid, low.ID)
	assert.True(t, apperr.IsNotFound(err))

	var n int64
	l.db.Model(&models.InventoryTransaction{}).Where("inventory_item_id = ?", low.ID).Count(&n)
	assert.Zero(t, n)
}

func TestListTransactionsPaginates(t *testing.T) {
	l, rid := newLedger(t)
	ctx := context.Background()
	item := createItem(t, l, rid, "1", "0")

	for i := 0; i < 4; i++ {
		_, err := l.ApplyTransaction(ctx, TransactionRequest{
			RestaurantID: rid, InventoryItemID: item.ID, Type: models.TransactionAdd, Quantity: dec("1"),
		})
		require.NoError(t, err)
	}

	page, total, err := l.ListTransactions(ctx, rid, item.ID, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Len(t, page, 3)

	page, _, err = l.ListTransactions(ctx, rid, item.ID, 3, 3)
	require.NoError(t, err)
	assert.Len(t, page, 2)
}
