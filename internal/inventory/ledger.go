// Package inventory keeps each InventoryItem.Quantity consistent with its
// append-only transaction ledger.
package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"servora-system/internal/apperr"
	"servora-system/internal/database/models"
)

const recentTransactions = 5

type Ledger struct {
	db  *gorm.DB
	log log.FieldLogger
	now func() time.Time
}

func NewLedger(db *gorm.DB, logger log.FieldLogger) *Ledger {
	return &Ledger{db: db, log: logger, now: func() time.Time { return time.Now().UTC() }}
}

type TransactionRequest struct {
	RestaurantID    int64
	InventoryItemID int64
	Type            models.TransactionType
	Quantity        decimal.Decimal
	Notes           *string
	Attributes      map[string]interface{}
}

type TransactionResult struct {
	Transaction models.InventoryTransaction `json:"transaction"`
	Item        models.InventoryItem        `json:"item"`
	StockStatus StockStatus                 `json:"stock_status"`
}

// ItemView is an inventory item together with its derived stock status.
type ItemView struct {
	models.InventoryItem
	StockStatus StockStatus `json:"stock_status"`
}

func view(item models.InventoryItem) ItemView {
	return ItemView{InventoryItem: item, StockStatus: Classify(item)}
}

// ApplyTransaction appends a ledger row and moves the cached quantity in the
// same database transaction. The quantity is changed with a single
// conditional UPDATE so concurrent writers cannot lose updates, and a
// REMOVE or WASTE larger than the stock on hand is rejected.
func (l *Ledger) ApplyTransaction(ctx context.Context, req TransactionRequest) (*TransactionResult, error) {
	if req.InventoryItemID == 0 {
		return nil, apperr.Invalid("inventory_item_id required")
	}
	if !req.Type.Valid() {
		return nil, apperr.Invalid("invalid transaction type %q", req.Type)
	}
	if !req.Quantity.IsPositive() {
		return nil, apperr.Invalid("quantity must be greater than 0")
	}

	delta := req.Quantity
	if req.Type != models.TransactionAdd {
		delta = delta.Neg()
	}

	var result TransactionResult
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := l.now()

		update := tx.Model(&models.InventoryItem{}).
			Where("id = ? AND restaurant_id = ?", req.InventoryItemID, req.RestaurantID)
		if delta.IsNegative() {
			update = update.Where("quantity >= ?", req.Quantity)
		}
		res := update.Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": now,
		})
		if res.Error != nil {
			return apperr.Internal(res.Error, "failed to update stock")
		}

		if res.RowsAffected == 0 {
			var item models.InventoryItem
			err := tx.Where("id = ? AND restaurant_id = ?", req.InventoryItemID, req.RestaurantID).First(&item).Error
			if err != nil {
				return apperr.FromDB(err, "inventory item")
			}
			return apperr.Invalid("insufficient stock: available %s, requested %s",
				item.Quantity.String(), req.Quantity.String())
		}

		result.Transaction = models.InventoryTransaction{
			InventoryItemID: req.InventoryItemID,
			Type:            req.Type,
			Quantity:        req.Quantity,
			Notes:           trimmed(req.Notes),
			CreatedAt:       now,
		}
		if len(req.Attributes) > 0 {
			result.Transaction.Attributes = datatypes.JSONMap(req.Attributes)
		}
		if err := tx.Create(&result.Transaction).Error; err != nil {
			return apperr.Internal(err, "failed to create inventory transaction")
		}

		if err := tx.First(&result.Item, req.InventoryItemID).Error; err != nil {
			return apperr.Internal(err, "failed to reload inventory item")
		}
		return nil
	})
	if err != nil {
		if apperr.KindOf(err) == apperr.KindInternal {
			l.log.WithError(err).WithField("inventory_item_id", req.InventoryItemID).Error("inventory transaction failed")
		}
		return nil, err
	}

	result.StockStatus = Classify(result.Item)
	l.log.WithFields(log.Fields{
		"restaurant_id":     req.RestaurantID,
		"inventory_item_id": req.InventoryItemID,
		"type":              req.Type,
		"quantity":          req.Quantity.String(),
		"on_hand":           result.Item.Quantity.String(),
	}).Info("inventory transaction recorded")

	return &result, nil
}

type CreateItemInput struct {
	Name            string
	Quantity        decimal.Decimal
	Unit            string
	MinimumQuantity decimal.Decimal
	CostPerUnit     decimal.Decimal
}

// CreateItem stores a new item. A non-zero opening quantity is recorded as an
// ADD transaction so the ledger sums to the cached quantity from day one.
func (l *Ledger) CreateItem(ctx context.Context, restaurantID int64, in CreateItemInput) (*ItemView, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, apperr.Invalid("name required")
	}
	if in.Quantity.IsNegative() || in.MinimumQuantity.IsNegative() || in.CostPerUnit.IsNegative() {
		return nil, apperr.Invalid("quantities and cost must not be negative")
	}
	unit := strings.TrimSpace(in.Unit)
	if unit == "" {
		unit = "pcs"
	}

	item := models.InventoryItem{
		RestaurantID:    restaurantID,
		Name:            name,
		Quantity:        in.Quantity,
		Unit:            unit,
		MinimumQuantity: in.MinimumQuantity,
		CostPerUnit:     in.CostPerUnit,
	}

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&item).Error; err != nil {
			return err
		}
		if !in.Quantity.IsPositive() {
			return nil
		}
		notes := "Opening stock"
		opening := models.InventoryTransaction{
			InventoryItemID: item.ID,
			Type:            models.TransactionAdd,
			Quantity:        in.Quantity,
			Notes:           &notes,
			CreatedAt:       l.now(),
		}
		if err := tx.Create(&opening).Error; err != nil {
			return err
		}
		item.Transactions = []models.InventoryTransaction{opening}
		return nil
	})
	if err != nil {
		l.log.WithError(err).WithField("restaurant_id", restaurantID).Error("failed to create inventory item")
		return nil, apperr.Internal(err, "failed to create inventory item")
	}

	v := view(item)
	return &v, nil
}

// UpdateItemInput changes descriptive fields only. Quantity moves exclusively
// through ApplyTransaction.
type UpdateItemInput struct {
	Name            *string
	Unit            *string
	MinimumQuantity *decimal.Decimal
	CostPerUnit     *decimal.Decimal
}

func (l *Ledger) UpdateItem(ctx context.Context, restaurantID, id int64, in UpdateItemInput) (*ItemView, error) {
	item, err := l.find(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, apperr.Invalid("name must not be empty")
		}
		updates["name"] = name
	}
	if in.Unit != nil {
		updates["unit"] = strings.TrimSpace(*in.Unit)
	}
	if in.MinimumQuantity != nil {
		if in.MinimumQuantity.IsNegative() {
			return nil, apperr.Invalid("minimum_quantity must not be negative")
		}
		updates["minimum_quantity"] = *in.MinimumQuantity
	}
	if in.CostPerUnit != nil {
		if in.CostPerUnit.IsNegative() {
			return nil, apperr.Invalid("cost_per_unit must not be negative")
		}
		updates["cost_per_unit"] = *in.CostPerUnit
	}
	if len(updates) == 0 {
		v := view(*item)
		return &v, nil
	}

	db := l.db.WithContext(ctx)
	if err := db.Model(item).Updates(updates).Error; err != nil {
		l.log.WithError(err).WithField("inventory_item_id", id).Error("failed to update inventory item")
		return nil, apperr.Internal(err, "failed to update inventory item")
	}
	return l.GetItem(ctx, restaurantID, id)
}

// DeleteItem removes the item together with its ledger.
func (l *Ledger) DeleteItem(ctx context.Context, restaurantID, id int64) error {
	if _, err := l.find(ctx, restaurantID, id); err != nil {
		return err
	}
	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("inventory_item_id = ?", id).Delete(&models.InventoryTransaction{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.InventoryItem{}, id).Error
	})
	if err != nil {
		l.log.WithError(err).WithField("inventory_item_id", id).Error("failed to delete inventory item")
		return apperr.Internal(err, "failed to delete inventory item")
	}
	return nil
}

func (l *Ledger) GetItem(ctx context.Context, restaurantID, id int64) (*ItemView, error) {
	item, err := l.find(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}
	if err := l.attachRecent(ctx, item); err != nil {
		return nil, err
	}
	v := view(*item)
	return &v, nil
}

// ListItems returns all items of the restaurant by name with their latest transactions.
func (l *Ledger) ListItems(ctx context.Context, restaurantID int64) ([]ItemView, error) {
	var items []models.InventoryItem
	if err := l.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("name ASC").Find(&items).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list inventory")
	}

	views := make([]ItemView, 0, len(items))
	for i := range items {
		if err := l.attachRecent(ctx, &items[i]); err != nil {
			return nil, err
		}
		views = append(views, view(items[i]))
	}
	return views, nil
}

// ListLowStock returns items at or below their minimum quantity, out of stock included.
func (l *Ledger) ListLowStock(ctx context.Context, restaurantID int64) ([]ItemView, error) {
	var items []models.InventoryItem
	err := l.db.WithContext(ctx).
		Where("restaurant_id = ? AND quantity <= minimum_quantity", restaurantID).
		Order("name ASC").
		Find(&items).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to list low stock")
	}

	views := make([]ItemView, len(items))
	for i, it := range items {
		views[i] = view(it)
	}
	return views, nil
}

// ListTransactions pages through an item's ledger, newest first.
func (l *Ledger) ListTransactions(ctx context.Context, restaurantID, itemID int64, limit, offset int) ([]models.InventoryTransaction, int64, error) {
	if _, err := l.find(ctx, restaurantID, itemID); err != nil {
		return nil, 0, err
	}
	if limit <= 0 {
		limit = 20
	}

	var total int64
	query := l.db.WithContext(ctx).Model(&models.InventoryTransaction{}).
		Where("inventory_item_id = ?", itemID).
		Session(&gorm.Session{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to count transactions")
	}

	var txns []models.InventoryTransaction
	if err := query.Order("created_at DESC, id DESC").Offset(offset).Limit(limit).Find(&txns).Error; err != nil {
		return nil, 0, apperr.Internal(err, "failed to list transactions")
	}
	return txns, total, nil
}

// Reconciliation compares the cached quantity with the full ledger replay.
type Reconciliation struct {
	InventoryItemID int64           `json:"inventory_item_id"`
	Cached          decimal.Decimal `json:"cached"`
	Ledger          decimal.Decimal `json:"ledger"`
	Consistent      bool            `json:"consistent"`
}

func (l *Ledger) Reconcile(ctx context.Context, restaurantID, itemID int64) (*Reconciliation, error) {
	item, err := l.find(ctx, restaurantID, itemID)
	if err != nil {
		return nil, err
	}

	var txns []models.InventoryTransaction
	if err := l.db.WithContext(ctx).Where("inventory_item_id = ?", itemID).Order("id ASC").Find(&txns).Error; err != nil {
		return nil, apperr.Internal(err, "failed to load ledger")
	}

	sum := Replay(decimal.Zero, txns)
	return &Reconciliation{
		InventoryItemID: itemID,
		Cached:          item.Quantity,
		Ledger:          sum,
		Consistent:      sum.Equal(item.Quantity),
	}, nil
}

func (l *Ledger) find(ctx context.Context, restaurantID, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := l.db.WithContext(ctx).Where("id = ? AND restaurant_id = ?", id, restaurantID).First(&item).Error
	if err != nil {
		return nil, apperr.FromDB(err, "inventory item")
	}
	return &item, nil
}

func (l *Ledger) attachRecent(ctx context.Context, item *models.InventoryItem) error {
	err := l.db.WithContext(ctx).
		Where("inventory_item_id = ?", item.ID).
		Order("created_at DESC, id DESC").
		Limit(recentTransactions).
		Find(&item.Transactions).Error
	if err != nil {
		return apperr.Internal(err, "failed to load transactions")
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
