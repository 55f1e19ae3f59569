package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"servora-system/internal/database/models"
	"servora-system/internal/gateway/middleware"
	"servora-system/internal/inventory"
	"servora-system/internal/reports"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// LedgerRecorder applies stock movements. It is satisfied by the in-process
// ledger and by the gRPC ledger client.
type LedgerRecorder interface {
	ApplyTransaction(ctx context.Context, req inventory.TransactionRequest) (*inventory.TransactionResult, error)
}

type InventoryHTTPHandler struct {
	ledger   *inventory.Ledger
	recorder LedgerRecorder
	currency CurrencyLookup
	log      log.FieldLogger
}

// NewInventoryHTTPHandler serves inventory from ledger. Transactions go
// through recorder, which defaults to ledger itself when nil.
func NewInventoryHTTPHandler(ledger *inventory.Ledger, recorder LedgerRecorder, lookup CurrencyLookup, logger log.FieldLogger) *InventoryHTTPHandler {
	if recorder == nil {
		recorder = ledger
	}
	return &InventoryHTTPHandler{ledger: ledger, recorder: recorder, currency: lookup, log: logger}
}

type createInventoryItemRequest struct {
	Name            string          `json:"name" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity"`
	Unit            string          `json:"unit"`
	MinimumQuantity decimal.Decimal `json:"minimum_quantity"`
	CostPerUnit     decimal.Decimal `json:"cost_per_unit"`
}

type updateInventoryItemRequest struct {
	Name            *string          `json:"name"`
	Unit            *string          `json:"unit"`
	MinimumQuantity *decimal.Decimal `json:"minimum_quantity"`
	CostPerUnit     *decimal.Decimal `json:"cost_per_unit"`
}

type recordTransactionRequest struct {
	InventoryItemID int64                  `json:"inventory_item_id" binding:"required"`
	Type            models.TransactionType `json:"type" binding:"required"`
	Quantity        decimal.Decimal        `json:"quantity"`
	Notes           *string                `json:"notes"`
	Attributes      map[string]interface{} `json:"attributes"`
}

// Item endpoints
func (h *InventoryHTTPHandler) ListItems(c *gin.Context) {
	items, err := h.ledger.ListItems(c.Request.Context(), middleware.RestaurantID(c))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, items)
}

func (h *InventoryHTTPHandler) CreateItem(c *gin.Context) {
	var req createInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.ledger.CreateItem(c.Request.Context(), middleware.RestaurantID(c), inventory.CreateItemInput{
		Name:            req.Name,
		Quantity:        req.Quantity,
		Unit:            req.Unit,
		MinimumQuantity: req.MinimumQuantity,
		CostPerUnit:     req.CostPerUnit,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	created(c, item)
}

func (h *InventoryHTTPHandler) GetItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid inventory item ID")
		return
	}

	item, err := h.ledger.GetItem(c.Request.Context(), middleware.RestaurantID(c), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, item)
}

func (h *InventoryHTTPHandler) UpdateItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid inventory item ID")
		return
	}

	var req updateInventoryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.ledger.UpdateItem(c.Request.Context(), middleware.RestaurantID(c), id, inventory.UpdateItemInput{
		Name:            req.Name,
		Unit:            req.Unit,
		MinimumQuantity: req.MinimumQuantity,
		CostPerUnit:     req.CostPerUnit,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, item)
}

func (h *InventoryHTTPHandler) DeleteItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid inventory item ID")
		return
	}

	if err := h.ledger.DeleteItem(c.Request.Context(), middleware.RestaurantID(c), id); err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, gin.H{"id": id})
}

func (h *InventoryHTTPHandler) ListLowStock(c *gin.Context) {
	items, err := h.ledger.ListLowStock(c.Request.Context(), middleware.RestaurantID(c))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, items)
}

// Ledger endpoints

// RecordTransaction applies one stock movement. The caller's user id is kept
// on the transaction as recorded_by.
func (h *InventoryHTTPHandler) RecordTransaction(c *gin.Context) {
	var req recordTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	attrs := req.Attributes
	if attrs == nil {
		attrs = map[string]interface{}{}
	}
	attrs["recorded_by"] = middleware.UserID(c)
	if _, ok := attrs["channel"]; !ok {
		attrs["channel"] = "dashboard"
	}

	res, err := h.recorder.ApplyTransaction(c.Request.Context(), inventory.TransactionRequest{
		RestaurantID:    middleware.RestaurantID(c),
		InventoryItemID: req.InventoryItemID,
		Type:            req.Type,
		Quantity:        req.Quantity,
		Notes:           req.Notes,
		Attributes:      attrs,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	created(c, res)
}

func (h *InventoryHTTPHandler) ListTransactions(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid inventory item ID")
		return
	}

	limit := parseIntQuery(c, "limit", 50)
	offset := parseIntQuery(c, "offset", 0)
	txns, total, err := h.ledger.ListTransactions(c.Request.Context(), middleware.RestaurantID(c), id, limit, offset)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    txns,
		"pagination": gin.H{
			"limit":       limit,
			"offset":      offset,
			"total_count": total,
		},
	})
}

func (h *InventoryHTTPHandler) Reconcile(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid inventory item ID")
		return
	}

	rec, err := h.ledger.Reconcile(c.Request.Context(), middleware.RestaurantID(c), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	if !rec.Consistent {
		h.log.WithFields(log.Fields{
			"restaurant_id":     middleware.RestaurantID(c),
			"inventory_item_id": id,
			"cached":            rec.Cached.String(),
			"ledger":            rec.Ledger.String(),
		}).Warn("inventory quantity drifted from its ledger")
	}
	success(c, rec)
}

// Export downloads the stock sheet as an xlsx workbook.
func (h *InventoryHTTPHandler) Export(c *gin.Context) {
	rid := middleware.RestaurantID(c)
	items, err := h.ledger.ListItems(c.Request.Context(), rid)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	code, err := h.currency.Currency(c.Request.Context(), rid)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	f, err := reports.InventoryWorkbook(items, code)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	writeWorkbook(c, h.log, f, fmt.Sprintf("inventory-%s.xlsx", time.Now().UTC().Format(dateLayout)))
}
