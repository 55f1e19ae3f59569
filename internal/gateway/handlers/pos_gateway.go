package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"servora-system/internal/currency"
	"servora-system/internal/database/models"
	"servora-system/internal/gateway/middleware"
	"servora-system/internal/menu"
	"servora-system/internal/orders"
)

// CurrencyLookup resolves the restaurant's ISO currency code.
type CurrencyLookup interface {
	Currency(ctx context.Context, restaurantID int64) (string, error)
}

type POSHTTPHandler struct {
	orders   *orders.Service
	menu     *menu.Service
	currency CurrencyLookup
	log      log.FieldLogger
}

func NewPOSHTTPHandler(orderService *orders.Service, menuService *menu.Service, lookup CurrencyLookup, logger log.FieldLogger) *POSHTTPHandler {
	return &POSHTTPHandler{orders: orderService, menu: menuService, currency: lookup, log: logger}
}

type orderView struct {
	models.Order
	OrderNumber  string `json:"order_number"`
	TotalDisplay string `json:"total_display,omitempty"`
}

// code is the tenant's currency, or "" when it cannot be looked up; the
// display amount is then omitted.
func (h *POSHTTPHandler) code(c *gin.Context) string {
	code, err := h.currency.Currency(c.Request.Context(), middleware.RestaurantID(c))
	if err != nil {
		h.log.WithError(err).Warn("currency lookup failed")
		return ""
	}
	return code
}

func orderViewOf(o models.Order, code string) orderView {
	v := orderView{Order: o, OrderNumber: o.OrderNumber()}
	if code != "" {
		v.TotalDisplay = currency.Format(o.TotalAmount, code)
	}
	return v
}

// Order endpoints
func (h *POSHTTPHandler) CreateOrder(c *gin.Context) {
	var req orders.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orders.Create(c.Request.Context(), middleware.RestaurantID(c), req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	created(c, orderViewOf(*order, h.code(c)))
}

func (h *POSHTTPHandler) ListOrders(c *gin.Context) {
	page, err := h.orders.List(c.Request.Context(), middleware.RestaurantID(c), orders.ListFilter{
		Status:    models.OrderStatus(c.Query("status")),
		PageSize:  parseIntQuery(c, "page_size", 20),
		PageToken: c.Query("page_token"),
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	code := h.code(c)
	views := make([]orderView, 0, len(page.Orders))
	for _, o := range page.Orders {
		views = append(views, orderViewOf(o, code))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    views,
		"pagination": gin.H{
			"next_page_token": page.NextPageToken,
			"total_count":     page.TotalCount,
		},
	})
}

func (h *POSHTTPHandler) GetOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.orders.Get(c.Request.Context(), middleware.RestaurantID(c), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, orderViewOf(*order, h.code(c)))
}

type orderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
}

func (h *POSHTTPHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	var req orderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	order, err := h.orders.UpdateStatus(c.Request.Context(), middleware.RestaurantID(c), id, req.Status)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, orderViewOf(*order, h.code(c)))
}

// POS endpoints

// Menu lists what the till can sell right now, with resolved prices.
func (h *POSHTTPHandler) Menu(c *gin.Context) {
	items, err := h.menu.ListItems(c.Request.Context(), middleware.RestaurantID(c), menu.ItemFilter{AvailableOnly: true})
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, items)
}

// CompleteOrder marks the order paid at the till.
func (h *POSHTTPHandler) CompleteOrder(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid order ID")
		return
	}

	order, err := h.orders.Complete(c.Request.Context(), middleware.RestaurantID(c), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, orderViewOf(*order, h.code(c)))
}
