package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"servora-system/internal/gateway/middleware"
	"servora-system/internal/menu"
)

type MenuHTTPHandler struct {
	menu *menu.Service
	log  log.FieldLogger
}

func NewMenuHTTPHandler(menuService *menu.Service, logger log.FieldLogger) *MenuHTTPHandler {
	return &MenuHTTPHandler{menu: menuService, log: logger}
}

// Category endpoints
func (h *MenuHTTPHandler) ListCategories(c *gin.Context) {
	cats, err := h.menu.ListCategories(c.Request.Context(), middleware.RestaurantID(c))
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, cats)
}

func (h *MenuHTTPHandler) CreateCategory(c *gin.Context) {
	var req menu.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	cat, err := h.menu.CreateCategory(c.Request.Context(), middleware.RestaurantID(c), req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	created(c, cat)
}

// Item endpoints
func (h *MenuHTTPHandler) ListItems(c *gin.Context) {
	filter := menu.ItemFilter{
		AvailableOnly: parseBoolQuery(c, "available"),
		FeaturedOnly:  parseBoolQuery(c, "featured"),
	}
	if id := parseInt64Query(c, "category_id"); id != nil {
		filter.CategoryID = *id
	}

	items, err := h.menu.ListItems(c.Request.Context(), middleware.RestaurantID(c), filter)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, items)
}

func (h *MenuHTTPHandler) GetItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid menu item ID")
		return
	}

	item, err := h.menu.GetItem(c.Request.Context(), middleware.RestaurantID(c), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, item)
}

func (h *MenuHTTPHandler) CreateItem(c *gin.Context) {
	var req menu.ItemInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.menu.CreateItem(c.Request.Context(), middleware.RestaurantID(c), req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	created(c, item)
}

func (h *MenuHTTPHandler) UpdateItem(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid menu item ID")
		return
	}

	var req menu.ItemPatch
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	item, err := h.menu.UpdateItem(c.Request.Context(), middleware.RestaurantID(c), id, req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, item)
}

type deleteItemsRequest struct {
	IDs []int64 `json:"ids" binding:"required,min=1"`
}

func (h *MenuHTTPHandler) DeleteItems(c *gin.Context) {
	var req deleteItemsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	n, err := h.menu.DeleteItems(c.Request.Context(), middleware.RestaurantID(c), req.IDs)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, gin.H{"deleted": n})
}

// Discount endpoints
func (h *MenuHTTPHandler) ListDiscounts(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid menu item ID")
		return
	}

	discounts, err := h.menu.ListDiscounts(c.Request.Context(), middleware.RestaurantID(c), id)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, discounts)
}

func (h *MenuHTTPHandler) CreateDiscount(c *gin.Context) {
	var req menu.DiscountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.menu.CreateDiscount(c.Request.Context(), middleware.RestaurantID(c), req)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	created(c, d)
}

type discountStateRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

func (h *MenuHTTPHandler) SetDiscountActive(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid discount ID")
		return
	}

	var req discountStateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	d, err := h.menu.SetDiscountActive(c.Request.Context(), middleware.RestaurantID(c), id, *req.IsActive)
	if err != nil {
		handleError(c, h.log, err)
		return
	}
	success(c, d)
}
