package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"servora-system/internal/auth"
	"servora-system/internal/dashboard"
	"servora-system/internal/database/dbtest"
	"servora-system/internal/inventory"
	"servora-system/internal/menu"
	"servora-system/internal/orders"
	"servora-system/internal/reports"
	"servora-system/internal/reservations"
	"servora-system/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

type api struct {
	t      *testing.T
	router *gin.Engine
	tokens *utils.TokenIssuer
}

func newAPI(t *testing.T) *api {
	db := dbtest.New(t)
	logger, _ := test.NewNullLogger()
	tokens := utils.NewTokenIssuer("test-secret", time.Hour)
	ledger := inventory.NewLedger(db, logger)

	router := NewRouter(Deps{
		DB:           db,
		Tokens:       tokens,
		Logger:       logger,
		Auth:         auth.NewService(db, tokens, logger),
		Menu:         menu.NewService(db, nil, logger),
		Orders:       orders.NewService(db, nil, logger, orders.Options{}),
		Reservations: reservations.NewService(db, logger, false),
		Ledger:       ledger,
		Dashboard:    dashboard.NewService(db, ledger, logger),
	})
	return &api{t: t, router: router, tokens: tokens}
}

func (a *api) raw(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

// do sends the request, checks the status and decodes data into out.
func (a *api) do(method, path, token string, body interface{}, wantStatus int, out interface{}) envelope {
	a.t.Helper()
	w := a.raw(method, path, token, body)
	require.Equal(a.t, wantStatus, w.Code, w.Body.String())

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env))
	if out != nil {
		require.NoError(a.t, json.Unmarshal(env.Data, out))
	}
	return env
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID           int64 `json:"id"`
		RestaurantID int64 `json:"restaurant_id"`
	} `json:"user"`
}

func (a *api) register(email, restaurant string) session {
	var s session
	a.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":            "Owner",
		"email":           email,
		"password":        "supersecret",
		"restaurant_name": restaurant,
	}, http.StatusCreated, &s)
	require.NotEmpty(a.t, s.Token)
	return s
}

func (a *api) menuItem(token, name, price string) int64 {
	var cats []struct {
		ID int64 `json:"id"`
	}
	a.do(http.MethodGet, "/api/v1/menu/categories", token, nil, http.StatusOK, &cats)
	require.NotEmpty(a.t, cats)

	var item struct {
		ID int64 `json:"id"`
	}
	a.do(http.MethodPost, "/api/v1/menu/items", token, gin.H{
		"name": name, "price": price, "category_id": cats[0].ID,
	}, http.StatusCreated, &item)
	return item.ID
}

func TestAuthFlow(t *testing.T) {
	a := newAPI(t)
	s := a.register("owner@bistro.test", "Bistro")

	env := a.do(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Again", "email": "owner@bistro.test", "password": "supersecret", "restaurant_name": "Other",
	}, http.StatusConflict, nil)
	assert.False(t, env.Success)
	assert.Equal(t, "email already registered", env.Error)

	a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "owner@bistro.test", "password": "wrong-password",
	}, http.StatusUnauthorized, nil)

	var login session
	a.do(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "owner@bistro.test", "password": "supersecret",
	}, http.StatusOK, &login)
	assert.Equal(t, s.User.ID, login.User.ID)

	var me struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	a.do(http.MethodGet, "/api/v1/auth/me", login.Token, nil, http.StatusOK, &me)
	assert.Equal(t, "owner@bistro.test", me.Email)
	assert.Equal(t, "ADMIN", me.Role)

	a.do(http.MethodGet, "/api/v1/auth/me", "", nil, http.StatusUnauthorized, nil)
}

func TestOrderFlow(t *testing.T) {
	a := newAPI(t)
	s := a.register("owner@bistro.test", "Bistro")
	pizza := a.menuItem(s.Token, "Pizza", "12.99")

	type orderResp struct {
		ID           int64  `json:"id"`
		OrderNumber  string `json:"order_number"`
		Status       string `json:"status"`
		TotalAmount  string `json:"total_amount"`
		TotalDisplay string `json:"total_display"`
		OrderItems   []struct {
			Price    string `json:"price"`
			Quantity int    `json:"quantity"`
		} `json:"order_items"`
	}

	var order orderResp
	a.do(http.MethodPost, "/api/v1/orders", s.Token, gin.H{
		"table_number": "4",
		"items": []gin.H{
			{"menu_item_id": pizza, "quantity": 3},
			{"menu_item_id": 9999, "quantity": 1},
		},
	}, http.StatusCreated, &order)
	assert.Equal(t, "38.97", order.TotalAmount)
	assert.Equal(t, "$38.97", order.TotalDisplay)
	assert.Equal(t, "ORD00001", order.OrderNumber)
	assert.Equal(t, "PENDING", order.Status)
	require.Len(t, order.OrderItems, 1)

	path := "/api/v1/orders/" + strconv.FormatInt(order.ID, 10)
	a.do(http.MethodPatch, path+"/status", s.Token, gin.H{"status": "SERVED"}, http.StatusOK, &order)
	assert.Equal(t, "SERVED", order.Status)

	a.do(http.MethodPatch, path+"/status", s.Token, gin.H{"status": "EATEN"}, http.StatusBadRequest, nil)

	a.do(http.MethodPost, "/api/v1/pos/orders/"+strconv.FormatInt(order.ID, 10)+"/complete", s.Token, nil, http.StatusOK, &order)
	assert.Equal(t, "PAID", order.Status)

	var list []orderResp
	env := a.do(http.MethodGet, "/api/v1/orders?status=PAID", s.Token, nil, http.StatusOK, &list)
	assert.True(t, env.Success)
	assert.Len(t, list, 1)

	var stats struct {
		TotalRevenue string `json:"total_revenue"`
		TotalOrders  int64  `json:"total_orders"`
	}
	a.do(http.MethodGet, "/api/v1/dashboard/stats", s.Token, nil, http.StatusOK, &stats)
	assert.Equal(t, "38.97", stats.TotalRevenue)
	assert.Equal(t, int64(1), stats.TotalOrders)

	w := a.raw(http.MethodGet, "/api/v1/dashboard/sales/export", s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), reports.OrdersSheet)

	// another tenant cannot see the order
	other := a.register("owner@other.test", "Other")
	a.do(http.MethodGet, path, other.Token, nil, http.StatusNotFound, nil)
}

func TestOrderRejectsEmptyItems(t *testing.T) {
	a := newAPI(t)
	s := a.register("owner@bistro.test", "Bistro")

	env := a.do(http.MethodPost, "/api/v1/pos/orders", s.Token, gin.H{
		"items": []gin.H{{"menu_item_id": 12345, "quantity": 1}},
	}, http.StatusBadRequest, nil)
	assert.Equal(t, "order must contain at least one item", env.Error)
}

func TestMenuRequiresManager(t *testing.T) {
	a := newAPI(t)
	s := a.register("owner@bistro.test", "Bistro")

	staff, _, err := a.tokens.GenerateToken(s.User.ID, s.User.RestaurantID, "staff@bistro.test", "STAFF")
	require.NoError(t, err)

	a.do(http.MethodPost, "/api/v1/menu/items", staff, gin.H{"name": "Soup", "price": "4"}, http.StatusForbidden, nil)
	a.do(http.MethodGet, "/api/v1/menu/items", staff, nil, http.StatusOK, nil)
}

func TestMenuDiscountFlow(t *testing.T) {
	a := newAPI(t)
	s := a.register("owner@bistro.test", "Bistro")
	id := a.menuItem(s.Token, "Steak", "20")

	now := time.Now().UTC()
	var discount struct {
		ID int64 `json:"id"`
	}
	a.do(http.MethodPost, "/api/v1/menu/discounts", s.Token, gin.H{
		"menu_item_id":   id,
		"discount_type":  "PERCENTAGE",
		"discount_value": "50",
		"start_date":     now.Add(-time.Hour),
		"end_date":       now.Add(time.Hour),
	}, http.StatusCreated, &discount)

	var item struct {
		ResolvedPrice string `json:"resolved_price"`
		PriceSource   string `json:"price_source"`
	}
	itemPath := "/api/v1/menu/items/" + strconv.FormatInt(id, 10)
	a.do(http.MethodGet, itemPath, s.Token, nil, http.StatusOK, &item)
	assert.Equal(t, "10", item.ResolvedPrice)
	assert.Equal(t, "DISCOUNT", item.PriceSource)

	a.do(http.MethodPatch, "/api/v1/menu/discounts/"+strconv.FormatInt(discount.ID, 10), s.Token,
		gin.H{"is_active": false}, http.StatusOK, nil)
	a.do(http.MethodGet, itemPath, s.Token, nil, http.StatusOK, &item)
	assert.Equal(t, "20", item.ResolvedPrice)

	a.do(http.MethodPost, "/api/v1/menu/discounts", s.Token, gin.H{
		"menu_item_id":   id,
		"discount_type":  "PERCENTAGE",
		"discount_value": "150",
		"start_date":     now,
		"end_date":       now.Add(time.Hour),
	}, http.StatusBadRequest, nil)

	var deleted struct {
		Deleted int64 `json:"deleted"`
	}
	a.do(http.MethodDelete, "/api/v1/menu/items", s.Token, gin.H{"ids": []int64{id}}, http.StatusOK, &deleted)
	assert.Equal(t, int64(1), deleted.Deleted)
	a.do(http.MethodGet, itemPath, s.Token, nil, http.StatusNotFound, nil)
}

func TestInventoryFlow(t *testing.T) {
	a := newAPI(t)
	s := a.register("owner@bistro.test", "Bistro")

	var item struct {
		ID          int64  `json:"id"`
		StockStatus string `json:"stock_status"`
	}
	a.do(http.MethodPost, "/api/v1/inventory", s.Token, gin.H{
		"name": "Tomatoes", "quantity": "10", "unit": "kg", "minimum_quantity": "5", "cost_per_unit": "2.40",
	}, http.StatusCreated, &item)
	assert.Equal(t, "IN_STOCK", item.StockStatus)

	var res struct {
		StockStatus string `json:"stock_status"`
		Transaction struct {
			Attributes map[string]interface{} `json:"attributes"`
		} `json:"transaction"`
	}
	a.do(http.MethodPost, "/api/v1/inventory/transactions", s.Token, gin.H{
		"inventory_item_id": item.ID, "type": "REMOVE", "quantity": "6",
	}, http.StatusCreated, &res)
	assert.Equal(t, "LOW_STOCK", res.StockStatus)
	assert.EqualValues(t, s.User.ID, res.Transaction.Attributes["recorded_by"])
	assert.Equal(t, "dashboard", res.Transaction.Attributes["channel"])

	env := a.do(http.MethodPost, "/api/v1/inventory/transactions", s.Token, gin.H{
		"inventory_item_id": item.ID, "type": "WASTE", "quantity": "5",
	}, http.StatusBadRequest, nil)
	assert.Contains(t, env.Error, "insufficient stock")

	var low []struct {
		ID int64 `json:"id"`
	}
	a.do(http.MethodGet, "/api/v1/inventory/low-stock", s.Token, nil, http.StatusOK, &low)
	require.Len(t, low, 1)
	assert.Equal(t, item.ID, low[0].ID)

	itemPath := "/api/v1/inventory/" + strconv.FormatInt(item.ID, 10)
	var txns []struct {
		Type string `json:"type"`
	}
	a.do(http.MethodGet, itemPath+"/transactions", s.Token, nil, http.StatusOK, &txns)
	assert.Len(t, txns, 2)

	var rec struct {
		Consistent bool `json:"consistent"`
	}
	a.do(http.MethodGet, itemPath+"/reconcile", s.Token, nil, http.StatusOK, &rec)
	assert.True(t, rec.Consistent)

	w := a.raw(http.MethodGet, "/api/v1/inventory/export", s.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "inventory-")
	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), reports.InventorySheet)

	a.do(http.MethodDelete, itemPath, s.Token, nil, http.StatusOK, nil)
	a.do(http.MethodGet, itemPath, s.Token, nil, http.StatusNotFound, nil)
}

func TestReservationFlow(t *testing.T) {
	a := newAPI(t)
	s := a.register("owner@bistro.test", "Bistro")

	var r struct {
		ID     int64  `json:"id"`
		Status string `json:"status"`
		Guests int    `json:"guests"`
	}
	a.do(http.MethodPost, "/api/v1/reservations", s.Token, gin.H{
		"customer_name": "Ada", "guests": 4, "reservation_time": time.Now().Add(24 * time.Hour).UTC(),
	}, http.StatusCreated, &r)
	assert.Equal(t, "CONFIRMED", r.Status)

	a.do(http.MethodPost, "/api/v1/reservations", s.Token, gin.H{
		"customer_name": "Bob", "guests": 0, "reservation_time": time.Now().UTC(),
	}, http.StatusBadRequest, nil)

	path := "/api/v1/reservations/" + strconv.FormatInt(r.ID, 10)
	a.do(http.MethodPatch, path, s.Token, gin.H{"guests": 6}, http.StatusOK, &r)
	assert.Equal(t, 6, r.Guests)

	a.do(http.MethodPatch, path+"/status", s.Token, gin.H{"status": "COMPLETED"}, http.StatusOK, &r)
	assert.Equal(t, "COMPLETED", r.Status)

	var list []struct{ ID int64 }
	a.do(http.MethodGet, "/api/v1/reservations?status=COMPLETED", s.Token, nil, http.StatusOK, &list)
	assert.Len(t, list, 1)

	a.do(http.MethodDelete, path, s.Token, nil, http.StatusOK, nil)
	a.do(http.MethodDelete, path, s.Token, nil, http.StatusNotFound, nil)
}

func TestHealth(t *testing.T) {
	a := newAPI(t)

	var body struct {
		Status   string            `json:"status"`
		Services map[string]string `json:"services"`
	}
	w := a.raw(http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Services["database"])
	assert.Equal(t, "disabled", body.Services["redis"])
	assert.Equal(t, "in-process", body.Services["ledger"])
	assert.Equal(t, "in-process", w.Header().Get("X-Inventory-Service"))
}
