// Package dashboard aggregates the numbers shown on the restaurant dashboard.
package dashboard

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"servora-system/internal/apperr"
	"servora-system/internal/currency"
	"servora-system/internal/database/models"
	"servora-system/internal/inventory"
)

const (
	popularLimit = 5
	recentLimit  = 5
	seriesDays   = 7
)

type Service struct {
	db     *gorm.DB
	ledger *inventory.Ledger
	log    log.FieldLogger
	now    func() time.Time
}

func NewService(db *gorm.DB, ledger *inventory.Ledger, logger log.FieldLogger) *Service {
	return &Service{db: db, ledger: ledger, log: logger, now: func() time.Time { return time.Now().UTC() }}
}

type PopularItem struct {
	MenuItemID int64           `json:"menu_item_id"`
	Name       string          `json:"name"`
	UnitsSold  int64           `json:"units_sold"`
	Revenue    decimal.Decimal `json:"revenue"`
}

type DailyRevenue struct {
	Date    string          `json:"date"`
	Revenue decimal.Decimal `json:"revenue"`
	Orders  int             `json:"orders"`
}

type Stats struct {
	Currency           string               `json:"currency"`
	TotalRevenue       decimal.Decimal      `json:"total_revenue"`
	TodayRevenue       decimal.Decimal      `json:"today_revenue"`
	TotalRevenueText   string               `json:"total_revenue_display"`
	TodayRevenueText   string               `json:"today_revenue_display"`
	TotalOrders        int64                `json:"total_orders"`
	TodayOrders        int64                `json:"today_orders"`
	ActiveReservations int64                `json:"active_reservations"`
	LowStockCount      int                  `json:"low_stock_count"`
	LowStockAlerts     []inventory.ItemView `json:"low_stock_alerts"`
	PopularItems       []PopularItem        `json:"popular_items"`
	RevenueSeries      []DailyRevenue       `json:"revenue_series"`
	RecentOrders       []models.Order       `json:"recent_orders"`
}

type totals struct {
	Revenue    decimal.Decimal
	OrderCount int64
}

// Stats computes the dashboard for one restaurant. Cancelled orders never
// count towards revenue.
func (s *Service) Stats(ctx context.Context, restaurantID int64) (*Stats, error) {
	now := s.now()
	today := startOfDay(now)
	db := s.db.WithContext(ctx)

	all, err := s.totals(db, restaurantID, time.Time{})
	if err != nil {
		return nil, err
	}
	day, err := s.totals(db, restaurantID, today)
	if err != nil {
		return nil, err
	}

	code, err := s.Currency(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		Currency:     code,
		TotalRevenue: currency.Round(all.Revenue),
		TodayRevenue: currency.Round(day.Revenue),
		TotalOrders:  all.OrderCount,
		TodayOrders:  day.OrderCount,
	}
	stats.TotalRevenueText = currency.Format(stats.TotalRevenue, code)
	stats.TodayRevenueText = currency.Format(stats.TodayRevenue, code)

	err = db.Model(&models.Reservation{}).
		Where("restaurant_id = ? AND status IN ? AND reservation_time >= ?", restaurantID,
			[]models.ReservationStatus{models.ReservationPending, models.ReservationConfirmed}, now).
		Count(&stats.ActiveReservations).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to count reservations")
	}

	stats.LowStockAlerts, err = s.ledger.ListLowStock(ctx, restaurantID)
	if err != nil {
		return nil, err
	}
	stats.LowStockCount = len(stats.LowStockAlerts)

	if stats.PopularItems, err = s.popular(db, restaurantID); err != nil {
		return nil, err
	}
	if stats.RevenueSeries, err = s.series(db, restaurantID, today); err != nil {
		return nil, err
	}

	err = db.Where("restaurant_id = ?", restaurantID).
		Preload("OrderItems.MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC, id DESC").
		Limit(recentLimit).
		Find(&stats.RecentOrders).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load recent orders")
	}

	return stats, nil
}

// Currency is the ISO code the restaurant prices its menu in.
func (s *Service) Currency(ctx context.Context, restaurantID int64) (string, error) {
	var r models.Restaurant
	if err := s.db.WithContext(ctx).Select("id", "currency").First(&r, restaurantID).Error; err != nil {
		return "", apperr.FromDB(err, "restaurant")
	}
	if r.Currency == "" {
		return "USD", nil
	}
	return r.Currency, nil
}

func (s *Service) totals(db *gorm.DB, restaurantID int64, since time.Time) (totals, error) {
	var t totals
	q := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total_amount), 0) AS revenue, COUNT(*) AS order_count").
		Where("restaurant_id = ? AND status <> ?", restaurantID, models.OrderStatusCancelled)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	if err := q.Scan(&t).Error; err != nil {
		s.log.WithError(err).WithField("restaurant_id", restaurantID).Error("failed to sum revenue")
		return t, apperr.Internal(err, "failed to sum revenue")
	}
	return t, nil
}

func (s *Service) popular(db *gorm.DB, restaurantID int64) ([]PopularItem, error) {
	var items []PopularItem
	err := db.Model(&models.OrderItem{}).
		Select("order_items.menu_item_id, menu_items.name, "+
			"SUM(order_items.quantity) AS units_sold, "+
			"SUM(order_items.price * order_items.quantity) AS revenue").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN menu_items ON menu_items.id = order_items.menu_item_id").
		Where("orders.restaurant_id = ? AND orders.status <> ?", restaurantID, models.OrderStatusCancelled).
		Group("order_items.menu_item_id, menu_items.name").
		Order("units_sold DESC, order_items.menu_item_id ASC").
		Limit(popularLimit).
		Scan(&items).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to rank menu items")
	}
	for i := range items {
		items[i].Revenue = currency.Round(items[i].Revenue)
	}
	return items, nil
}

// series buckets the last seven days in Go so the query stays portable
// across postgres, mysql and sqlite.
func (s *Service) series(db *gorm.DB, restaurantID int64, today time.Time) ([]DailyRevenue, error) {
	from := today.AddDate(0, 0, -(seriesDays - 1))

	var rows []models.Order
	err := db.Select("id, total_amount, created_at").
		Where("restaurant_id = ? AND status <> ? AND created_at >= ?", restaurantID, models.OrderStatusCancelled, from).
		Find(&rows).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load revenue series")
	}

	series := make([]DailyRevenue, seriesDays)
	index := make(map[string]int, seriesDays)
	for i := range series {
		d := from.AddDate(0, 0, i).Format("2006-01-02")
		series[i] = DailyRevenue{Date: d, Revenue: decimal.Zero}
		index[d] = i
	}
	for _, o := range rows {
		if i, ok := index[o.CreatedAt.UTC().Format("2006-01-02")]; ok {
			series[i].Revenue = series[i].Revenue.Add(o.TotalAmount)
			series[i].Orders++
		}
	}
	return series, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
