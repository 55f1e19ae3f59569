// Package orders builds orders from menu prices and manages their status.
package orders

import (
	"context"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"servora-system/internal/apperr"
	"servora-system/internal/database/models"
	"servora-system/internal/events"
	"servora-system/internal/lifecycle"
)

const defaultPageSize = 20

// Transitions is the order lifecycle. PAID is reachable from every state
// through the POS complete action.
var Transitions = lifecycle.Table[models.OrderStatus]{
	models.OrderStatusPending:   {models.OrderStatusPreparing, models.OrderStatusCancelled, models.OrderStatusPaid},
	models.OrderStatusPreparing: {models.OrderStatusReady, models.OrderStatusCancelled, models.OrderStatusPaid},
	models.OrderStatusReady:     {models.OrderStatusServed, models.OrderStatusCancelled, models.OrderStatusPaid},
	models.OrderStatusServed:    {models.OrderStatusPaid},
	models.OrderStatusCancelled: {models.OrderStatusPaid},
	models.OrderStatusPaid:      {},
}

type Options struct {
	RejectUnknownItems bool
	StrictTransitions  bool
}

type Service struct {
	db     *gorm.DB
	events events.Publisher
	log    log.FieldLogger
	opts   Options
	policy lifecycle.Policy[models.OrderStatus]
	now    func() time.Time
}

func NewService(db *gorm.DB, publisher events.Publisher, logger log.FieldLogger, opts Options) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &Service{
		db:     db,
		events: publisher,
		log:    logger,
		opts:   opts,
		policy: lifecycle.Policy[models.OrderStatus]{Table: Transitions, Strict: opts.StrictTransitions},
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Create builds the order at the current time and announces it.
func (s *Service) Create(ctx context.Context, restaurantID int64, req CreateRequest) (*models.Order, error) {
	order, err := s.BuildOrder(ctx, restaurantID, req, s.now())
	if err != nil {
		return nil, err
	}

	s.log.WithFields(log.Fields{
		"restaurant_id": restaurantID,
		"order_id":      order.ID,
		"total":         order.TotalAmount.StringFixed(2),
	}).Info("order created")

	s.publish(ctx, events.EventOrderCreated, order, "")
	return order, nil
}

func (s *Service) Get(ctx context.Context, restaurantID, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Where("id = ? AND restaurant_id = ?", id, restaurantID).
		Preload("OrderItems.MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		First(&order).Error
	if err != nil {
		return nil, apperr.FromDB(err, "order")
	}
	return &order, nil
}

type ListFilter struct {
	Status    models.OrderStatus
	PageSize  int
	PageToken string
}

type Page struct {
	Orders        []models.Order `json:"orders"`
	NextPageToken string         `json:"next_page_token"`
	TotalCount    int64          `json:"total_count"`
}

// List returns the restaurant's orders newest first. Page tokens are page
// numbers starting at 1.
func (s *Service) List(ctx context.Context, restaurantID int64, f ListFilter) (*Page, error) {
	query := s.db.WithContext(ctx).Model(&models.Order{}).Where("restaurant_id = ?", restaurantID)
	if f.Status != "" {
		if !Transitions.Known(f.Status) {
			return nil, apperr.Invalid("invalid status %s", f.Status)
		}
		query = query.Where("status = ?", f.Status)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, apperr.Internal(err, "failed to count orders")
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	pageNumber := 1
	if f.PageToken != "" {
		if n, err := strconv.Atoi(f.PageToken); err == nil && n > 0 {
			pageNumber = n
		}
	}

	var orders []models.Order
	err := query.
		Preload("OrderItems.MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at DESC, id DESC").
		Offset((pageNumber - 1) * pageSize).
		Limit(pageSize).
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to list orders")
	}

	page := &Page{Orders: orders, TotalCount: total}
	if int64(pageNumber*pageSize) < total {
		page.NextPageToken = strconv.Itoa(pageNumber + 1)
	}
	return page, nil
}

// Between returns every order created in [from, to), oldest first.
func (s *Service) Between(ctx context.Context, restaurantID int64, from, to time.Time) ([]models.Order, error) {
	if !to.After(from) {
		return nil, apperr.Invalid("end of range must be after its start")
	}

	var orders []models.Order
	err := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND created_at >= ? AND created_at < ?", restaurantID, from.UTC(), to.UTC()).
		Preload("OrderItems.MenuItem", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).
		Order("created_at, id").
		Find(&orders).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load orders")
	}
	return orders, nil
}

// UpdateStatus overwrites the status, subject to the configured policy.
func (s *Service) UpdateStatus(ctx context.Context, restaurantID, id int64, status models.OrderStatus) (*models.Order, error) {
	order, err := s.Get(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Check(order.Status, status); err != nil {
		return nil, err
	}
	return s.setStatus(ctx, order, status, events.EventOrderStatusChanged)
}

// Complete marks the order PAID from whatever state it is in.
func (s *Service) Complete(ctx context.Context, restaurantID, id int64) (*models.Order, error) {
	order, err := s.Get(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusPaid {
		return order, nil
	}
	return s.setStatus(ctx, order, models.OrderStatusPaid, events.EventOrderPaid)
}

func (s *Service) setStatus(ctx context.Context, order *models.Order, status models.OrderStatus, eventType string) (*models.Order, error) {
	previous := order.Status
	err := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]interface{}{"status": status, "updated_at": s.now()}).Error
	if err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Error("failed to update order status")
		return nil, apperr.Internal(err, "failed to update order status")
	}

	updated, err := s.Get(ctx, order.RestaurantID, order.ID)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(log.Fields{
		"order_id": order.ID,
		"from":     previous,
		"to":       status,
	}).Info("order status changed")

	s.publish(ctx, eventType, updated, previous)
	return updated, nil
}

func (s *Service) publish(ctx context.Context, eventType string, order *models.Order, previous models.OrderStatus) {
	if err := s.events.Publish(ctx, events.NewOrderEvent(eventType, order, previous)); err != nil {
		s.log.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order event")
	}
}
