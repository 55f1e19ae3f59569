// Package reservations manages table bookings.
package reservations

import (
	"context"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"servora-system/internal/apperr"
	"servora-system/internal/database/models"
	"servora-system/internal/lifecycle"
)

var Transitions = lifecycle.Table[models.ReservationStatus]{
	models.ReservationPending:   {models.ReservationConfirmed, models.ReservationCancelled},
	models.ReservationConfirmed: {models.ReservationCompleted, models.ReservationCancelled},
	models.ReservationCancelled: {},
	models.ReservationCompleted: {},
}

type Service struct {
	db     *gorm.DB
	log    log.FieldLogger
	policy lifecycle.Policy[models.ReservationStatus]
}

func NewService(db *gorm.DB, logger log.FieldLogger, strict bool) *Service {
	return &Service{
		db:     db,
		log:    logger,
		policy: lifecycle.Policy[models.ReservationStatus]{Table: Transitions, Strict: strict},
	}
}

type ListFilter struct {
	Status models.ReservationStatus
	From   *time.Time
	To     *time.Time
}

// List returns reservations ordered by time.
func (s *Service) List(ctx context.Context, restaurantID int64, f ListFilter) ([]models.Reservation, error) {
	query := s.db.WithContext(ctx).Where("restaurant_id = ?", restaurantID)
	if f.Status != "" {
		if !Transitions.Known(f.Status) {
			return nil, apperr.Invalid("invalid status %s", f.Status)
		}
		query = query.Where("status = ?", f.Status)
	}
	if f.From != nil {
		query = query.Where("reservation_time >= ?", f.From.UTC())
	}
	if f.To != nil {
		query = query.Where("reservation_time < ?", f.To.UTC())
	}

	var out []models.Reservation
	if err := query.Order("reservation_time ASC, id ASC").Find(&out).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list reservations")
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, restaurantID, id int64) (*models.Reservation, error) {
	var r models.Reservation
	if err := s.db.WithContext(ctx).Where("id = ? AND restaurant_id = ?", id, restaurantID).First(&r).Error; err != nil {
		return nil, apperr.FromDB(err, "reservation")
	}
	return &r, nil
}

type CreateInput struct {
	CustomerName    string    `json:"customer_name" binding:"required"`
	Phone           *string   `json:"phone"`
	Email           *string   `json:"email"`
	Guests          int       `json:"guests"`
	ReservationTime time.Time `json:"reservation_time"`
	TableNumber     *string   `json:"table_number"`
	Notes           *string   `json:"notes"`
}

// Create books a table. Bookings made by staff are confirmed straight away.
func (s *Service) Create(ctx context.Context, restaurantID int64, in CreateInput) (*models.Reservation, error) {
	name := strings.TrimSpace(in.CustomerName)
	if name == "" {
		return nil, apperr.Invalid("customer_name required")
	}
	if in.Guests <= 0 {
		return nil, apperr.Invalid("guests must be greater than 0")
	}
	if in.ReservationTime.IsZero() {
		return nil, apperr.Invalid("reservation_time required")
	}

	r := models.Reservation{
		RestaurantID:    restaurantID,
		CustomerName:    name,
		Phone:           in.Phone,
		Email:           in.Email,
		Guests:          in.Guests,
		ReservationTime: in.ReservationTime.UTC(),
		TableNumber:     in.TableNumber,
		Notes:           in.Notes,
		Status:          models.ReservationConfirmed,
	}
	if err := s.db.WithContext(ctx).Create(&r).Error; err != nil {
		s.log.WithError(err).WithField("restaurant_id", restaurantID).Error("failed to create reservation")
		return nil, apperr.Internal(err, "failed to create reservation")
	}

	s.log.WithFields(log.Fields{
		"restaurant_id":  restaurantID,
		"reservation_id": r.ID,
		"guests":         r.Guests,
	}).Info("reservation created")
	return &r, nil
}

type UpdateInput struct {
	CustomerName    *string                   `json:"customer_name"`
	Phone           *string                   `json:"phone"`
	Email           *string                   `json:"email"`
	Guests          *int                      `json:"guests"`
	ReservationTime *time.Time                `json:"reservation_time"`
	TableNumber     *string                   `json:"table_number"`
	Notes           *string                   `json:"notes"`
	Status          *models.ReservationStatus `json:"status"`
}

func (s *Service) Update(ctx context.Context, restaurantID, id int64, in UpdateInput) (*models.Reservation, error) {
	r, err := s.Get(ctx, restaurantID, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if in.CustomerName != nil {
		name := strings.TrimSpace(*in.CustomerName)
		if name == "" {
			return nil, apperr.Invalid("customer_name must not be empty")
		}
		updates["customer_name"] = name
	}
	if in.Phone != nil {
		updates["phone"] = *in.Phone
	}
	if in.Email != nil {
		updates["email"] = *in.Email
	}
	if in.Guests != nil {
		if *in.Guests <= 0 {
			return nil, apperr.Invalid("guests must be greater than 0")
		}
		updates["guests"] = *in.Guests
	}
	if in.ReservationTime != nil {
		if in.ReservationTime.IsZero() {
			return nil, apperr.Invalid("reservation_time must not be empty")
		}
		updates["reservation_time"] = in.ReservationTime.UTC()
	}
	if in.TableNumber != nil {
		updates["table_number"] = *in.TableNumber
	}
	if in.Notes != nil {
		updates["notes"] = *in.Notes
	}
	if in.Status != nil {
		if err := s.policy.Check(r.Status, *in.Status); err != nil {
			return nil, err
		}
		updates["status"] = *in.Status
	}

	if len(updates) == 0 {
		return r, nil
	}
	if err := s.db.WithContext(ctx).Model(r).Updates(updates).Error; err != nil {
		s.log.WithError(err).WithField("reservation_id", id).Error("failed to update reservation")
		return nil, apperr.Internal(err, "failed to update reservation")
	}
	return s.Get(ctx, restaurantID, id)
}

// UpdateStatus is Update restricted to the status field.
func (s *Service) UpdateStatus(ctx context.Context, restaurantID, id int64, status models.ReservationStatus) (*models.Reservation, error) {
	return s.Update(ctx, restaurantID, id, UpdateInput{Status: &status})
}

func (s *Service) Delete(ctx context.Context, restaurantID, id int64) error {
	res := s.db.WithContext(ctx).Where("id = ? AND restaurant_id = ?", id, restaurantID).Delete(&models.Reservation{})
	if res.Error != nil {
		s.log.WithError(res.Error).WithField("reservation_id", id).Error("failed to delete reservation")
		return apperr.Internal(res.Error, "failed to delete reservation")
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("reservation not found")
	}
	return nil
}
