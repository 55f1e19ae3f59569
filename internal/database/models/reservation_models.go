package models

import "time"

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "PENDING"
	ReservationConfirmed ReservationStatus = "CONFIRMED"
	ReservationCancelled ReservationStatus = "CANCELLED"
	ReservationCompleted ReservationStatus = "COMPLETED"
)

type Reservation struct {
	ID              int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID    int64             `gorm:"index;not null" json:"restaurant_id"`
	CustomerName    string            `gorm:"type:varchar(128);not null" json:"customer_name"`
	Phone           *string           `gorm:"type:varchar(64)" json:"phone"`
	Email           *string           `gorm:"type:varchar(128)" json:"email"`
	Guests          int               `gorm:"not null" json:"guests"`
	ReservationTime time.Time         `gorm:"index;not null" json:"reservation_time"`
	TableNumber     *string           `gorm:"type:varchar(32)" json:"table_number"`
	Notes           *string           `gorm:"type:text" json:"notes"`
	Status          ReservationStatus `gorm:"type:varchar(16);not null" json:"status"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}
