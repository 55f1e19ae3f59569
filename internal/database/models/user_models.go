package models

import "time"

type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleStaff   Role = "STAFF"
)

// Restaurant is the tenant every other record belongs to.
type Restaurant struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:varchar(128);not null" json:"name"`
	Logo      *string   `gorm:"type:varchar(256)" json:"logo"`
	Address   *string   `gorm:"type:text" json:"address"`
	Phone     *string   `gorm:"type:varchar(64)" json:"phone"`
	Email     *string   `gorm:"type:varchar(128)" json:"email"`
	Currency  string    `gorm:"type:varchar(8);not null" json:"currency"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type User struct {
	ID           int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	Name         string      `gorm:"type:varchar(128);not null" json:"name"`
	Email        string      `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	PasswordHash string      `gorm:"not null" json:"-"`
	Role         Role        `gorm:"type:varchar(16);not null" json:"role"`
	Avatar       *string     `gorm:"type:varchar(256)" json:"avatar"`
	RestaurantID int64       `gorm:"index;not null" json:"restaurant_id"`
	Restaurant   *Restaurant `gorm:"foreignKey:RestaurantID" json:"restaurant,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
