// Package auth registers restaurants with their first admin and issues
// access tokens.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"servora-system/internal/apperr"
	"servora-system/internal/database/models"
	"servora-system/internal/menu"
	sysutils "servora-system/internal/utils"
)

const minPasswordLength = 8

// validate applies the same rules gin's binding does, for callers that do not
// come through a handler.
var validate = validator.New()

type Service struct {
	db     *gorm.DB
	tokens *sysutils.TokenIssuer
	log    log.FieldLogger
}

func NewService(db *gorm.DB, tokens *sysutils.TokenIssuer, logger log.FieldLogger) *Service {
	return &Service{db: db, tokens: tokens, log: logger}
}

type RegisterInput struct {
	Name           string `json:"name" binding:"required"`
	Email          string `json:"email" binding:"required,email"`
	Password       string `json:"password" binding:"required"`
	RestaurantName string `json:"restaurant_name" binding:"required"`
	Currency       string `json:"currency"`
}

type Session struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      models.User `json:"user"`
}

// Register creates the restaurant, its ADMIN user and the default menu
// categories in one transaction.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, apperr.Invalid("invalid email")
	}
	if len(in.Password) < minPasswordLength {
		return nil, apperr.Invalid("password must be at least %d characters", minPasswordLength)
	}
	name := strings.TrimSpace(in.Name)
	restaurantName := strings.TrimSpace(in.RestaurantName)
	if name == "" || restaurantName == "" {
		return nil, apperr.Invalid("name and restaurant_name required")
	}
	code := strings.ToUpper(strings.TrimSpace(in.Currency))
	if code == "" {
		code = "USD"
	}

	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Internal(err, "failed to hash password")
	}

	var user models.User
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflict("email already registered")
		}

		restaurant := models.Restaurant{Name: restaurantName, Email: &email, Currency: code}
		if err := tx.Create(&restaurant).Error; err != nil {
			return err
		}

		user = models.User{
			Name:         name,
			Email:        email,
			PasswordHash: string(pwHash),
			Role:         models.RoleAdmin,
			RestaurantID: restaurant.ID,
		}
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		user.Restaurant = &restaurant

		return menu.CreateDefaultCategories(tx, restaurant.ID)
	})
	if err != nil {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			return nil, err
		}
		s.log.WithError(err).WithField("email", email).Error("registration failed")
		return nil, apperr.Internal(err, "registration failed")
	}

	s.log.WithFields(log.Fields{
		"user_id":       user.ID,
		"restaurant_id": user.RestaurantID,
	}).Info("restaurant registered")

	return s.session(user)
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Session, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, apperr.Invalid("email and password are required")
	}
	if err := validate.Var(email, "email"); err != nil {
		return nil, apperr.Invalid("invalid email")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Preload("Restaurant").Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Unauthorized("invalid email or password")
		}
		return nil, apperr.Internal(err, "database error")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, apperr.Unauthorized("invalid email or password")
	}

	return s.session(user)
}

// Me returns the user behind a token.
func (s *Service) Me(ctx context.Context, restaurantID, userID int64) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Restaurant").
		Where("id = ? AND restaurant_id = ?", userID, restaurantID).
		First(&user).Error
	if err != nil {
		return nil, apperr.FromDB(err, "user")
	}
	return &user, nil
}

func (s *Service) session(user models.User) (*Session, error) {
	token, exp, err := s.tokens.GenerateToken(user.ID, user.RestaurantID, user.Email, string(user.Role))
	if err != nil {
		return nil, apperr.Internal(err, "error generating token")
	}
	return &Session{Token: token, ExpiresAt: exp, User: user}, nil
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
