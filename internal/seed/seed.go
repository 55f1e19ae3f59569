// Package seed loads demo data for one restaurant from a YAML file.
package seed

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"servora-system/internal/database/models"
	"servora-system/internal/inventory"
	"servora-system/internal/menu"
)

type File struct {
	Restaurant struct {
		Name     string `yaml:"name"`
		Currency string `yaml:"currency"`
		Address  string `yaml:"address"`
		Phone    string `yaml:"phone"`
	} `yaml:"restaurant"`
	Users      []User      `yaml:"users"`
	Categories []Category  `yaml:"categories"`
	Inventory  []StockItem `yaml:"inventory"`
}

type User struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type Category struct {
	Name  string `yaml:"name"`
	Items []Item `yaml:"items"`
}

type Item struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description"`
	Price       string     `yaml:"price"`
	OfferPrice  string     `yaml:"offerPrice"`
	CostPrice   string     `yaml:"costPrice"`
	SKU         string     `yaml:"sku"`
	Featured    bool       `yaml:"featured"`
	Unavailable bool       `yaml:"unavailable"`
	Discounts   []Discount `yaml:"discounts"`
}

type Discount struct {
	Type      string `yaml:"type"`
	Value     string `yaml:"value"`
	StartDate string `yaml:"startDate"` // 2006-01-02 or RFC 3339
	EndDate   string `yaml:"endDate"`
}

type StockItem struct {
	Name        string `yaml:"name"`
	Quantity    string `yaml:"quantity"`
	Unit        string `yaml:"unit"`
	Minimum     string `yaml:"minimum"`
	CostPerUnit string `yaml:"costPerUnit"`
}

func Load(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	if strings.TrimSpace(f.Restaurant.Name) == "" {
		return nil, fmt.Errorf("restaurant.name is required")
	}
	return &f, nil
}

type Result struct {
	RestaurantID int64
	Users        int
	MenuItems    int
	Discounts    int
	StockItems   int
}

type Seeder struct {
	db     *gorm.DB
	ledger *inventory.Ledger
	log    log.FieldLogger
}

func NewSeeder(db *gorm.DB, ledger *inventory.Ledger, logger log.FieldLogger) *Seeder {
	return &Seeder{db: db, ledger: ledger, log: logger}
}

// Apply writes the restaurant, its users and menu in one transaction, then
// books the inventory through the ledger so opening stock shows up as ADD
// transactions.
func (s *Seeder) Apply(ctx context.Context, f *File) (*Result, error) {
	res := &Result{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		restaurant := models.Restaurant{
			Name:     f.Restaurant.Name,
			Currency: orDefault(strings.ToUpper(f.Restaurant.Currency), "USD"),
			Address:  optional(f.Restaurant.Address),
			Phone:    optional(f.Restaurant.Phone),
		}
		if err := tx.Create(&restaurant).Error; err != nil {
			return err
		}
		res.RestaurantID = restaurant.ID

		for _, u := range f.Users {
			if err := createUser(tx, restaurant.ID, u); err != nil {
				return err
			}
			res.Users++
		}

		for i, c := range f.Categories {
			cat := models.MenuCategory{Name: c.Name, DisplayOrder: i + 1, RestaurantID: restaurant.ID}
			if err := tx.Create(&cat).Error; err != nil {
				return err
			}
			for _, it := range c.Items {
				n, err := createItem(tx, restaurant.ID, cat.ID, it)
				if err != nil {
					return err
				}
				res.MenuItems++
				res.Discounts += n
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, st := range f.Inventory {
		in, err := stockInput(st)
		if err != nil {
			return res, err
		}
		if _, err := s.ledger.CreateItem(ctx, res.RestaurantID, in); err != nil {
			return res, fmt.Errorf("inventory %q: %w", st.Name, err)
		}
		res.StockItems++
	}

	s.log.WithFields(log.Fields{
		"restaurant_id": res.RestaurantID,
		"users":         res.Users,
		"menu_items":    res.MenuItems,
		"discounts":     res.Discounts,
		"stock_items":   res.StockItems,
	}).Info("seed applied")
	return res, nil
}

func createUser(tx *gorm.DB, restaurantID int64, u User) error {
	role := models.Role(strings.ToUpper(orDefault(u.Role, string(models.RoleStaff))))
	switch role {
	case models.RoleAdmin, models.RoleManager, models.RoleStaff:
	default:
		return fmt.Errorf("user %q: unknown role %q", u.Email, u.Role)
	}
	pwHash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return tx.Create(&models.User{
		Name:         u.Name,
		Email:        strings.ToLower(strings.TrimSpace(u.Email)),
		PasswordHash: string(pwHash),
		Role:         role,
		RestaurantID: restaurantID,
	}).Error
}

func createItem(tx *gorm.DB, restaurantID, categoryID int64, it Item) (int, error) {
	price, err := decimal.NewFromString(it.Price)
	if err != nil || !price.IsPositive() {
		return 0, fmt.Errorf("item %q: invalid price %q", it.Name, it.Price)
	}
	offer, err := optionalDecimal(it.OfferPrice)
	if err != nil {
		return 0, fmt.Errorf("item %q: %w", it.Name, err)
	}
	cost, err := optionalDecimal(it.CostPrice)
	if err != nil {
		return 0, fmt.Errorf("item %q: %w", it.Name, err)
	}

	item := models.MenuItem{
		Name:         it.Name,
		Description:  optional(it.Description),
		Price:        price,
		OfferPrice:   offer,
		CostPrice:    cost,
		SKU:          optional(it.SKU),
		IsAvailable:  !it.Unavailable,
		IsFeatured:   it.Featured,
		CategoryID:   categoryID,
		RestaurantID: restaurantID,
	}
	if err := tx.Create(&item).Error; err != nil {
		return 0, err
	}

	for _, d := range it.Discounts {
		in, err := discountInput(item.ID, d)
		if err != nil {
			return 0, fmt.Errorf("item %q: %w", it.Name, err)
		}
		if err := menu.ValidateDiscount(in); err != nil {
			return 0, fmt.Errorf("item %q: %w", it.Name, err)
		}
		err = tx.Create(&models.MenuItemDiscount{
			MenuItemID:    item.ID,
			DiscountType:  in.DiscountType,
			DiscountValue: in.DiscountValue,
			StartDate:     in.StartDate,
			EndDate:       in.EndDate,
			IsActive:      true,
		}).Error
		if err != nil {
			return 0, err
		}
	}
	return len(it.Discounts), nil
}

func discountInput(itemID int64, d Discount) (menu.DiscountInput, error) {
	value, err := decimal.NewFromString(d.Value)
	if err != nil {
		return menu.DiscountInput{}, fmt.Errorf("invalid discount value %q", d.Value)
	}
	start, err := parseDate(d.StartDate, false)
	if err != nil {
		return menu.DiscountInput{}, err
	}
	end, err := parseDate(d.EndDate, true)
	if err != nil {
		return menu.DiscountInput{}, err
	}
	return menu.DiscountInput{
		MenuItemID:    itemID,
		DiscountType:  models.DiscountType(strings.ToUpper(d.Type)),
		DiscountValue: value,
		StartDate:     start,
		EndDate:       end,
	}, nil
}

// parseDate accepts a bare date, which covers the whole day when it ends a window.
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q", s)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

func stockInput(st StockItem) (inventory.CreateItemInput, error) {
	in := inventory.CreateItemInput{Name: st.Name, Unit: st.Unit}
	var err error
	if in.Quantity, err = decimalOrZero(st.Quantity); err != nil {
		return in, fmt.Errorf("inventory %q: %w", st.Name, err)
	}
	if in.MinimumQuantity, err = decimalOrZero(st.Minimum); err != nil {
		return in, fmt.Errorf("inventory %q: %w", st.Name, err)
	}
	if in.CostPerUnit, err = decimalOrZero(st.CostPerUnit); err != nil {
		return in, fmt.Errorf("inventory %q: %w", st.Name, err)
	}
	return in, nil
}

func decimalOrZero(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func optionalDecimal(s string) (decimal.NullDecimal, error) {
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, fmt.Errorf("invalid amount %q", s)
	}
	return decimal.NewNullDecimal(d), nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
