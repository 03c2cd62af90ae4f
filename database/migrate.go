package database

import (
	_ "embed"
	"encoding/json"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/services"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

//go:embed data/products.json
var defaultCatalog []byte

// Migrate creates or updates every table the storefront uses.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.User{},
		&models.Product{},
		&models.KVEntry{},
	); err != nil {
		return errors.Wrap(err, "auto migrate")
	}
	return nil
}

// SeedCatalog fills an empty products table from path, or from the embedded
// catalog when path is empty. Every product is validated before insert.
func SeedCatalog(db *gorm.DB, path string, log logrus.FieldLogger) (int, error) {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "count products")
	}
	if count > 0 {
		return 0, nil
	}

	raw := defaultCatalog
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return 0, errors.Wrapf(err, "read catalog %s", path)
		}
		raw = data
	}

	products, err := ParseCatalog(raw)
	if err != nil {
		return 0, err
	}
	if len(products) == 0 {
		return 0, nil
	}
	if err := db.Create(&products).Error; err != nil {
		return 0, errors.Wrap(err, "insert catalog")
	}
	if log != nil {
		log.WithField("count", len(products)).Info("Seeded catalog")
	}
	return len(products), nil
}

// ParseCatalog decodes a JSON array of products, assigns 1-based positions in file
// order and validates each entry.
func ParseCatalog(raw []byte) ([]models.Product, error) {
	var products []models.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}
	seen := make(map[string]struct{}, len(products))
	for i := range products {
		products[i].Position = i + 1
		if err := services.ValidateProduct(products[i]); err != nil {
			return nil, err
		}
		if _, dup := seen[products[i].ID]; dup {
			return nil, errors.Errorf("duplicate product id %q", products[i].ID)
		}
		seen[products[i].ID] = struct{}{}
	}
	return products, nil
}

// EnsureAdmin creates the configured admin account when it does not exist.
// The email is stored trimmed and lower-cased, as login looks it up.
func EnsureAdmin(db *gorm.DB, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}

	var existing models.User
	if err := db.Where("email = ?", email).Limit(1).Find(&existing).Error; err != nil {
		return errors.Wrap(err, "lookup admin")
	}
	if existing.ID != 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash admin password")
	}
	admin := models.User{
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	return errors.Wrap(db.Create(&admin).Error, "create admin")
}
