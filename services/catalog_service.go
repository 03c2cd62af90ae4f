package services

import (
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/yeremiapane/restaurant-storefront/models"
	"gorm.io/gorm"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrReservedCategoryName = errors.Errorf("category %q is reserved", AllCategories)
)

var validate = validator.New()

// ValidateProduct checks a product against its validate tags. The menu's
// catch-all label cannot be used as a real category.
func ValidateProduct(p models.Product) error {
	if err := validate.Struct(p); err != nil {
		return errors.Wrapf(err, "product %q", p.ID)
	}
	if strings.EqualFold(strings.TrimSpace(p.Category), AllCategories) {
		return errors.Wrapf(ErrReservedCategoryName, "product %q", p.ID)
	}
	return nil
}

// CatalogService holds the current catalog snapshot. A snapshot is never
// modified after it is published; Reload and Replace swap in a new slice.
type CatalogService struct {
	DB *gorm.DB

	mu       sync.RWMutex
	products []models.Product
	index    map[string]int
}

func NewCatalogService(db *gorm.DB) *CatalogService {
	return &CatalogService{DB: db, index: map[string]int{}}
}

// Reload reads the products table ordered by position and publishes it.
func (s *CatalogService) Reload() error {
	var products []models.Product
	if err := s.DB.Order("position ASC").Order("id ASC").Find(&products).Error; err != nil {
		return errors.Wrap(err, "load catalog")
	}
	s.Replace(products)
	return nil
}

// Replace publishes products as the new snapshot. The caller must not modify
// the slice afterwards.
func (s *CatalogService) Replace(products []models.Product) {
	index := make(map[string]int, len(products))
	for i, p := range products {
		index[p.ID] = i
	}
	s.mu.Lock()
	s.products = products
	s.index = index
	s.mu.Unlock()
}

// Products returns the current snapshot. Treat it as read-only.
func (s *CatalogService) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products
}

func (s *CatalogService) FindByID(id string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.index[id]
	if !ok {
		return models.Product{}, ErrProductNotFound
	}
	return s.products[i], nil
}

// Categories lists distinct categories in order of first appearance.
func (s *CatalogService) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, p := range s.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}
