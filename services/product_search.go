package services

import (
	"sort"
	"strings"

	"github.com/yeremiapane/restaurant-storefront/models"
)

const (
	SortRelevance = "relevance"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
	SortDiscount  = "discount"
)

const (
	DefaultRelatedLimit  = 4
	DefaultFeaturedLimit = 4
)

// SearchQuery drives the search page. Empty fields and "all" disable a filter.
type SearchQuery struct {
	Query    string
	Category string
	Type     string
	MinPrice *float64
	MaxPrice *float64
	Sort     string
}

// SearchProducts filters products by query, category, type and discounted
// price range, then sorts them. Relevance keeps catalog order.
func SearchProducts(products []models.Product, sq SearchQuery) []models.Product {
	q := strings.ToLower(strings.TrimSpace(sq.Query))
	out := []models.Product{}
	for _, p := range products {
		if q != "" &&
			!strings.Contains(strings.ToLower(p.Title), q) &&
			!strings.Contains(strings.ToLower(p.Category), q) &&
			!strings.Contains(strings.ToLower(p.Type), q) {
			continue
		}
		if !isAll(sq.Category) && p.Category != sq.Category {
			continue
		}
		if !isAll(sq.Type) && p.Type != sq.Type {
			continue
		}
		price := p.DiscountedPrice()
		if sq.MinPrice != nil && price < *sq.MinPrice {
			continue
		}
		if sq.MaxPrice != nil && price > *sq.MaxPrice {
			continue
		}
		out = append(out, p)
	}

	switch sq.Sort {
	case SortPriceLow:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DiscountedPrice() < out[j].DiscountedPrice() })
	case SortPriceHigh:
		sort.SliceStable(out, func(i, j int) bool { return out[i].DiscountedPrice() > out[j].DiscountedPrice() })
	case SortDiscount:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Discount > out[j].Discount })
	}
	return out
}

func isAll(v string) bool {
	return v == "" || strings.EqualFold(v, "all")
}

// RelatedProducts returns up to limit products sharing the category of the
// given product, excluding the product itself.
func RelatedProducts(products []models.Product, productID string, limit int) []models.Product {
	var category string
	found := false
	for _, p := range products {
		if p.ID == productID {
			category = p.Category
			found = true
			break
		}
	}
	out := []models.Product{}
	if !found {
		return out
	}
	for _, p := range products {
		if len(out) >= limit {
			break
		}
		if p.Category == category && p.ID != productID {
			out = append(out, p)
		}
	}
	return out
}

// FeaturedProducts returns up to limit featured products in catalog order.
func FeaturedProducts(products []models.Product, limit int) []models.Product {
	out := []models.Product{}
	for _, p := range products {
		if len(out) >= limit {
			break
		}
		if p.Featured {
			out = append(out, p)
		}
	}
	return out
}
