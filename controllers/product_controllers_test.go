package controllers_test

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-storefront/hub"
	"github.com/yeremiapane/restaurant-storefront/models"
)

func TestProductDetailWithRelated(t *testing.T) {
	env := setupEnv(t)
	token := env.guest(t)

	var detail struct {
		Product         models.Product   `json:"product"`
		DiscountedPrice float64          `json:"discounted_price"`
		Favorite        bool             `json:"favorite"`
		Related         []models.Product `json:"related"`
	}
	w := env.request(http.MethodGet, "/products/3", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &detail)

	assert.Equal(t, "Paneer Tikka Pizza", detail.Product.Title)
	assert.InDelta(t, 11.9, detail.DiscountedPrice, 1e-9)
	assert.False(t, detail.Favorite)
	assert.Equal(t, []string{"5"}, itemIDs(detail.Related))

	assert.Equal(t, http.StatusNotFound, env.request(http.MethodGet, "/products/nope", token, nil).Code)
}

func TestFeaturedProducts(t *testing.T) {
	env := setupEnv(t)
	var products []models.Product
	decode(t, env.request(http.MethodGet, "/products/featured", env.guest(t), nil), &products)
	assert.Equal(t, []string{"1", "2", "3", "5"}, itemIDs(products))
}

func TestProductSearch(t *testing.T) {
	env := setupEnv(t)
	token := env.guest(t)

	tests := []struct {
		name string
		url  string
		want []string
	}{
		{name: "query", url: "/products/search?q=burger", want: []string{"2", "4"}},
		{name: "type", url: "/products/search?type=Veg&sort=price-low", want: []string{"6", "1", "3"}},
		{name: "price range", url: "/products/search?min_price=10&max_price=12", want: []string{"2", "3", "4"}},
		{name: "discount", url: "/products/search?category=all&sort=discount", want: []string{"6", "3", "2", "1", "4", "5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body struct {
				Count    int              `json:"count"`
				Products []models.Product `json:"products"`
			}
			w := env.request(http.MethodGet, tt.url, token, nil)
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			decode(t, w, &body)
			assert.Equal(t, tt.want, itemIDs(body.Products))
			assert.Equal(t, len(tt.want), body.Count)
		})
	}

	assert.Equal(t, http.StatusBadRequest, env.request(http.MethodGet, "/products/search?sort=random", token, nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.request(http.MethodGet, "/products/search?min_price=abc", token, nil).Code)
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := setupEnv(t)
	token := env.guest(t)

	assert.Equal(t, http.StatusForbidden, env.request(http.MethodGet, "/admin/products", token, nil).Code)
	assert.Equal(t, http.StatusForbidden, env.request(http.MethodPost, "/admin/catalog/reload", token, nil).Code)
}

func TestAdminProductCRUD(t *testing.T) {
	env := setupEnv(t)
	guest := env.guest(t)
	admin := env.login(t, env.guest(t), "admin@example.com", "admin-pass")

	w := env.request(http.MethodPost, "/admin/products", admin, gin.H{
		"id":       "7",
		"title":    "Falafel Wrap",
		"price":    9.5,
		"type":     models.FoodTypeVeg,
		"category": "Wraps",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Product
	decode(t, w, &created)
	assert.Equal(t, 7, created.Position)
	require.Len(t, env.Events.events, 1)
	assert.Equal(t, hub.EventCatalogUpdate, env.Events.events[0].Type)

	// Existing sessions keep their snapshot, new ones see the product.
	assert.Equal(t, http.StatusNotFound, env.request(http.MethodGet, "/products/7", guest, nil).Code)
	assert.Equal(t, http.StatusOK, env.request(http.MethodGet, "/products/7", env.guest(t), nil).Code)

	w = env.request(http.MethodPost, "/admin/products", admin, gin.H{
		"id": "7", "title": "Dup", "price": 1, "type": models.FoodTypeVeg, "category": "Wraps",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.request(http.MethodPost, "/admin/products", admin, gin.H{
		"title": "Bad", "price": 1, "type": "Vegan", "category": "Wraps",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.request(http.MethodPut, "/admin/products/7", admin, gin.H{
		"title":    "Falafel Wrap XL",
		"price":    11,
		"discount": 10,
		"type":     models.FoodTypeVeg,
		"category": "Wraps",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	p, err := env.Catalog.FindByID("7")
	require.NoError(t, err)
	assert.Equal(t, "Falafel Wrap XL", p.Title)
	assert.Equal(t, 7, p.Position)

	assert.Equal(t, http.StatusNotFound, env.request(http.MethodPut, "/admin/products/99", admin, gin.H{
		"title": "x", "price": 1, "type": models.FoodTypeVeg, "category": "Wraps",
	}).Code)

	require.Equal(t, http.StatusOK, env.request(http.MethodDelete, "/admin/products/7", admin, nil).Code)
	_, err = env.Catalog.FindByID("7")
	assert.Error(t, err)
	assert.Equal(t, http.StatusNotFound, env.request(http.MethodDelete, "/admin/products/7", admin, nil).Code)

	var products []models.Product
	decode(t, env.request(http.MethodGet, "/admin/products", admin, nil), &products)
	assert.Len(t, products, 6)
}

func TestAdminCreateGeneratesID(t *testing.T) {
	env := setupEnv(t)
	admin := env.login(t, env.guest(t), "admin@example.com", "admin-pass")

	w := env.request(http.MethodPost, "/admin/products", admin, gin.H{
		"title": "Soup", "price": 5, "type": models.FoodTypeVeg, "category": "Soups",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Product
	decode(t, w, &created)
	assert.Len(t, created.ID, 36)

	w = env.request(http.MethodPost, "/admin/catalog/reload", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(7), data(t, w)["count"])
}
