package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeremiapane/restaurant-storefront/hub"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/services"
	"github.com/yeremiapane/restaurant-storefront/utils"
	"gorm.io/gorm"
)

var ErrProductExists = errors.New("product id already exists")

// Broadcaster reaches every connected client regardless of session.
type Broadcaster interface {
	Broadcast(services.Event)
}

// ProductController serves product pages from the session's catalog
// snapshot and lets admins edit the products table.
type ProductController struct {
	DB          *gorm.DB
	Catalog     *services.CatalogService
	Sessions    *services.SessionManager
	Broadcaster Broadcaster
}

func NewProductController(db *gorm.DB, catalog *services.CatalogService, sessions *services.SessionManager, b Broadcaster) *ProductController {
	return &ProductController{DB: db, Catalog: catalog, Sessions: sessions, Broadcaster: b}
}

// GetProduct returns one product and up to four related ones.
func (pc *ProductController) GetProduct(c *gin.Context) {
	session := currentSession(c, pc.Sessions)
	product, err := session.FindProduct(c.Param("product_id"))
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Product detail", gin.H{
		"product":          product,
		"discounted_price": product.DiscountedPrice(),
		"favorite":         session.Favorites.IsFavorite(product.ID),
		"related":          services.RelatedProducts(session.Catalog, product.ID, services.DefaultRelatedLimit),
	})
}

func (pc *ProductController) GetFeatured(c *gin.Context) {
	session := currentSession(c, pc.Sessions)
	utils.RespondJSON(c, http.StatusOK, "Featured products",
		services.FeaturedProducts(session.Catalog, services.DefaultFeaturedLimit))
}

// Search is stateless; it never touches the session's menu filter.
func (pc *ProductController) Search(c *gin.Context) {
	sq := services.SearchQuery{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		Type:     c.Query("type"),
		Sort:     c.DefaultQuery("sort", services.SortRelevance),
	}
	var err error
	if sq.MinPrice, err = parsePrice(c, "min_price"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if sq.MaxPrice, err = parsePrice(c, "max_price"); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	switch sq.Sort {
	case services.SortRelevance, services.SortPriceLow, services.SortPriceHigh, services.SortDiscount:
	default:
		utils.RespondError(c, http.StatusBadRequest, errors.New("invalid sort"))
		return
	}

	session := currentSession(c, pc.Sessions)
	results := services.SearchProducts(session.Catalog, sq)
	utils.RespondJSON(c, http.StatusOK, "Search results", gin.H{
		"count":    len(results),
		"products": results,
	})
}

func parsePrice(c *gin.Context, name string) (*float64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return nil, errors.New("invalid " + name)
	}
	return &v, nil
}

// ListProducts reads the products table directly, not the snapshot.
func (pc *ProductController) ListProducts(c *gin.Context) {
	var products []models.Product
	if err := pc.DB.Order("position ASC").Order("id ASC").Find(&products).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of products", products)
}

func (pc *ProductController) CreateProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if product.ID == "" {
		product.ID = uuid.NewString()
	}
	if err := services.ValidateProduct(product); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var count int64
	if err := pc.DB.Model(&models.Product{}).Where("id = ?", product.ID).Count(&count).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	if count > 0 {
		utils.RespondError(c, http.StatusConflict, ErrProductExists)
		return
	}

	if product.Position == 0 {
		var last models.Product
		if err := pc.DB.Order("position DESC").Limit(1).Find(&last).Error; err != nil {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		product.Position = last.Position + 1
	}

	if err := pc.DB.Create(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.WithField("product_id", product.ID).Info("Product created")

	if !pc.publish(c) {
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Product created", product)
}

// UpdateProduct replaces every editable field of the product.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	var existing models.Product
	if err := pc.DB.Where("id = ?", c.Param("product_id")).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondError(c, http.StatusNotFound, services.ErrProductNotFound)
			return
		}
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	product.ID = existing.ID
	product.CreatedAt = existing.CreatedAt
	if product.Position == 0 {
		product.Position = existing.Position
	}
	if err := services.ValidateProduct(product); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if err := pc.DB.Save(&product).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.InfoLogger.WithField("product_id", product.ID).Info("Product updated")

	if !pc.publish(c) {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product updated", product)
}

func (pc *ProductController) DeleteProduct(c *gin.Context) {
	result := pc.DB.Where("id = ?", c.Param("product_id")).Delete(&models.Product{})
	if result.Error != nil {
		utils.RespondError(c, http.StatusInternalServerError, result.Error)
		return
	}
	if result.RowsAffected == 0 {
		utils.RespondError(c, http.StatusNotFound, services.ErrProductNotFound)
		return
	}
	utils.InfoLogger.WithField("product_id", c.Param("product_id")).Info("Product deleted")

	if !pc.publish(c) {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Product deleted", nil)
}

func (pc *ProductController) ReloadCatalog(c *gin.Context) {
	if !pc.publish(c) {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Catalog reloaded", gin.H{
		"count": len(pc.Catalog.Products()),
	})
}

// publish reloads the snapshot and tells every client about it. Sessions
// that already exist keep the catalog they started with.
func (pc *ProductController) publish(c *gin.Context) bool {
	if err := pc.Catalog.Reload(); err != nil {
		utils.ErrorLogger.WithError(err).Error("Error reloading catalog")
		utils.RespondError(c, http.StatusInternalServerError, err)
		return false
	}
	if pc.Broadcaster != nil {
		pc.Broadcaster.Broadcast(services.Event{
			Type: hub.EventCatalogUpdate,
			Data: gin.H{"count": len(pc.Catalog.Products())},
		})
	}
	return true
}
