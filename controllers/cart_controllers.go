package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/services"
	"github.com/yeremiapane/restaurant-storefront/utils"
)

type CartController struct {
	Sessions *services.SessionManager
}

func NewCartController(sessions *services.SessionManager) *CartController {
	return &CartController{Sessions: sessions}
}

func cartResponse(snap models.CartSnapshot) gin.H {
	return gin.H{
		"items":      snap.Items,
		"item_count": snap.ItemCount,
		"totals":     snap.Totals,
		"formatted": gin.H{
			"subtotal": utils.FormatPrice(snap.Totals.Subtotal),
			"tax":      utils.FormatPrice(snap.Totals.Tax),
			"total":    utils.FormatPrice(snap.Totals.Total),
		},
	}
}

func (cc *CartController) GetCart(c *gin.Context) {
	session := currentSession(c, cc.Sessions)
	utils.RespondJSON(c, http.StatusOK, "Cart", cartResponse(session.Cart.Snapshot()))
}

// AddItem adds one unit of a catalog product at its discounted price.
func (cc *CartController) AddItem(c *gin.Context) {
	var body struct {
		ProductID string `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session := currentSession(c, cc.Sessions)
	product, err := session.FindProduct(body.ProductID)
	if err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	session.Cart.AddItem(product.CartCandidate())
	utils.RespondJSON(c, http.StatusOK, "Added to cart", cartResponse(session.Cart.Snapshot()))
}

// UpdateQuantity sets a line quantity; zero or less removes the line.
func (cc *CartController) UpdateQuantity(c *gin.Context) {
	var body struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.Quantity == nil {
		utils.RespondError(c, http.StatusBadRequest, errors.New("quantity is required"))
		return
	}

	session := currentSession(c, cc.Sessions)
	session.Cart.SetQuantity(c.Param("product_id"), *body.Quantity)
	utils.RespondJSON(c, http.StatusOK, "Cart updated", cartResponse(session.Cart.Snapshot()))
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	session := currentSession(c, cc.Sessions)
	session.Cart.RemoveItem(c.Param("product_id"))
	utils.RespondJSON(c, http.StatusOK, "Removed from cart", cartResponse(session.Cart.Snapshot()))
}

func (cc *CartController) ClearCart(c *gin.Context) {
	session := currentSession(c, cc.Sessions)
	session.Cart.Clear()
	utils.RespondJSON(c, http.StatusOK, "Cart cleared", cartResponse(session.Cart.Snapshot()))
}
