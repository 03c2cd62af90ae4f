package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-storefront/services"
	"github.com/yeremiapane/restaurant-storefront/utils"
)

type FavoritesController struct {
	Sessions *services.SessionManager
}

func NewFavoritesController(sessions *services.SessionManager) *FavoritesController {
	return &FavoritesController{Sessions: sessions}
}

func (fc *FavoritesController) GetFavorites(c *gin.Context) {
	session := currentSession(c, fc.Sessions)
	utils.RespondJSON(c, http.StatusOK, "Favorite products", gin.H{
		"ids":      session.Favorites.IDs(),
		"products": session.Favorites.List(),
	})
}

func (fc *FavoritesController) IsFavorite(c *gin.Context) {
	session := currentSession(c, fc.Sessions)
	id := c.Param("product_id")
	utils.RespondJSON(c, http.StatusOK, "Favorite status", gin.H{
		"product_id": id,
		"favorite":   session.Favorites.IsFavorite(id),
	})
}

// AddFavorite only accepts products from the session catalog.
func (fc *FavoritesController) AddFavorite(c *gin.Context) {
	session := currentSession(c, fc.Sessions)
	id := c.Param("product_id")
	if _, err := session.FindProduct(id); err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	session.Favorites.Add(id)
	utils.RespondJSON(c, http.StatusOK, "Added to favorites", gin.H{"product_id": id, "favorite": true})
}

func (fc *FavoritesController) RemoveFavorite(c *gin.Context) {
	session := currentSession(c, fc.Sessions)
	id := c.Param("product_id")
	session.Favorites.Remove(id)
	utils.RespondJSON(c, http.StatusOK, "Removed from favorites", gin.H{"product_id": id, "favorite": false})
}
