package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-storefront/middlewares"
	"github.com/yeremiapane/restaurant-storefront/services"
	"github.com/yeremiapane/restaurant-storefront/utils"
)

type MenuController struct {
	Sessions *services.SessionManager
}

func NewMenuController(sessions *services.SessionManager) *MenuController {
	return &MenuController{Sessions: sessions}
}

func currentSession(c *gin.Context, sessions *services.SessionManager) *services.Session {
	return sessions.Get(c.GetString(middlewares.CtxSessionID))
}

// GetMenuItems returns the visible items. The q and category query
// parameters, when present, update the session filter first.
func (mc *MenuController) GetMenuItems(c *gin.Context) {
	session := currentSession(c, mc.Sessions)

	if q, ok := c.GetQuery("q"); ok {
		session.Menu.SetSearchText(q)
	}
	if category, ok := c.GetQuery("category"); ok {
		session.Menu.SetCategory(category)
	}

	utils.RespondJSON(c, http.StatusOK, "List of menu items", gin.H{
		"search_text": session.Menu.SearchText(),
		"category":    session.Menu.Category(),
		"items":       session.Menu.VisibleItems(),
	})
}

// UpdateFilter sets the search text and/or the category of the session menu.
func (mc *MenuController) UpdateFilter(c *gin.Context) {
	var body struct {
		Search   *string `json:"search"`
		Category *string `json:"category"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session := currentSession(c, mc.Sessions)
	if body.Search != nil {
		session.Menu.SetSearchText(*body.Search)
	}
	if body.Category != nil {
		session.Menu.SetCategory(*body.Category)
	}

	utils.RespondJSON(c, http.StatusOK, "Menu filter updated", session.Menu.Snapshot())
}

func (mc *MenuController) GetCategories(c *gin.Context) {
	session := currentSession(c, mc.Sessions)
	utils.RespondJSON(c, http.StatusOK, "Menu categories", session.Menu.CategoryCounts())
}
