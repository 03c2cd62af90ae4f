package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/restaurant-storefront/hub"
	"github.com/yeremiapane/restaurant-storefront/services"
	"github.com/yeremiapane/restaurant-storefront/utils"
)

type EventsController struct {
	Hub           *hub.Hub
	Sessions      *services.SessionManager
	AllowedOrigin string

	upgrader websocket.Upgrader
}

func NewEventsController(h *hub.Hub, sessions *services.SessionManager, allowedOrigin string) *EventsController {
	ec := &EventsController{Hub: h, Sessions: sessions, AllowedOrigin: allowedOrigin}
	ec.upgrader = websocket.Upgrader{CheckOrigin: ec.checkOrigin}
	return ec
}

// checkOrigin accepts same-host origins and those in the comma separated
// AllowedOrigin list. Non-browser clients send no Origin at all.
func (ec *EventsController) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	for _, allowed := range strings.Split(ec.AllowedOrigin, ",") {
		if allowed = strings.TrimSpace(allowed); allowed == "*" || allowed == origin {
			return true
		}
	}
	return false
}

// Stream upgrades to a websocket and pushes the session's cart, favorites
// and menu events until the client goes away.
func (ec *EventsController) Stream(c *gin.Context) {
	session := currentSession(c, ec.Sessions)

	ws, err := ec.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.InfoLogger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	// The hub queues the current state ahead of any later notification.
	ec.Hub.RegisterClient(ws, session.ID, func() []services.Event {
		return []services.Event{
			{Type: services.EventCartUpdate, SessionID: session.ID, Data: session.Cart.Snapshot()},
			{Type: services.EventFavoritesUpdate, SessionID: session.ID, Data: session.Favorites.IDs()},
			{Type: services.EventMenuUpdate, SessionID: session.ID, Data: session.Menu.Snapshot()},
		}
	})
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}
	ec.Hub.UnregisterClient(ws)
}
