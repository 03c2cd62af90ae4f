package router

import (
	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-storefront/config"
	"github.com/yeremiapane/restaurant-storefront/controllers"
	"github.com/yeremiapane/restaurant-storefront/hub"
	"github.com/yeremiapane/restaurant-storefront/middlewares"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/services"
	"github.com/yeremiapane/restaurant-storefront/utils"
	"gorm.io/gorm"
)

// Deps are the long-lived objects the HTTP layer is built from.
type Deps struct {
	Config   *config.Config
	DB       *gorm.DB
	Tokens   *utils.TokenManager
	Catalog  *services.CatalogService
	Sessions *services.SessionManager
	Hub      *hub.Hub

	// Built from Config when nil. Callers that keep them can prune idle IPs.
	Limiter      *middlewares.RateLimiter
	LoginLimiter *middlewares.StrictRateLimiter
}

func SetupRouter(d Deps) *gin.Engine {
	cfg := d.Config
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders(cfg.Session.Secure))
	r.Use(middlewares.CORSMiddlewares(cfg.CORS.Origin))
	r.Use(middlewares.LoggerMiddleware())
	if d.Limiter == nil {
		d.Limiter = middlewares.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	}
	if d.LoginLimiter == nil {
		d.LoginLimiter = middlewares.NewStrictRateLimiter(cfg.RateLimit.Login)
	}
	r.Use(d.Limiter.RateLimit())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	userCtrl := controllers.NewUserController(d.DB, d.Tokens, cfg.Session.Secure)
	menuCtrl := controllers.NewMenuController(d.Sessions)
	cartCtrl := controllers.NewCartController(d.Sessions)
	favCtrl := controllers.NewFavoritesController(d.Sessions)
	eventsCtrl := controllers.NewEventsController(d.Hub, d.Sessions, cfg.CORS.Origin)

	var broadcaster controllers.Broadcaster
	if d.Hub != nil {
		broadcaster = d.Hub
	}
	productCtrl := controllers.NewProductController(d.DB, d.Catalog, d.Sessions, broadcaster)

	// Every route below belongs to a session, guest or signed in.
	s := r.Group("/")
	s.Use(middlewares.SessionMiddleware(d.Tokens, cfg.Session.Secure))

	public := s.Group("/")
	public.Use(d.LoginLimiter.Handler())
	{
		public.POST("/signup", userCtrl.Signup)
		public.POST("/login", userCtrl.Login)
	}
	s.POST("/logout", userCtrl.Logout)
	s.GET("/profile", userCtrl.GetProfile)

	menu := s.Group("/menu")
	{
		menu.GET("/items", menuCtrl.GetMenuItems)
		menu.PATCH("/filter", menuCtrl.UpdateFilter)
		menu.GET("/categories", menuCtrl.GetCategories)
	}

	products := s.Group("/products")
	{
		products.GET("/featured", productCtrl.GetFeatured)
		products.GET("/search", productCtrl.Search)
		products.GET("/:product_id", productCtrl.GetProduct)
	}

	cart := s.Group("/cart")
	{
		cart.GET("", cartCtrl.GetCart)
		cart.DELETE("", cartCtrl.ClearCart)
		cart.POST("/items", cartCtrl.AddItem)
		cart.PATCH("/items/:product_id", cartCtrl.UpdateQuantity)
		cart.DELETE("/items/:product_id", cartCtrl.RemoveItem)
	}

	favorites := s.Group("/favorites")
	{
		favorites.GET("", favCtrl.GetFavorites)
		favorites.GET("/:product_id", favCtrl.IsFavorite)
		favorites.PUT("/:product_id", favCtrl.AddFavorite)
		favorites.DELETE("/:product_id", favCtrl.RemoveFavorite)
	}

	if d.Hub != nil {
		s.GET("/ws", eventsCtrl.Stream)
	}

	admin := s.Group("/admin")
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	{
		admin.GET("/users", userCtrl.GetAllUsers)
		admin.GET("/products", productCtrl.ListProducts)
		admin.POST("/products", productCtrl.CreateProduct)
		admin.PUT("/products/:product_id", productCtrl.UpdateProduct)
		admin.DELETE("/products/:product_id", productCtrl.DeleteProduct)
		admin.POST("/catalog/reload", productCtrl.ReloadCatalog)
	}

	return r
}
