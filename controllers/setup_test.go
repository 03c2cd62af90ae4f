package controllers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-storefront/controllers"
	"github.com/yeremiapane/restaurant-storefront/database"
	"github.com/yeremiapane/restaurant-storefront/middlewares"
	"github.com/yeremiapane/restaurant-storefront/models"
	"github.com/yeremiapane/restaurant-storefront/services"
	"github.com/yeremiapane/restaurant-storefront/storage"
	"github.com/yeremiapane/restaurant-storefront/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.InitTestLogger()
}

type testEnv struct {
	DB       *gorm.DB
	Store    *storage.MemoryStore
	Tokens   *utils.TokenManager
	Catalog  *services.CatalogService
	Sessions *services.SessionManager
	Events   *recordingBroadcaster
	Router   *gin.Engine
}

type recordingBroadcaster struct {
	events []services.Event
}

func (b *recordingBroadcaster) Broadcast(e services.Event) {
	b.events = append(b.events, e)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	_, err = database.SeedCatalog(db, "", nil)
	require.NoError(t, err)
	require.NoError(t, database.EnsureAdmin(db, "Admin", "Admin@Example.com", "admin-pass"))
	return db
}

func setupEnv(t *testing.T) *testEnv {
	env := &testEnv{
		DB:     setupTestDB(t),
		Store:  storage.NewMemoryStore(),
		Tokens: utils.NewTokenManager("test-secret", time.Hour),
		Events: &recordingBroadcaster{},
	}
	env.Catalog = services.NewCatalogService(env.DB)
	require.NoError(t, env.Catalog.Reload())
	env.Sessions = services.NewSessionManager(env.Store, env.Catalog, nil, utils.InfoLogger)

	userCtrl := controllers.NewUserController(env.DB, env.Tokens, false)
	menuCtrl := controllers.NewMenuController(env.Sessions)
	cartCtrl := controllers.NewCartController(env.Sessions)
	favCtrl := controllers.NewFavoritesController(env.Sessions)
	productCtrl := controllers.NewProductController(env.DB, env.Catalog, env.Sessions, env.Events)

	r := gin.New()
	r.Use(middlewares.SessionMiddleware(env.Tokens, false))
	r.POST("/signup", userCtrl.Signup)
	r.POST("/login", userCtrl.Login)
	r.POST("/logout", userCtrl.Logout)
	r.GET("/profile", userCtrl.GetProfile)

	r.GET("/menu/items", menuCtrl.GetMenuItems)
	r.PATCH("/menu/filter", menuCtrl.UpdateFilter)
	r.GET("/menu/categories", menuCtrl.GetCategories)

	r.GET("/products/featured", productCtrl.GetFeatured)
	r.GET("/products/search", productCtrl.Search)
	r.GET("/products/:product_id", productCtrl.GetProduct)

	r.GET("/cart", cartCtrl.GetCart)
	r.DELETE("/cart", cartCtrl.ClearCart)
	r.POST("/cart/items", cartCtrl.AddItem)
	r.PATCH("/cart/items/:product_id", cartCtrl.UpdateQuantity)
	r.DELETE("/cart/items/:product_id", cartCtrl.RemoveItem)

	r.GET("/favorites", favCtrl.GetFavorites)
	r.GET("/favorites/:product_id", favCtrl.IsFavorite)
	r.PUT("/favorites/:product_id", favCtrl.AddFavorite)
	r.DELETE("/favorites/:product_id", favCtrl.RemoveFavorite)

	admin := r.Group("/admin", middlewares.RequireRole(models.RoleAdmin))
	admin.GET("/users", userCtrl.GetAllUsers)
	admin.GET("/products", productCtrl.ListProducts)
	admin.POST("/products", productCtrl.CreateProduct)
	admin.PUT("/products/:product_id", productCtrl.UpdateProduct)
	admin.DELETE("/products/:product_id", productCtrl.DeleteProduct)
	admin.POST("/catalog/reload", productCtrl.ReloadCatalog)

	env.Router = r
	return env
}

// request sends body as JSON with the given session token and returns the
// recorder. An empty token starts a new guest session.
func (env *testEnv) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

// guest opens a session, materialises its state and returns its token.
func (env *testEnv) guest(t *testing.T) string {
	w := env.request(http.MethodGet, "/cart", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	token := w.Header().Get(middlewares.SessionHeader)
	require.NotEmpty(t, token)
	return token
}

func (env *testEnv) login(t *testing.T, token, email, password string) string {
	w := env.request(http.MethodPost, "/login", token, gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return data(t, w)["token"].(string)
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out interface{}) envelope {
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if out != nil {
		require.NoError(t, json.Unmarshal(env.Data, out))
	}
	return env
}

func data(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var out map[string]interface{}
	decode(t, w, &out)
	return out
}
