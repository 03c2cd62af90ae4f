package main

import (
	"flag"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-storefront/config"
	"github.com/yeremiapane/restaurant-storefront/database"
	"github.com/yeremiapane/restaurant-storefront/hub"
	"github.com/yeremiapane/restaurant-storefront/middlewares"
	"github.com/yeremiapane/restaurant-storefront/router"
	"github.com/yeremiapane/restaurant-storefront/services"
	"github.com/yeremiapane/restaurant-storefront/storage"
	"github.com/yeremiapane/restaurant-storefront/utils"
)

func main() {
	configPath := flag.String("config", "config.yaml", "optional YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Loggers are not configured yet.
		utils.InitLogger("info", true)
		utils.ErrorLogger.Fatalf("Failed to load config: %v", err)
	}
	utils.InitLogger(cfg.Log.Level, cfg.Log.Pretty)

	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := config.InitDB(cfg, utils.InfoLogger)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Info("AutoMigrate completed.")

	if _, err := database.SeedCatalog(db, cfg.Catalog.Seed, utils.InfoLogger); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed catalog: %v", err)
	}
	if cfg.Admin.Email != "" {
		if err := database.EnsureAdmin(db, cfg.Admin.Name, cfg.Admin.Email, cfg.Admin.Password); err != nil {
			utils.ErrorLogger.Fatalf("Failed to provision admin: %v", err)
		}
	}

	catalog := services.NewCatalogService(db)
	if err := catalog.Reload(); err != nil {
		utils.ErrorLogger.Fatalf("Failed to load catalog: %v", err)
	}
	utils.InfoLogger.WithField("products", len(catalog.Products())).Info("Catalog loaded")

	var store storage.Store
	switch cfg.Store.Driver {
	case "memory":
		store = storage.NewMemoryStore()
	default:
		store = storage.NewGormStore(db)
	}

	h := hub.NewHub(utils.InfoLogger)
	notifier := services.NewFanout(h)

	tokens := utils.NewTokenManager(cfg.Session.Secret, cfg.Session.TTL)

	sessions := services.NewSessionManager(store, catalog, notifier, utils.InfoLogger)
	sessions.IdleTimeout = cfg.Session.Idle
	sessions.Interval = cfg.Session.Sweep
	limiter := middlewares.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	loginLimiter := middlewares.NewStrictRateLimiter(cfg.RateLimit.Login)
	sessions.OnSweep = func() {
		if n := tokens.CleanupBlacklist(); n > 0 {
			utils.InfoLogger.WithField("count", n).Debug("Dropped expired revoked tokens")
		}
		now := time.Now()
		if n := limiter.Prune(now) + loginLimiter.Prune(now); n > 0 {
			utils.InfoLogger.WithField("count", n).Debug("Dropped idle rate limit entries")
		}
	}
	sessions.Start()
	defer sessions.Stop()

	r := router.SetupRouter(router.Deps{
		Config:   cfg,
		DB:       db,
		Tokens:   tokens,
		Catalog:  catalog,
		Sessions: sessions,
		Hub:      h,

		Limiter:      limiter,
		LoginLimiter: loginLimiter,
	})
	r.SetTrustedProxies([]string{"127.0.0.1"})

	utils.InfoLogger.Printf("Listening on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}
