package http

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	appsvc "studykwork/internal/app"
	"studykwork/internal/bootstrap"
	"studykwork/internal/cache"
	"studykwork/internal/platform/rabbitmq"
	"studykwork/internal/repository"
	"studykwork/internal/storage"
	"studykwork/internal/transport/http/handler"
	"studykwork/internal/transport/http/middleware"
	"studykwork/internal/transport/http/response"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	cfg := app.Config

	gin.SetMode(cfg.App.GinMode)
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.App.TrustedProxies); err != nil {
		slog.Error("invalid trusted proxies, trusting none", "error", err)
		_ = router.SetTrustedProxies(nil)
	}
	router.Use(middleware.RequestID(), gin.Recovery(), cors.New(corsConfig()))

	userRepo := repository.NewUserRepository(app.DB)
	listingRepo := repository.NewListingRepository(app.DB)

	var listingCache appsvc.ListingCache
	if app.Redis != nil {
		listingCache = cache.NewListingCache(app.Redis, time.Duration(cfg.Redis.ListingTTLSeconds)*time.Second)
	}
	var publisher appsvc.ListingEventPublisher
	if app.MQConn != nil {
		publisher = rabbitmq.NewListingEventPublisher(app.MQConn, cfg.RabbitMQ.ListingEventQueue)
	}

	authService := appsvc.NewAuthService(
		userRepo,
		cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute,
		cfg.App.University,
	)
	listingService := appsvc.NewListingService(listingRepo, app.Images, listingCache, publisher, appsvc.ListingSettings{
		University:     cfg.App.University,
		PlaceholderURL: cfg.Upload.PlaceholderURL,
		MaxImages:      cfg.Upload.MaxFiles,
	})

	healthHandler := handler.NewHealthHandler(app)
	authHandler := handler.NewAuthHandler(authService)
	listingHandler := handler.NewListingHandler(listingService, cfg.Upload.MaxFiles, cfg.Upload.MaxFileBytes)
	requireAuth := middleware.AuthJWT(authService)

	router.GET("/healthz", healthHandler.Check)
	router.Static("/uploads", app.Images.Dir())

	api := router.Group("/api")
	api.GET("/health", healthHandler.Ping)

	authGroup := api.Group("/auth")
	authLimit := middleware.RateLimit(cfg.RateLimit.AuthRPS, cfg.RateLimit.AuthBurst)
	authGroup.POST("/register", authLimit, authHandler.Register)
	authGroup.POST("/login", authLimit, authHandler.Login)
	authGroup.GET("/me", requireAuth, authHandler.Me)

	api.GET("/ads", listingHandler.List)
	api.GET("/ads/:id", listingHandler.Get)
	api.POST("/ads", requireAuth, listingHandler.Create)
	api.DELETE("/ads/:id", requireAuth, listingHandler.Delete)
	api.GET("/my/ads", requireAuth, listingHandler.ListMine)

	router.NoRoute(spaFallback(cfg.App.ClientDist, cfg.ClientIndex()))

	return router
}

func corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowAllOrigins = true
	cfg.AddAllowHeaders("Authorization", "X-Request-ID")
	cfg.AddExposeHeaders("X-Request-ID")
	return cfg
}

// spaFallback serves built client assets, then index.html for client-side routes.
// Unknown /api paths and missing uploads get a JSON 404.
func spaFallback(dist, index string) gin.HandlerFunc {
	assets := http.Dir(dist)
	fileServer := http.FileServer(assets)

	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/api" || strings.HasPrefix(path, "/api/") || strings.HasPrefix(path, storage.URLPrefix) {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "not found")
			return
		}
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			response.Error(c, http.StatusNotFound, response.CodeNotFound, "not found")
			return
		}

		if path != "/" {
			if f, err := assets.Open(path); err == nil {
				stat, statErr := f.Stat()
				_ = f.Close()
				if statErr == nil && !stat.IsDir() {
					fileServer.ServeHTTP(c.Writer, c.Request)
					return
				}
			}
		}

		if _, err := os.Stat(index); err != nil {
			c.String(http.StatusInternalServerError, "Client build not found. Build the web client into %s.", dist)
			return
		}
		c.File(index)
	}
}
