package router

import (
	"strings"
	"time"

	"aipocket/backend/internal/api"
	"aipocket/backend/internal/ws"
	"aipocket/backend/pkg/config"
	"aipocket/backend/pkg/di"
	"aipocket/backend/pkg/errors"
	"aipocket/backend/pkg/logger"
	"aipocket/backend/pkg/middleware"
	"aipocket/backend/pkg/observability"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Track server start time for uptime calculations
var startTime = time.Now()

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Hub       *ws.Hub
	Config    *config.Config
}

// New creates a new router with the given container
func New(container *di.Container) *Router {
	// Use the container's logger
	logger.SetGlobal(container.Logger)

	// Load configuration
	cfg := config.Get()

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize Gin router
	engine := gin.New()

	// Tag every request before anything logs it
	engine.Use(middleware.RequestIDMiddleware())

	// Use the logger middleware to capture all requests
	engine.Use(logger.Middleware(container.Logger))

	// Add custom error handler middleware
	engine.Use(errors.ErrorHandler())

	// Add custom recovery middleware with structured logging instead of default
	engine.Use(errors.RecoveryWithLogger())

	// Create rate limiter with configured options
	options := middleware.DefaultRateLimiterOptions()
	options.Limit = rate.Limit(cfg.Security.RateLimit)
	options.Burst = cfg.Security.RateLimitBurst
	rateLimiter := middleware.NewRateLimiter(container.Logger, options)

	// Apply rate limiting to all routes
	engine.Use(rateLimiter.Middleware())

	// Initialize WebSocket hub
	hub := ws.NewHub(container.Sessions, container.Logger)

	// Start the hub
	go hub.Run()

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Hub:       hub,
		Config:    cfg,
	}
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	// Add CORS middleware
	r.Engine.Use(corsMiddleware(r.Config.Security.AllowedOrigins))

	// Health check endpoints
	r.setupHealthRoutes()

	// Prometheus scrape endpoint
	r.Engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	// Initialize handlers
	chatCfg := r.Container.ChatConfig()
	characterHandler := api.NewCharacterHandler(r.Container.Characters, r.Container.Sessions)
	messageHandler := api.NewMessageHandler(r.Container.Characters, r.Container.History, r.Container.Sessions, chatCfg)
	settingsHandler := api.NewSettingsHandler(r.Container.Credentials)

	// API version 1 routes
	v1 := r.Engine.Group("/api/v1")
	{
		characterRoutes := v1.Group("/characters")
		{
			characterRoutes.GET("", characterHandler.ListCharacters)
			characterRoutes.POST("", characterHandler.CreateCharacter)
			characterRoutes.GET("/:id", characterHandler.GetCharacter)
			characterRoutes.PUT("/:id", characterHandler.UpdateCharacter)
			characterRoutes.DELETE("/:id", characterHandler.DeleteCharacter)
			characterRoutes.GET("/:id/messages", messageHandler.ListMessages)
			characterRoutes.POST("/:id/messages", messageHandler.SendMessage)
		}

		settingsRoutes := v1.Group("/settings")
		{
			settingsRoutes.GET("/api-key", settingsHandler.GetAPIKeyStatus)
			settingsRoutes.PUT("/api-key", settingsHandler.UpdateAPIKey)
		}
	}

	// WebSocket chat stream
	r.Engine.GET("/ws/chat/:id", r.Hub.ServeWS)
}

// corsMiddleware handles cross-origin requests
func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	for _, origin := range allowedOrigins {
		if origin == "*" {
			allowAll = true
		}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if allowAll {
			c.Header("Access-Control-Allow-Origin", "*")
		} else if origin != "" && contains(allowedOrigins, origin) {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if strings.EqualFold(v, target) {
			return true
		}
	}
	return false
}
