package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/xtclovver/tourgate/internal/booking"
	"github.com/xtclovver/tourgate/internal/client"
	"github.com/xtclovver/tourgate/internal/config"
	"github.com/xtclovver/tourgate/internal/database"
	"github.com/xtclovver/tourgate/internal/handlers"
	"github.com/xtclovver/tourgate/internal/middleware"
	"github.com/xtclovver/tourgate/internal/pricing"
	"github.com/xtclovver/tourgate/internal/session"
	"github.com/xtclovver/tourgate/pkg/dates"
	"github.com/xtclovver/tourgate/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting TourGate booking gateway")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Initialize Redis-backed token store
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		logger.Fatalf("Failed to connect to Redis: %v", err)
	}
	cancelPing()
	logger.Info("Redis connection established")

	tokenStore := session.NewRedisTokenStore(redisClient, cfg.Redis.KeyPrefix)

	// Session continuity: the refresh client deliberately bypasses the
	// session transport so a refresh can never trigger another refresh.
	authClient := client.NewAuthClient(cfg.Upstream.BaseURL, cfg.Upstream.Timeout, logger)
	manager := session.NewManager(tokenStore, authClient, logger, cfg.Session.RefreshLeeway)
	manager.OnSessionExpired(func() {
		logger.Warn("session expired, upstream calls will be unauthenticated until new tokens arrive")
	})

	// Upstream API client through the session-aware transport
	api := client.New(cfg.Upstream.BaseURL, manager.HTTPClient(cfg.Upstream.Timeout), logger)

	// One-shot session bootstrap: restore a persisted session if one exists
	boot := session.NewInitializer(manager, api, logger)
	bootCtx, cancelBoot := context.WithTimeout(context.Background(), 10*time.Second)
	boot.Initialize(bootCtx)
	cancelBoot()

	// Initialize services
	logger.Info("Initializing services...")
	resolver := dates.NewResolver()
	calculator := pricing.NewCalculator(resolver)
	contacts := validator.NewContactValidator()
	submitter := booking.NewSubmitter(api, logger)
	draftRepository := database.NewDraftOrderRepository(db)

	// Periodic cleanup of abandoned drafts
	sweeperDone := make(chan struct{})
	go sweepStaleDrafts(draftRepository, cfg.Session.DraftRetentionDays, logger, sweeperDone)

	// Initialize handlers
	bookingHandler := handlers.NewBookingHandler(api, calculator, contacts, submitter, draftRepository, boot, logger)
	orderHandler := handlers.NewOrderHandler(api, calculator, resolver, logger)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db, boot))

	handlers.RegisterRoutes(router, bookingHandler, orderHandler)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	close(sweeperDone)

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// sweepStaleDrafts deletes drafts untouched for longer than the retention
// window, once a day
func sweepStaleDrafts(drafts *database.DraftOrderRepository, retentionDays int, logger *logrus.Logger, done <-chan struct{}) {
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deleted, err := drafts.DeleteStale(retentionDays)
			if err != nil {
				logger.WithError(err).Warn("stale draft sweep failed")
				continue
			}
			if deleted > 0 {
				logger.WithField("deleted", deleted).Info("stale drafts removed")
			}
		case <-done:
			return
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB, boot *session.Initializer) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"session":   boot.State(),
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
