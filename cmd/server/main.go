package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/greg-czaplicki/parlay-picker/internal/api"
	"github.com/greg-czaplicki/parlay-picker/internal/api/handlers"
	"github.com/greg-czaplicki/parlay-picker/internal/api/middleware"
	"github.com/greg-czaplicki/parlay-picker/internal/providers"
	"github.com/greg-czaplicki/parlay-picker/internal/services"
	"github.com/greg-czaplicki/parlay-picker/pkg/config"
	"github.com/greg-czaplicki/parlay-picker/pkg/database"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	// Setup logging
	if cfg.IsDevelopment() {
		logrus.SetLevel(logrus.DebugLevel)
		gin.SetMode(gin.DebugMode)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
		gin.SetMode(gin.ReleaseMode)
	}
	logger := logrus.StandardLogger()

	// Connect to database
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Connect to Redis
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logrus.Fatalf("Failed to parse Redis URL: %v", err)
	}
	redisClient := redis.NewClient(opt)
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()

	// Initialize services
	cacheService := services.NewCacheService(redisClient)
	wsHub := services.NewWebSocketHub(logger)
	go wsHub.Run()

	courseFit := services.NewCourseFitService(cfg.CourseFitURL, cfg.CircuitBreakerThreshold, cfg.CourseFitTimeout, logger)

	var smsService services.SMSService
	if cfg.SMSProvider == "twilio" {
		smsLimiter := services.NewSMSRateLimiter(cfg.AlertRateLimit, time.Hour)
		smsService = services.NewTwilioSMSService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, smsLimiter, logger)
	} else {
		smsService = services.NewMockSMSService()
	}
	alertService := services.NewAlertService(smsService, cfg.AlertRecipient, cfg.AlertValueThreshold, logger)

	matchupService := services.NewMatchupService(
		db, cacheService, courseFit, cfg.CourseFitTimeout,
		time.Duration(cfg.FilterCacheExpiration)*time.Second, logger,
	).WithAlerts(alertService)
	parlayService := services.NewParlayService(db, logger)

	dataGolf := providers.NewDataGolfClient(cfg.DataGolfAPIKey, cfg.DataGolfRateLimit, logger)
	syncService := services.NewSyncService(db, cacheService, dataGolf, wsHub, cfg.SupportedTours, cfg.SyncSchedule, logger)
	if cfg.EnableBackgroundSync {
		if err := syncService.Start(); err != nil {
			logrus.Errorf("Failed to start sync service: %v", err)
		}
		defer syncService.Stop()
		if !cfg.SkipInitialSync {
			go syncService.SyncNow()
		}
	}

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.CORS(cfg.CorsOrigins))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().UTC(),
		})
	})

	// Setup API routes under /api/v1
	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, matchupService, parlayService, syncService, courseFit, wsHub, cfg, logger)

	// Setup WebSocket endpoint at root level (not under /api/v1)
	wsHandler := handlers.NewWebSocketHandler(wsHub, cfg.CorsOrigins, logger)
	router.GET("/ws", middleware.OptionalAuth(cfg.JWTSecret), wsHandler.HandleWebSocket)

	// Setup server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logrus.Infof("Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("Server forced to shutdown: %v", err)
	}

	logrus.Info("Server exited")
}
