package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/greg-czaplicki/parlay-picker/internal/api/handlers"
	"github.com/greg-czaplicki/parlay-picker/internal/api/middleware"
	"github.com/greg-czaplicki/parlay-picker/internal/services"
	"github.com/greg-czaplicki/parlay-picker/pkg/config"
)

// SetupRoutes configures all API routes on the given router group
func SetupRoutes(
	group *gin.RouterGroup,
	matchupService *services.MatchupService,
	parlayService *services.ParlayService,
	syncService *services.SyncService,
	courseFit *services.CourseFitService,
	wsHub *services.WebSocketHub,
	cfg *config.Config,
	logger *logrus.Logger,
) {
	matchupHandler := handlers.NewMatchupHandler(matchupService, syncService, logger)
	parlayHandler := handlers.NewParlayHandler(parlayService, logger)
	healthHandler := handlers.NewHealthHandler(courseFit, syncService, wsHub)

	// Status endpoints
	group.GET("/status", healthHandler.GetStatus)

	// Event and matchup endpoints
	group.GET("/events", matchupHandler.ListEvents)
	group.GET("/events/:id/matchups", matchupHandler.GetEventMatchups)
	group.GET("/events/:id/filters/:name", matchupHandler.RunFilter)
	group.GET("/matchups/:groupId/comparison", matchupHandler.CompareGroup)

	// Parlay endpoints
	parlays := group.Group("/parlays")
	parlays.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		parlays.GET("", parlayHandler.ListParlays)
		parlays.POST("", parlayHandler.CreateParlay)
		parlays.GET("/:id", parlayHandler.GetParlay)
		parlays.DELETE("/:id", parlayHandler.DeleteParlay)
	}

	// Admin endpoints (should be behind a stricter role check eventually)
	admin := group.Group("/admin")
	admin.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		admin.POST("/sync", matchupHandler.TriggerSync)
		admin.POST("/matchups/:groupId/settle", parlayHandler.SettleGroup)
	}
}
