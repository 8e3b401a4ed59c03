// Package server assembles the HTTP surface: services, handlers and routes.
package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"budgetpace/internal/config"
	"budgetpace/internal/handlers"
	"budgetpace/internal/middleware"
	"budgetpace/internal/notify"
	"budgetpace/internal/repository"
	"budgetpace/internal/services"
	"budgetpace/internal/validator"
)

// NewRouter wires the services over db and registers every route.
// A nil publisher discards alert events.
func NewRouter(cfg *config.Config, db *gorm.DB, publisher notify.Publisher) *gin.Engine {
	validator.Register()

	store := repository.NewStore(db)
	auditService := services.NewAuditService(db)
	budgetService := services.NewBudgetService(store)
	trackingService := services.NewTrackingService(store, cfg.Engine)
	periodService := services.NewPeriodService(store, cfg.Engine)
	alertService := services.NewAlertService(store, publisher, cfg.Engine)

	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	trackingHandler := handlers.NewTrackingHandler(trackingService)
	alertHandler := handlers.NewAlertHandler(alertService)
	pipelineHandler := handlers.NewPipelineHandler(periodService, alertService)

	router := gin.New()
	router.Use(middleware.RequestLogging())
	router.Use(middleware.Recovery())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware(cfg.JWTSecret))

	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.POST("/generate", trackingHandler.GenerateBudget)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)
	budgets.GET("/:id/summary", trackingHandler.GetSummary)
	budgets.GET("/:id/velocity", trackingHandler.GetVelocity)
	budgets.GET("/:id/health", trackingHandler.GetHealthScore)
	budgets.GET("/:id/seasonal", trackingHandler.GetSeasonalPatterns)
	budgets.GET("/:id/flex-groups", trackingHandler.GetFlexGroups)
	budgets.GET("/:id/trends", trackingHandler.GetTrends)
	budgets.GET("/:id/alerts", alertHandler.ListAlerts)

	protected.GET("/dashboard/budgets", trackingHandler.GetDashboard)
	protected.PATCH("/alerts/:id/read", alertHandler.MarkRead)

	pipeline := v1.Group("/pipeline")
	pipeline.Use(middleware.PipelineAuthMiddleware(cfg.PipelineAPIKey))
	pipeline.POST("/budgets/:id/close", pipelineHandler.ClosePeriod)
	pipeline.POST("/budgets/:id/alerts", pipelineHandler.GenerateAlerts)
	pipeline.POST("/periods/close-due", pipelineHandler.CloseDuePeriods)
	pipeline.PATCH("/alerts/:id/email-sent", pipelineHandler.MarkEmailSent)

	return router
}
