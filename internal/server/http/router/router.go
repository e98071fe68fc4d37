package router

import (
	"log/slog"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/polkiloo/coursemart/internal/config"
	"github.com/polkiloo/coursemart/internal/server/http/dto"
	"github.com/polkiloo/coursemart/internal/server/http/handlers"
	"github.com/polkiloo/coursemart/internal/server/http/middleware"
)

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.CourseMart, cfg *config.Config, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	dto.RegisterValidators()
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.DecompressRequest())
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	authHandler := handlers.NewAuthHandler(facade)
	courseHandler := handlers.NewCourseHandler(facade)
	enrollmentHandler := handlers.NewEnrollmentHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	api := engine.Group("/api")
	api.GET("/health", healthHandler.Check)
	api.GET("/courses", courseHandler.List)

	user := api.Group("/user")
	user.POST("/register", authHandler.Register)
	user.POST("/login", authHandler.Login)

	// Cleanup is driven by schedulers, not users.
	api.DELETE("/enrollment/cleanup", middleware.CleanupGuard(cfg.CleanupToken), enrollmentHandler.Cleanup)

	enrollment := api.Group("/enrollment")
	enrollment.Use(middleware.AuthRequired(facade))
	enrollment.GET("", enrollmentHandler.List)
	enrollment.GET("/:id/payments", enrollmentHandler.Payments)

	mutations := enrollment.Group("")
	mutations.Use(limiter.Middleware())
	mutations.POST("/create", enrollmentHandler.Create)
	mutations.POST("/verify", enrollmentHandler.Verify)
	mutations.POST("/reconcile", enrollmentHandler.Reconcile)
	mutations.POST("/partial-payment", enrollmentHandler.PartialPayment)
	mutations.DELETE("/:id", enrollmentHandler.Cancel)

	return engine
}
