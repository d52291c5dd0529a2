package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ordering-svc/audit"
	"ordering-svc/auth"
	"ordering-svc/cache"
	"ordering-svc/config"
	"ordering-svc/database"
	"ordering-svc/handlers"
	"ordering-svc/middleware"
	"ordering-svc/models"
	"ordering-svc/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	cfg := config.Load()

	// Initialize database
	db, err := database.InitDB(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	// Initialize Redis; the menu cache is a read-through layer, so the
	// service stays up without it.
	redisClient, err := cache.InitRedis(cfg, logger)
	if err != nil {
		logger.Warn("Redis unavailable, menu caching disabled", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Initialize OpenTelemetry
	shutdown, err := middleware.InitTracing("ordering-svc")
	if err != nil {
		logger.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	defer shutdown()

	// Services
	tokens := auth.NewTokenService(cfg.JWTSecret,
		time.Duration(cfg.AccessTokenHours)*time.Hour,
		time.Duration(cfg.RefreshTokenDays)*24*time.Hour)
	userService := services.NewUserService(db)
	menuService := services.NewMenuService(db)
	orderService := services.NewOrderService(db)
	auditRecorder := audit.NewRecorder(db, logger)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, tokens, logger)
	userHandler := handlers.NewUserHandler(userService, auditRecorder, logger)
	menuHandler := handlers.NewMenuHandler(menuService, redisClient, auditRecorder, logger)
	orderHandler := handlers.NewOrderHandler(orderService, redisClient, auditRecorder, logger)
	adminHandler := handlers.NewAdminHandler(db, logger)
	superAdminHandler := handlers.NewSuperAdminHandler(db, userService, logger)

	// Setup Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("ordering-svc"))
	router.Use(middleware.LoggerMiddleware(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", handlers.HealthCheck)

	// Metrics endpoint
	router.GET("/metrics", middleware.PrometheusHandler())

	v1 := router.Group("/api/v1")

	// Auth endpoints
	authGroup := v1.Group("/auth")
	{
		authGroup.POST("/register", authHandler.Register)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/refresh", authHandler.Refresh)
		authGroup.POST("/verify-token", authHandler.VerifyToken)
	}

	requireAuth := middleware.RequireAuth(tokens, userService)

	// User endpoints
	usersGroup := v1.Group("/users", requireAuth)
	{
		usersGroup.GET("/me", userHandler.Me)
		usersGroup.PUT("/me/profile", userHandler.UpdateProfile)
		usersGroup.POST("/me/change-password", userHandler.ChangePassword)

		adminUsers := usersGroup.Group("", middleware.RequireRole(models.RoleAdmin))
		{
			adminUsers.GET("", userHandler.GetUsers)
			adminUsers.GET("/:id", userHandler.GetUser)
			adminUsers.POST("", userHandler.CreateUser)
		}

		superUsers := usersGroup.Group("", middleware.RequireRole(models.RoleSuperAdmin))
		{
			superUsers.PUT("/:id/role", userHandler.UpdateRole)
			superUsers.PUT("/:id/status", userHandler.UpdateStatus)
			superUsers.DELETE("/:id", userHandler.DeleteUser)
		}
	}

	// Menu endpoints: reads are public, writes are admin-or-above
	menuGroup := v1.Group("/menu")
	{
		menuGroup.GET("/items", menuHandler.GetMenuItems)
		menuGroup.GET("/items/:id", menuHandler.GetMenuItem)
		menuGroup.GET("/categories", menuHandler.GetCategories)
		menuGroup.GET("/options", menuHandler.GetMenuOptions)
		menuGroup.GET("/options/:id", menuHandler.GetMenuOption)

		menuAdmin := menuGroup.Group("", requireAuth, middleware.RequireRole(models.RoleAdmin))
		{
			menuAdmin.POST("/items", menuHandler.CreateMenuItem)
			menuAdmin.PUT("/items/:id", menuHandler.UpdateMenuItem)
			menuAdmin.DELETE("/items/:id", menuHandler.DeleteMenuItem)
			menuAdmin.POST("/options", menuHandler.CreateMenuOption)
			menuAdmin.PUT("/options/:id", menuHandler.UpdateMenuOption)
			menuAdmin.DELETE("/options/:id", menuHandler.DeleteMenuOption)
			menuAdmin.POST("/options/:id/choices", menuHandler.CreateOptionChoice)
			menuAdmin.POST("/options/:id/choices/reorder", menuHandler.ReorderOptionChoices)
			menuAdmin.PUT("/choices/:id", menuHandler.UpdateOptionChoice)
			menuAdmin.DELETE("/choices/:id", menuHandler.DeleteOptionChoice)
		}
	}

	// Order endpoints
	ordersGroup := v1.Group("/orders", requireAuth)
	{
		ordersGroup.GET("", orderHandler.GetOrders)
		ordersGroup.GET("/:id", orderHandler.GetOrder)
		ordersGroup.POST("", orderHandler.CreateOrder)
		ordersGroup.PUT("/:id", orderHandler.UpdateOrder)
		ordersGroup.DELETE("/:id", orderHandler.DeleteOrder)
		ordersGroup.POST("/:id/cancel", orderHandler.CancelOrder)
		ordersGroup.POST("/:id/complete", orderHandler.CompleteOrder)
		ordersGroup.GET("/summary/statistics", orderHandler.Summary)
	}

	// Admin reporting
	adminGroup := v1.Group("/admin", requireAuth, middleware.RequireRole(models.RoleAdmin))
	{
		adminGroup.GET("/dashboard/stats", adminHandler.DashboardStats)
		adminGroup.GET("/orders/summary", adminHandler.OrdersSummary)
		adminGroup.GET("/orders/by-status", adminHandler.OrdersByStatus)
		adminGroup.GET("/revenue/report", adminHandler.RevenueReport)
		adminGroup.GET("/top-products", adminHandler.TopProducts)
		adminGroup.GET("/users/list", userHandler.GetUsers)
	}

	// Superadmin namespace
	superGroup := v1.Group("/superadmin", requireAuth, middleware.RequireRole(models.RoleSuperAdmin))
	{
		superGroup.GET("/users/list", userHandler.GetUsers)
		superGroup.GET("/roles/summary", superAdminHandler.RolesSummary)
		superGroup.PUT("/:id/promote-admin", userHandler.PromoteAdmin)
		superGroup.PUT("/:id/demote-admin", userHandler.DemoteAdmin)
		superGroup.GET("/permissions/list", superAdminHandler.PermissionsList)
		superGroup.GET("/audit-logs", superAdminHandler.AuditLogs)
		superGroup.GET("/system-health", superAdminHandler.SystemHealth)
		superGroup.POST("/reset-user-password/:id", userHandler.ResetPassword)
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Ordering service started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
