package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tienda-backend/internal/config"
	"tienda-backend/internal/database"
	"tienda-backend/internal/handler"
	"tienda-backend/internal/middleware"
	"tienda-backend/internal/models"
	"tienda-backend/internal/repository"
	"tienda-backend/internal/service"
	"tienda-backend/internal/token"
	"tienda-backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log.Println("Configuration loaded successfully")

	// 2. Build the access token signer. The signing secret is fixed here
	// and injected everywhere it is needed; there is no mutable global.
	signer := token.NewSigner(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// 3. Initialize database connection, schema and reference data
	db := database.Connect(cfg)
	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.SeedRoles(db); err != nil {
		log.Fatalf("Failed to seed roles: %v", err)
	}

	// 4. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	roleRepo := repository.NewRoleRepo(db)
	refreshTokenRepo := repository.NewRefreshTokenRepo(db)
	productRepo := repository.NewProductRepo(db)
	auditRepo := repository.NewAuditRepo(db)

	// 5. Initialize services
	registry := service.NewRefreshTokenRegistry(refreshTokenRepo, cfg.JWT.RefreshTokenExpiry)
	authService := service.NewAuthService(userRepo, roleRepo, registry, signer, auditRepo)
	productService := service.NewProductService(productRepo, auditRepo)
	cleanupService := service.NewCleanupService(registry, cfg.JWT.CleanupInterval)

	// 6. Start background cleanup worker in goroutine
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go cleanupService.Start(ctx)

	// 7. Setup Gin mode
	gin.SetMode(cfg.Server.GinMode)

	// 8. Setup Gin router
	r := gin.Default()

	// Apply CORS middleware
	r.Use(middleware.CORS(cfg))

	// 9. Register handlers
	authHandler := handler.NewAuthHandler(authService, cfg)
	productHandler := handler.NewProductHandler(productService)

	// 10. Define routes
	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"service": "tienda-backend",
		})
	})

	// Auth routes
	auth := r.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)

		// Role assignment (admin only)
		auth.POST("/roles",
			middleware.RequireAuth(signer),
			middleware.RequireRoles(models.RoleAdmin),
			authHandler.AssignRole)
	}

	// Product catalog routes (admin only). These consume only the validated
	// claims from the middleware; they never touch the refresh token registry.
	products := r.Group("/products")
	products.Use(middleware.RequireAuth(signer), middleware.RequireRoles(models.RoleAdmin))
	{
		products.GET("", productHandler.List)
		products.GET("/:id", productHandler.Get)
		products.POST("", productHandler.Create)
		products.PUT("/:id", productHandler.Update)
		products.DELETE("/:id", productHandler.Delete)
	}

	// 11. Setup graceful shutdown
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := r.Run(":" + cfg.Server.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Cancel background worker context
	cancel()
	log.Println("Server exited")
}
