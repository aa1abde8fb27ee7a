// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/shoplane/ecommerce-backend/internal/config"
	"github.com/shoplane/ecommerce-backend/internal/handlers"
	"github.com/shoplane/ecommerce-backend/internal/middleware"
	"github.com/shoplane/ecommerce-backend/internal/services"
)

func SetupRouter(cfg *config.Config, db *gorm.DB) (*gin.Engine, error) {
	storage, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}

	categoryService := services.NewCategoryService(db)
	productService := services.NewProductService(db, categoryService, storage)
	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	productHandler := handlers.NewProductHandler(productService, cfg)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"X-Total-Count", "X-Page", "X-Per-Page", "X-Total-Pages"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "time": time.Now().UTC()})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware())

	auth := api.Group("/auth")
	auth.Use(middleware.AuthRateLimitMiddleware())
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/profile", middleware.AuthMiddleware(), authHandler.GetProfile)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", categoryHandler.GetCategories)
		categories.GET("/:slug", categoryHandler.GetCategoryBySlug)
	}

	products := api.Group("/products")
	{
		products.GET("", productHandler.GetProducts)
		products.GET("/:slug", productHandler.GetProductBySlug)
	}

	api.PATCH("/users/password", middleware.AuthMiddleware(), userHandler.UpdatePassword)

	// Write endpoints live under /admin so public slug lookups and
	// admin id lookups never share a route segment.
	admin := api.Group("/admin", middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		admin.POST("/categories", categoryHandler.CreateCategory)
		admin.PATCH("/categories/:slug", categoryHandler.UpdateCategory)
		admin.DELETE("/categories/:slug", categoryHandler.DeleteCategory)

		admin.POST("/products", middleware.UploadRateLimitMiddleware(), productHandler.CreateProduct)
		admin.PATCH("/products/:id/general-info", productHandler.UpdateGeneralInfo)
		admin.PATCH("/products/:id/main-image", middleware.UploadRateLimitMiddleware(), productHandler.ReplaceMainImage)
		admin.PATCH("/variants/:variantId/quantity", productHandler.UpdateQuantity)
		admin.DELETE("/products/:id", productHandler.DeleteProduct)

		admin.GET("/users", userHandler.ListUsers)
		admin.GET("/users/:id", userHandler.GetUser)
		admin.PATCH("/users/:id/ban", userHandler.SetBanned)
		admin.DELETE("/users/:id", userHandler.DeleteUser)
	}

	return r, nil
}
