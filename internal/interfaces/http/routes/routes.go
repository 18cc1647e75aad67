// internal/interfaces/http/routes/routes.go
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/uniform-sales-backend/internal/config"
	"github.com/your-org/uniform-sales-backend/internal/interfaces/http/handlers"
	"gorm.io/gorm"
)

// SetupRoutes wires all API routes
func SetupRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	SetupCatalogRoutes(rg, db, cfg)
	SetupCompositionRoutes(rg, db, redisClient, cfg, logger)
}

// SetupCatalogRoutes sets up school and product catalog routes
func SetupCatalogRoutes(rg *gin.RouterGroup, db *gorm.DB, cfg *config.Config) {
	catalogHandler := handlers.NewCatalogHandler(db, cfg)

	schools := rg.Group("/schools")
	{
		schools.GET("", catalogHandler.ListSchools)
		schools.GET("/:id/products", catalogHandler.ListSchoolProducts)
	}

	products := rg.Group("/products")
	{
		products.GET("/global", catalogHandler.ListGlobalProducts)
	}
}

// SetupCompositionRoutes sets up sale composition routes
func SetupCompositionRoutes(rg *gin.RouterGroup, db *gorm.DB, redisClient *redis.Client, cfg *config.Config, logger *logrus.Logger) {
	compositionHandler := handlers.NewCompositionHandler(db, redisClient, cfg, logger)

	compositions := rg.Group("/compositions")
	{
		compositions.POST("", compositionHandler.Open)
		compositions.GET("/:id", compositionHandler.Get)
		compositions.PUT("/:id/school", compositionHandler.SelectSchool)
		compositions.PUT("/:id/client", compositionHandler.SelectClient)
		compositions.POST("/:id/items", compositionHandler.AddItem)
		compositions.DELETE("/:id/items/:index", compositionHandler.RemoveItem)
		compositions.GET("/:id/summary", compositionHandler.Summary)
		compositions.POST("/:id/submit", compositionHandler.Submit)
		compositions.GET("/:id/receipt", compositionHandler.Receipt)
		compositions.DELETE("/:id", compositionHandler.Dismiss)
	}
}
