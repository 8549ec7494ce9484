package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/middleware"
)

// SetupRouter configures the application routes
func SetupRouter(
	db *gorm.DB,
	authHandler *api.AuthHandler,
	userHandler *api.UserHandler,
	recipeHandler *api.RecipeHandler,
	catalogHandler *api.CatalogHandler,
	shortLinkHandler *api.ShortLinkHandler,
) *gin.Engine {
	router := gin.Default()

	// CORS middleware
	router.Use(middleware.CORS())

	router.GET("/health", func(c *gin.Context) {
		if err := database.HealthCheck(c.Request.Context(), db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Short-link redirects live outside the /api prefix
	shortLinkHandler.RegisterRoutes(router)

	apiGroup := router.Group("/api")
	{
		authHandler.RegisterRoutes(apiGroup)
		userHandler.RegisterRoutes(apiGroup)
		recipeHandler.RegisterRoutes(apiGroup)
		catalogHandler.RegisterRoutes(apiGroup)
	}

	return router
}
