package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/foodgram/backend/config"
	"github.com/foodgram/backend/internal/api"
	"github.com/foodgram/backend/internal/database"
	"github.com/foodgram/backend/internal/router"
	"github.com/foodgram/backend/internal/service"
)

// Server represents the HTTP server and its wired dependencies.
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
}

// New builds the full service graph and registers all routes.
func New(cfg *config.Config) (*Server, error) {
	db, err := database.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	if redisClient == nil {
		log.Println("Redis not configured, short-link cache disabled")
	}

	media, err := service.NewMediaStore(context.Background(), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize media storage: %w", err)
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	userService := service.NewUserService(db, media)
	recipeService := service.NewRecipeService(db, media)
	catalogService := service.NewCatalogService(db)
	shoppingService := service.NewShoppingListService(db)
	shortLinkService := service.NewShortLinkService(db, redisClient, cfg.ExternalURL)

	engine := router.SetupRouter(
		db,
		api.NewAuthHandler(authService),
		api.NewUserHandler(userService, authService, cfg.PageSize),
		api.NewRecipeHandler(recipeService, userService, shoppingService, shortLinkService, authService, cfg.PageSize),
		api.NewCatalogHandler(catalogService),
		api.NewShortLinkHandler(shortLinkService),
	)

	// Serve locally stored media alongside the API.
	if cfg.MediaBackend != "s3" {
		engine.Static("/media", cfg.MediaDir)
	}

	return &Server{
		cfg:    cfg,
		router: engine,
		db:     db,
	}, nil
}

// Start begins serving requests and blocks until the listener fails.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:    s.cfg.ServerHost + ":" + s.cfg.ServerPort,
		Handler: s.router,
	}

	log.Printf("Listening on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http != nil {
		return s.http.Shutdown(ctx)
	}
	return nil
}

// Router exposes the gin engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
