package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/router"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Server represents the HTTP server
type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *gorm.DB
}

// Deps are the process-level collaborators the server is built from
type Deps struct {
	DB         *gorm.DB
	Redis      *redis.Client
	ImageStore service.ImageStore
	Registry   *prometheus.Registry
}

// New wires the services and routes for cfg
func New(cfg *config.Config, deps Deps) *Server {
	db := deps.DB

	subscriptions := service.NewSubscriptionService(db)
	ledger := service.NewLedgerService(db)
	images := service.NewImageService(deps.ImageStore)

	svc := router.Services{
		Auth:          service.NewAuthService(db, cfg.JWTSecret),
		Recipes:       service.NewRecipeService(db, images, ledger, subscriptions),
		Ledger:        ledger,
		ShoppingList:  service.NewShoppingListService(db),
		Subscriptions: subscriptions,
		Catalog:       service.NewCatalogService(db),
		Users:         service.NewUserService(db, subscriptions),
	}

	opts := router.Options{
		CORSOrigins: cfg.CORSOrigins,
		PageSize:    cfg.PageSize,
		Redis:       deps.Redis,
		Registry:    deps.Registry,
		Logger:      log.StandardLogger(),
	}
	if !cfg.UsesS3() {
		opts.MediaURL = cfg.MediaURL
		opts.MediaDir = cfg.MediaDir
	}

	engine := router.SetupRouter(svc, opts)

	return &Server{
		router: engine,
		db:     db,
		http: &http.Server{
			Addr:              net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler exposes the route table, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	log.Infof("Starting server on %s", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Shutting down server")
	return s.http.Shutdown(ctx)
}
