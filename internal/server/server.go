package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Deps are the long-lived resources a Server is built from. Redis is
// optional; without it tokens cannot be revoked and recipe creation is
// not rate limited.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Images service.ImageStore
	Log    logrus.FieldLogger
}

// Server represents the HTTP server
type Server struct {
	cfg    *config.Config
	router *gin.Engine
	http   *http.Server
	log    logrus.FieldLogger
}

// New wires services, middleware and routes
func New(cfg *config.Config, deps Deps) *Server {
	log := logging.OrDefault(deps.Log)

	var revoker service.TokenRevoker
	var limiter *middleware.RateLimiter
	if deps.Redis != nil {
		revoker = service.NewRedisTokenRevoker(deps.Redis)
		if cfg.RecipeCreateLimit > 0 {
			limiter = middleware.NewRecipeCreationRateLimiter(deps.Redis, cfg.RecipeCreateLimit, log)
		}
	}

	auth := service.NewAuthService(deps.DB, cfg.JWTSecret, cfg.TokenTTL, revoker, log)
	services := api.Services{
		Auth:          auth,
		Users:         service.NewUserService(deps.DB, log),
		Recipes:       service.NewRecipeService(deps.DB, deps.Images, log),
		Marks:         service.NewMarkService(deps.DB, log),
		ShoppingList:  service.NewShoppingListService(deps.DB),
		Subscriptions: service.NewSubscriptionService(deps.DB, log),
		Reference:     service.NewReferenceService(deps.DB),
	}

	router := gin.New()
	router.Use(
		middleware.Recovery(log),
		middleware.RequestLogger(log),
		middleware.CORS(cfg.CORSOrigins),
	)
	router.NoRoute(middleware.NotFound())

	if _, local := deps.Images.(*service.LocalImageStore); local && strings.HasPrefix(cfg.MediaURL, "/") {
		router.Static(cfg.MediaURL, cfg.MediaRoot)
	}

	api.RegisterRoutes(router, services, api.Options{
		HealthCheck:   healthCheck(deps.DB, deps.Redis),
		RecipeLimiter: limiter,
		Log:           log,
	})

	return &Server{cfg: cfg, router: router, log: log}
}

func healthCheck(db *gorm.DB, rdb *redis.Client) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		if err := database.HealthCheck(ctx, db); err != nil {
			return err
		}
		if rdb != nil {
			return rdb.Ping(ctx).Err()
		}
		return nil
	}
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on the configured address and blocks until the server
// stops. It returns nil after a graceful Shutdown.
func (s *Server) Start() error {
	s.http = &http.Server{
		Addr:              net.JoinHostPort(s.cfg.ServerHost, s.cfg.ServerPort),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.log.WithField("addr", s.http.Addr).Info("starting HTTP server")
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}
