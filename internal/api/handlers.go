package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Services bundles everything the HTTP layer calls into
type Services struct {
	Auth          service.IAuthService
	Users         service.IUserService
	Recipes       service.IRecipeService
	Marks         service.IMarkService
	ShoppingList  service.IShoppingListService
	Subscriptions service.ISubscriptionService
	Reference     service.IReferenceService
}

// Options carries optional collaborators of RegisterRoutes
type Options struct {
	// HealthCheck reports whether backing stores are reachable
	HealthCheck func(ctx context.Context) error
	// RecipeLimiter throttles recipe creation when set
	RecipeLimiter *middleware.RateLimiter
	Log           logrus.FieldLogger
}

// HealthCheck returns the health status of the API
func HealthCheck(check func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := check(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

// RegisterRoutes registers all API routes under /api
func RegisterRoutes(router *gin.Engine, svc Services, opts Options) {
	RegisterValidators()
	log := logging.OrDefault(opts.Log)

	router.GET("/health", HealthCheck(opts.HealthCheck))

	api := router.Group("/api")
	NewAuthHandler(svc.Auth, log).RegisterRoutes(api)
	NewUserHandler(svc.Users, svc.Subscriptions, svc.Auth, log).RegisterRoutes(api)
	NewReferenceHandler(svc.Reference, log).RegisterRoutes(api)
	NewRecipeHandler(svc.Recipes, svc.Marks, svc.ShoppingList, svc.Auth, log).
		WithCreateLimiter(opts.RecipeLimiter).
		RegisterRoutes(api)
}
