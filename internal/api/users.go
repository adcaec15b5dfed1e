package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// UserHandler serves accounts and subscriptions
type UserHandler struct {
	userService         service.IUserService
	subscriptionService service.ISubscriptionService
	auth                middleware.TokenValidator
	log                 logrus.FieldLogger
}

func NewUserHandler(users service.IUserService, subscriptions service.ISubscriptionService, auth middleware.TokenValidator, log logrus.FieldLogger) *UserHandler {
	return &UserHandler{
		userService:         users,
		subscriptionService: subscriptions,
		auth:                auth,
		log:                 log,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.auth)
	optionalAuth := middleware.OptionalAuthMiddleware(h.auth)

	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", optionalAuth, h.ListUsers)
		users.GET("/me", requireAuth, h.Me)
		users.POST("/set_password", requireAuth, h.SetPassword)
		users.GET("/subscriptions", requireAuth, h.ListSubscriptions)
		users.GET("/:id", optionalAuth, h.GetUser)
		users.POST("/:id/subscribe", requireAuth, h.Subscribe)
		users.DELETE("/:id/subscribe", requireAuth, h.Unsubscribe)
	}
}

func parseUserID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		notFound(c)
		return uuid.Nil, false
	}
	return id, true
}

// parseRecipesLimit returns nil when the parameter is absent
func parseRecipesLimit(c *gin.Context) (*int, error) {
	raw, ok := c.GetQuery("recipes_limit")
	if !ok {
		return nil, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return nil, service.ErrInvalidRecipesLimit
	}
	return &limit, nil
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Register(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toUserResponse(user, false))
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	page := parsePage(c)
	views, total, err := h.userService.ListUsers(c.Request.Context(), middleware.UserID(c), page.PageRequest)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	results := make([]types.UserResponse, len(views))
	for i := range views {
		results[i] = toUserResponse(&views[i].User, views[i].IsSubscribed)
	}
	c.JSON(http.StatusOK, newPage(c, page, total, results))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID := middleware.UserID(c)
	view, err := h.userService.GetUser(c.Request.Context(), userID, userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(&view.User, false))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	view, err := h.userService.GetUser(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(&view.User, view.IsSubscribed))
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	var req types.SetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.SetPassword(c.Request.Context(), middleware.UserID(c), req.CurrentPassword, req.NewPassword); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	limit, err := parseRecipesLimit(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	page := parsePage(c)
	views, total, err := h.subscriptionService.ListSubscriptions(c.Request.Context(), middleware.UserID(c), limit, page.PageRequest)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	results := make([]types.SubscriptionResponse, len(views))
	for i := range views {
		results[i] = toSubscriptionResponse(c, &views[i])
	}
	c.JSON(http.StatusOK, newPage(c, page, total, results))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}
	limit, err := parseRecipesLimit(c)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	view, err := h.subscriptionService.Subscribe(c.Request.Context(), middleware.UserID(c), id, limit)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toSubscriptionResponse(c, view))
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	id, ok := parseUserID(c)
	if !ok {
		return
	}

	if err := h.subscriptionService.Unsubscribe(c.Request.Context(), middleware.UserID(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
