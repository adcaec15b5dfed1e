package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

type RecipeHandler struct {
	recipeService   service.IRecipeService
	markService     service.IMarkService
	shoppingService service.IShoppingListService
	auth            middleware.TokenValidator
	createLimiter   *middleware.RateLimiter
	log             logrus.FieldLogger
}

func NewRecipeHandler(
	recipes service.IRecipeService,
	marks service.IMarkService,
	shopping service.IShoppingListService,
	auth middleware.TokenValidator,
	log logrus.FieldLogger,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:   recipes,
		markService:     marks,
		shoppingService: shopping,
		auth:            auth,
		log:             log,
	}
}

// WithCreateLimiter enables per-user rate limiting of recipe creation
func (h *RecipeHandler) WithCreateLimiter(limiter *middleware.RateLimiter) *RecipeHandler {
	h.createLimiter = limiter
	return h
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	requireAuth := middleware.AuthMiddleware(h.auth)
	optionalAuth := middleware.OptionalAuthMiddleware(h.auth)

	create := []gin.HandlerFunc{requireAuth}
	if h.createLimiter != nil {
		create = append(create, h.createLimiter.Middleware())
	}
	create = append(create, h.CreateRecipe)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optionalAuth, h.ListRecipes)
		recipes.POST("", create...)
		recipes.GET("/download_shopping_cart", requireAuth, h.DownloadShoppingCart)
		recipes.GET("/:id", optionalAuth, h.GetRecipe)
		recipes.PATCH("/:id", requireAuth, h.UpdateRecipe)
		recipes.DELETE("/:id", requireAuth, h.DeleteRecipe)
		recipes.POST("/:id/favorite", requireAuth, h.mark(service.MarkFavorite))
		recipes.DELETE("/:id/favorite", requireAuth, h.unmark(service.MarkFavorite))
		recipes.POST("/:id/shopping_cart", requireAuth, h.mark(service.MarkShoppingCart))
		recipes.DELETE("/:id/shopping_cart", requireAuth, h.unmark(service.MarkShoppingCart))
	}
}

func parseRecipeID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}

func actor(c *gin.Context) service.Actor {
	claims, ok := middleware.Claims(c)
	if !ok {
		return service.Actor{}
	}
	return service.Actor{ID: claims.UserID}
}

func isTruthy(v string) bool {
	return v == "1" || v == "true" || v == "True"
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	filter := service.RecipeFilter{
		Tags:           c.QueryArray("tags"),
		Favorited:      isTruthy(c.Query("is_favorited")),
		InShoppingCart: isTruthy(c.Query("is_in_shopping_cart")),
	}
	if raw := c.Query("author"); raw != "" {
		authorID, err := uuid.Parse(raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"author": []string{"select a valid user"}})
			return
		}
		filter.AuthorID = &authorID
	}

	page := parsePage(c)
	views, total, err := h.recipeService.ListRecipes(c.Request.Context(), middleware.UserID(c), filter, page.PageRequest)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	results := make([]types.RecipeResponse, len(views))
	for i := range views {
		results[i] = toRecipeResponse(c, &views[i])
	}
	c.JSON(http.StatusOK, newPage(c, page, total, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseRecipeID(c)
	if !ok {
		return
	}

	view, err := h.recipeService.GetRecipe(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toRecipeResponse(c, view))
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	var req types.CreateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.recipeService.CreateRecipe(c.Request.Context(), middleware.UserID(c), &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, toRecipeResponse(c, view))
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	id, ok := parseRecipeID(c)
	if !ok {
		return
	}
	var req types.UpdateRecipeRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.recipeService.UpdateRecipe(c.Request.Context(), actor(c), id, &req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toRecipeResponse(c, view))
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	id, ok := parseRecipeID(c)
	if !ok {
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), actor(c), id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) mark(kind service.MarkKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseRecipeID(c)
		if !ok {
			return
		}

		recipe, err := h.markService.AddMark(c.Request.Context(), kind, middleware.UserID(c), id)
		if err != nil {
			respondError(c, h.log, err)
			return
		}
		c.JSON(http.StatusCreated, toShortRecipe(c, recipe))
	}
}

func (h *RecipeHandler) unmark(kind service.MarkKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseRecipeID(c)
		if !ok {
			return
		}

		if err := h.markService.RemoveMark(c.Request.Context(), kind, middleware.UserID(c), id); err != nil {
			respondError(c, h.log, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	items, err := h.shoppingService.ShoppingList(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	if err := h.shoppingService.WriteCSV(&buf, items); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename="+service.ShoppingListFilename)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
