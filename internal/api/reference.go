package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ReferenceHandler serves the ingredient and tag catalogues
type ReferenceHandler struct {
	referenceService service.IReferenceService
	log              logrus.FieldLogger
}

func NewReferenceHandler(ref service.IReferenceService, log logrus.FieldLogger) *ReferenceHandler {
	return &ReferenceHandler{referenceService: ref, log: log}
}

func (h *ReferenceHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/ingredients", h.ListIngredients)
	router.GET("/ingredients/:id", h.GetIngredient)
	router.GET("/tags", h.ListTags)
	router.GET("/tags/:id", h.GetTag)
}

func parseCatalogID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		notFound(c)
		return 0, false
	}
	return uint(id), true
}

func (h *ReferenceHandler) ListIngredients(c *gin.Context) {
	ingredients, err := h.referenceService.ListIngredients(c.Request.Context(), c.Query("name"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	results := make([]types.IngredientResponse, len(ingredients))
	for i := range ingredients {
		results[i] = toIngredientResponse(&ingredients[i])
	}
	c.JSON(http.StatusOK, results)
}

func (h *ReferenceHandler) GetIngredient(c *gin.Context) {
	id, ok := parseCatalogID(c)
	if !ok {
		return
	}
	ingredient, err := h.referenceService.GetIngredient(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toIngredientResponse(ingredient))
}

func (h *ReferenceHandler) ListTags(c *gin.Context) {
	tags, err := h.referenceService.ListTags(c.Request.Context())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	results := make([]types.TagResponse, len(tags))
	for i := range tags {
		results[i] = toTagResponse(&tags[i])
	}
	c.JSON(http.StatusOK, results)
}

func (h *ReferenceHandler) GetTag(c *gin.Context) {
	id, ok := parseCatalogID(c)
	if !ok {
		return
	}
	tag, err := h.referenceService.GetTag(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, toTagResponse(tag))
}
