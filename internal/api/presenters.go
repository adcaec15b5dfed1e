package api

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

func toUserResponse(u *models.User, subscribed bool) types.UserResponse {
	return types.UserResponse{
		Email:        u.Email,
		ID:           u.ID,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: subscribed,
	}
}

func toTagResponse(t *models.Tag) types.TagResponse {
	return types.TagResponse{ID: t.ID, Name: t.Name, Color: t.Color, Slug: t.Slug}
}

func toIngredientResponse(i *models.Ingredient) types.IngredientResponse {
	return types.IngredientResponse{ID: i.ID, Name: i.Name, MeasurementUnit: i.MeasurementUnit}
}

// imageURL makes locally stored images absolute; S3 URLs already are
func imageURL(c *gin.Context, image string) string {
	if strings.HasPrefix(image, "/") {
		return absoluteURL(c, image)
	}
	return image
}

func toShortRecipe(c *gin.Context, r *models.Recipe) types.ShortRecipeResponse {
	return types.ShortRecipeResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       imageURL(c, r.Image),
		CookingTime: r.CookingTime,
	}
}

func toRecipeResponse(c *gin.Context, v *service.RecipeView) types.RecipeResponse {
	r := &v.Recipe

	ingredients := make([]types.RecipeIngredientResponse, len(r.Ingredients))
	for i, link := range r.Ingredients {
		ingredients[i] = types.RecipeIngredientResponse{
			ID:              link.Ingredient.ID,
			Name:            link.Ingredient.Name,
			MeasurementUnit: link.Ingredient.MeasurementUnit,
			Amount:          link.Amount,
		}
	}

	tags := make([]types.TagResponse, len(r.Tags))
	for i := range r.Tags {
		tags[i] = toTagResponse(&r.Tags[i].Tag)
	}

	return types.RecipeResponse{
		ID:               r.ID,
		Author:           toUserResponse(&r.Author, v.AuthorSubscribed),
		Ingredients:      ingredients,
		Tags:             tags,
		Image:            imageURL(c, r.Image),
		Name:             r.Name,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		IsFavorited:      v.IsFavorited,
		IsInShoppingCart: v.IsInShoppingCart,
	}
}

func toSubscriptionResponse(c *gin.Context, v *service.SubscriptionView) types.SubscriptionResponse {
	recipes := make([]types.ShortRecipeResponse, len(v.Recipes))
	for i := range v.Recipes {
		recipes[i] = toShortRecipe(c, &v.Recipes[i])
	}
	return types.SubscriptionResponse{
		UserResponse: toUserResponse(&v.User, v.IsSubscribed),
		RecipesCount: v.RecipesCount,
		Recipes:      recipes,
	}
}
