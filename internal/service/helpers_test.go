package service_test

import (
	"testing"

	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/types"
)

// 1x1 transparent PNG
const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

const storedImageURL = "/media/recipes/images/stored.png"

func newRecipeService(t *testing.T, db *gorm.DB) (*service.RecipeService, *mocks.MockImageStore) {
	t.Helper()
	images := new(mocks.MockImageStore)
	images.On("Save", mock.Anything, mock.Anything).Return(storedImageURL, nil).Maybe()
	images.On("Delete", mock.Anything, mock.Anything).Return(nil).Maybe()
	return service.NewRecipeService(db, images, logging.Discard()), images
}

func createRequest(name string, ingredients []types.IngredientAmount, tags ...uint) *types.CreateRecipeRequest {
	return &types.CreateRecipeRequest{
		Ingredients: ingredients,
		Tags:        tags,
		Image:       pngDataURI,
		Name:        name,
		Text:        "Boil water, add the rest.",
		CookingTime: 15,
	}
}
