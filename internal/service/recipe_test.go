package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestCreateRecipe(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDatabase(t)
	svc, images := newRecipeService(t, db)

	author := testhelpers.CreateUser(t, db)
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	water := testhelpers.CreateIngredient(t, db, "water", "ml")
	dinner := testhelpers.CreateTag(t, db, "dinner")

	t.Run("stores recipe with associations", func(t *testing.T) {
		view, err := svc.CreateRecipe(ctx, author.ID, createRequest("Soup",
			[]types.IngredientAmount{{ID: salt.ID, Amount: 5}, {ID: water.ID, Amount: 500}}, dinner.ID))
		require.NoError(t, err)

		assert.Equal(t, "Soup", view.Recipe.Name)
		assert.Equal(t, storedImageURL, view.Recipe.Image)
		assert.Equal(t, author.ID, view.Recipe.Author.ID)
		require.Len(t, view.Recipe.Ingredients, 2)
		assert.Equal(t, "salt", view.Recipe.Ingredients[0].Ingredient.Name)
		assert.Equal(t, 5, view.Recipe.Ingredients[0].Amount)
		require.Len(t, view.Recipe.Tags, 1)
		assert.Equal(t, "dinner", view.Recipe.Tags[0].Tag.Slug)
		assert.False(t, view.IsFavorited)
		assert.False(t, view.IsInShoppingCart)
		images.AssertCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("duplicate ingredient creates nothing", func(t *testing.T) {
		var before int64
		db.Model(&models.Recipe{}).Count(&before)

		_, err := svc.CreateRecipe(ctx, author.ID, createRequest("Stew",
			[]types.IngredientAmount{{ID: salt.ID, Amount: 1}, {ID: salt.ID, Amount: 2}}, dinner.ID))
		assert.ErrorIs(t, err, service.ErrDuplicatedIngredient)

		var after int64
		db.Model(&models.Recipe{}).Count(&after)
		assert.Equal(t, before, after)
	})

	t.Run("unknown tag rolls back", func(t *testing.T) {
		_, err := svc.CreateRecipe(ctx, author.ID, createRequest("Stew",
			[]types.IngredientAmount{{ID: salt.ID, Amount: 1}}, 777))
		assert.ErrorIs(t, err, service.ErrInvalidTag)

		var count int64
		db.Model(&models.Recipe{}).Where("name = ?", "Stew").Count(&count)
		assert.Zero(t, count)
	})

	t.Run("duplicate name is a field error", func(t *testing.T) {
		_, err := svc.CreateRecipe(ctx, author.ID, createRequest("Soup",
			[]types.IngredientAmount{{ID: salt.ID, Amount: 1}}, dinner.ID))
		require.ErrorIs(t, err, service.ErrRecipeNameTaken)

		svcErr, ok := service.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "name", svcErr.Field)
		images.AssertCalled(t, "Delete", mock.Anything, storedImageURL)
	})

	t.Run("image must be a data uri", func(t *testing.T) {
		req := createRequest("Salad", []types.IngredientAmount{{ID: salt.ID, Amount: 1}}, dinner.ID)
		req.Image = "https://example.com/salad.png"
		_, err := svc.CreateRecipe(ctx, author.ID, req)
		assert.ErrorIs(t, err, service.ErrInvalidImage)
	})

	t.Run("non positive cooking time", func(t *testing.T) {
		req := createRequest("Salad", []types.IngredientAmount{{ID: salt.ID, Amount: 1}}, dinner.ID)
		req.CookingTime = 0
		_, err := svc.CreateRecipe(ctx, author.ID, req)
		assert.Equal(t, service.KindValidation, service.KindOf(err))
	})

	t.Run("cooking time above cap", func(t *testing.T) {
		req := createRequest("Slow roast", []types.IngredientAmount{{ID: salt.ID, Amount: 1}}, dinner.ID)
		req.CookingTime = 5_000_000_000
		_, err := svc.CreateRecipe(ctx, author.ID, req)

		svcErr, ok := service.AsError(err)
		require.True(t, ok)
		assert.Equal(t, "cooking_time", svcErr.Field)
	})

	t.Run("huge amounts never reach the database", func(t *testing.T) {
		req := createRequest("Salt mine", []types.IngredientAmount{{ID: salt.ID, Amount: 1 << 62}}, dinner.ID)
		_, err := svc.CreateRecipe(ctx, author.ID, req)
		assert.ErrorIs(t, err, service.ErrInvalidAmount)

		var count int64
		require.NoError(t, db.Model(&models.Recipe{}).Where("name = ?", "Salt mine").Count(&count).Error)
		assert.Zero(t, count)
	})
}

func TestCreateRecipeImageStoreFailure(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	images := new(mocks.MockImageStore)
	images.On("Save", mock.Anything, mock.Anything).Return("", errors.New("bucket unavailable"))
	svc := service.NewRecipeService(db, images, logging.Discard())

	author := testhelpers.CreateUser(t, db)
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	tag := testhelpers.CreateTag(t, db, "snack")

	_, err := svc.CreateRecipe(context.Background(), author.ID,
		createRequest("Chips", []types.IngredientAmount{{ID: salt.ID, Amount: 1}}, tag.ID))
	assert.ErrorContains(t, err, "bucket unavailable")

	var count int64
	db.Model(&models.Recipe{}).Count(&count)
	assert.Zero(t, count)
	images.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestUpdateRecipe(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDatabase(t)
	svc, images := newRecipeService(t, db)

	author := testhelpers.CreateUser(t, db)
	stranger := testhelpers.CreateUser(t, db)
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	pepper := testhelpers.CreateIngredient(t, db, "pepper", "g")
	lunch := testhelpers.CreateTag(t, db, "lunch")
	dinner := testhelpers.CreateTag(t, db, "dinner")
	recipe := testhelpers.CreateRecipe(t, db, author, "Omelette", map[uint]int{salt.ID: 1}, lunch)

	t.Run("replaces sets and keeps omitted fields", func(t *testing.T) {
		newName := "Spicy omelette"
		view, err := svc.UpdateRecipe(ctx, service.Actor{ID: author.ID}, recipe.ID, &types.UpdateRecipeRequest{
			Ingredients: []types.IngredientAmount{{ID: pepper.ID, Amount: 2}},
			Tags:        []uint{dinner.ID, lunch.ID},
			Name:        &newName,
		})
		require.NoError(t, err)

		assert.Equal(t, newName, view.Recipe.Name)
		assert.Equal(t, recipe.Text, view.Recipe.Text)
		assert.Equal(t, recipe.Image, view.Recipe.Image)
		require.Len(t, view.Recipe.Ingredients, 1)
		assert.Equal(t, pepper.ID, view.Recipe.Ingredients[0].IngredientID)
		assert.Len(t, view.Recipe.Tags, 2)
	})

	t.Run("missing ingredients rejected", func(t *testing.T) {
		_, err := svc.UpdateRecipe(ctx, service.Actor{ID: author.ID}, recipe.ID, &types.UpdateRecipeRequest{
			Tags: []uint{lunch.ID},
		})
		assert.ErrorIs(t, err, service.ErrMissingIngredients)
	})

	t.Run("new image replaces the old one", func(t *testing.T) {
		image := pngDataURI
		view, err := svc.UpdateRecipe(ctx, service.Actor{ID: author.ID}, recipe.ID, &types.UpdateRecipeRequest{
			Ingredients: []types.IngredientAmount{{ID: pepper.ID, Amount: 2}},
			Tags:        []uint{dinner.ID},
			Image:       &image,
		})
		require.NoError(t, err)
		assert.Equal(t, storedImageURL, view.Recipe.Image)
		images.AssertCalled(t, "Delete", mock.Anything, recipe.Image)
	})

	t.Run("only the author may edit", func(t *testing.T) {
		_, err := svc.UpdateRecipe(ctx, service.Actor{ID: stranger.ID}, recipe.ID, &types.UpdateRecipeRequest{
			Ingredients: []types.IngredientAmount{{ID: salt.ID, Amount: 1}},
			Tags:        []uint{lunch.ID},
		})
		assert.ErrorIs(t, err, service.ErrNotRecipeAuthor)
		assert.Equal(t, service.KindForbidden, service.KindOf(err))
	})

	t.Run("staff may edit", func(t *testing.T) {
		admin := testhelpers.CreateUser(t, db)
		require.NoError(t, db.Model(admin).Update("is_staff", true).Error)

		_, err := svc.UpdateRecipe(ctx, service.Actor{ID: admin.ID}, recipe.ID, &types.UpdateRecipeRequest{
			Ingredients: []types.IngredientAmount{{ID: salt.ID, Amount: 3}},
			Tags:        []uint{lunch.ID},
		})
		assert.NoError(t, err)
	})

	t.Run("revoked staff is refused", func(t *testing.T) {
		former := testhelpers.CreateUser(t, db)
		require.NoError(t, db.Model(former).Update("is_staff", true).Error)
		require.NoError(t, db.Model(former).Update("is_staff", false).Error)

		_, err := svc.UpdateRecipe(ctx, service.Actor{ID: former.ID}, recipe.ID, &types.UpdateRecipeRequest{
			Ingredients: []types.IngredientAmount{{ID: salt.ID, Amount: 4}},
			Tags:        []uint{lunch.ID},
		})
		assert.ErrorIs(t, err, service.ErrNotRecipeAuthor)
	})

	t.Run("missing recipe", func(t *testing.T) {
		_, err := svc.UpdateRecipe(ctx, service.Actor{ID: author.ID}, 4040, &types.UpdateRecipeRequest{
			Ingredients: []types.IngredientAmount{{ID: salt.ID, Amount: 1}},
			Tags:        []uint{lunch.ID},
		})
		assert.ErrorIs(t, err, service.ErrRecipeNotFound)
	})
}

func TestDeleteRecipe(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDatabase(t)
	svc, images := newRecipeService(t, db)

	author := testhelpers.CreateUser(t, db)
	fan := testhelpers.CreateUser(t, db)
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	tag := testhelpers.CreateTag(t, db, "soup")
	recipe := testhelpers.CreateRecipe(t, db, author, "Borscht", map[uint]int{salt.ID: 2}, tag)
	require.NoError(t, db.Create(&models.Favorite{UserID: fan.ID, RecipeID: recipe.ID}).Error)
	require.NoError(t, db.Create(&models.ShoppingCart{UserID: fan.ID, RecipeID: recipe.ID}).Error)

	err := svc.DeleteRecipe(ctx, service.Actor{ID: fan.ID}, recipe.ID)
	assert.ErrorIs(t, err, service.ErrNotRecipeAuthor)

	require.NoError(t, svc.DeleteRecipe(ctx, service.Actor{ID: author.ID}, recipe.ID))
	images.AssertCalled(t, "Delete", mock.Anything, recipe.Image)

	for _, model := range []interface{}{
		&models.Recipe{},
		&models.IngredientRecipe{},
		&models.TagRecipe{},
		&models.Favorite{},
		&models.ShoppingCart{},
	} {
		var count int64
		require.NoError(t, db.Model(model).Count(&count).Error)
		assert.Zero(t, count, "%T rows left behind", model)
	}

	err = svc.DeleteRecipe(ctx, service.Actor{ID: author.ID}, recipe.ID)
	assert.ErrorIs(t, err, service.ErrRecipeNotFound)
}

func TestListRecipes(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDatabase(t)
	svc, _ := newRecipeService(t, db)

	alice := testhelpers.CreateUser(t, db)
	bob := testhelpers.CreateUser(t, db)
	salt := testhelpers.CreateIngredient(t, db, "salt", "g")
	breakfast := testhelpers.CreateTag(t, db, "breakfast")
	dinner := testhelpers.CreateTag(t, db, "dinner")

	pancakes := testhelpers.CreateRecipe(t, db, alice, "Pancakes", map[uint]int{salt.ID: 1}, breakfast)
	steak := testhelpers.CreateRecipe(t, db, alice, "Steak", map[uint]int{salt.ID: 2}, dinner)
	toast := testhelpers.CreateRecipe(t, db, bob, "Toast", map[uint]int{salt.ID: 1}, breakfast, dinner)

	require.NoError(t, db.Create(&models.Favorite{UserID: bob.ID, RecipeID: steak.ID}).Error)
	require.NoError(t, db.Create(&models.ShoppingCart{UserID: bob.ID, RecipeID: pancakes.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{UserID: bob.ID, FollowingID: alice.ID}).Error)

	page := service.PageRequest{Limit: 10}

	t.Run("all recipes newest first", func(t *testing.T) {
		views, total, err := svc.ListRecipes(ctx, uuid.Nil, service.RecipeFilter{}, page)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, views, 3)
		assert.Equal(t, toast.ID, views[0].Recipe.ID)
		assert.Equal(t, pancakes.ID, views[2].Recipe.ID)
	})

	t.Run("by author", func(t *testing.T) {
		views, total, err := svc.ListRecipes(ctx, uuid.Nil, service.RecipeFilter{AuthorID: &bob.ID}, page)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, toast.ID, views[0].Recipe.ID)
	})

	t.Run("by any of several tags", func(t *testing.T) {
		_, total, err := svc.ListRecipes(ctx, uuid.Nil, service.RecipeFilter{Tags: []string{"breakfast", "dinner"}}, page)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)

		views, total, err := svc.ListRecipes(ctx, uuid.Nil, service.RecipeFilter{Tags: []string{"breakfast"}}, page)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
		assert.Len(t, views, 2)
	})

	t.Run("favorited and cart flags for viewer", func(t *testing.T) {
		views, total, err := svc.ListRecipes(ctx, bob.ID, service.RecipeFilter{Favorited: true}, page)
		require.NoError(t, err)
		assert.EqualValues(t, 1, total)
		assert.Equal(t, steak.ID, views[0].Recipe.ID)
		assert.True(t, views[0].IsFavorited)
		assert.False(t, views[0].IsInShoppingCart)
		assert.True(t, views[0].AuthorSubscribed)

		views, _, err = svc.ListRecipes(ctx, bob.ID, service.RecipeFilter{InShoppingCart: true}, page)
		require.NoError(t, err)
		require.Len(t, views, 1)
		assert.True(t, views[0].IsInShoppingCart)
	})

	t.Run("favorited filter ignored for anonymous viewer", func(t *testing.T) {
		_, total, err := svc.ListRecipes(ctx, uuid.Nil, service.RecipeFilter{Favorited: true}, page)
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
	})

	t.Run("pagination window", func(t *testing.T) {
		views, total, err := svc.ListRecipes(ctx, uuid.Nil, service.RecipeFilter{}, service.PageRequest{Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.EqualValues(t, 3, total)
		require.Len(t, views, 1)
		assert.Equal(t, pancakes.ID, views[0].Recipe.ID)
	})
}
