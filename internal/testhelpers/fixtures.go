package testhelpers

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

// TestPassword is the plain-text password of every user created by CreateUser
const TestPassword = "testpassword123"

// CreateUser inserts a user with a unique email and username
func CreateUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	id := uuid.New()
	user := &models.User{
		ID:           id,
		Email:        fmt.Sprintf("user+%s@example.com", id.String()[:8]),
		Username:     "user_" + id.String()[:8],
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func CreateIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()

	ing := &models.Ingredient{Name: name, MeasurementUnit: unit}
	if err := db.Create(ing).Error; err != nil {
		t.Fatalf("failed to create ingredient %s: %v", name, err)
	}
	return ing
}

func CreateTag(t *testing.T, db *gorm.DB, slug string) *models.Tag {
	t.Helper()

	var count int64
	db.Model(&models.Tag{}).Count(&count)

	tag := &models.Tag{
		Name:  "Tag " + slug,
		Color: fmt.Sprintf("#%06X", 0x100000+count),
		Slug:  slug,
	}
	if err := db.Create(tag).Error; err != nil {
		t.Fatalf("failed to create tag %s: %v", slug, err)
	}
	return tag
}

// CreateRecipe inserts a recipe and its associations directly, bypassing
// service validation. amounts maps ingredient id to amount.
func CreateRecipe(t *testing.T, db *gorm.DB, author *models.User, name string, amounts map[uint]int, tags ...*models.Tag) *models.Recipe {
	t.Helper()

	recipe := &models.Recipe{
		AuthorID:    author.ID,
		Name:        name,
		Text:        "Mix everything.",
		CookingTime: 10,
		Image:       "/media/recipes/images/" + name + ".png",
	}
	if err := db.Create(recipe).Error; err != nil {
		t.Fatalf("failed to create recipe %s: %v", name, err)
	}

	for ingredientID, amount := range amounts {
		link := models.IngredientRecipe{RecipeID: recipe.ID, IngredientID: ingredientID, Amount: amount}
		if err := db.Create(&link).Error; err != nil {
			t.Fatalf("failed to link ingredient %d: %v", ingredientID, err)
		}
	}
	for _, tag := range tags {
		link := models.TagRecipe{RecipeID: recipe.ID, TagID: tag.ID}
		if err := db.Create(&link).Error; err != nil {
			t.Fatalf("failed to link tag %s: %v", tag.Slug, err)
		}
	}

	return recipe
}
