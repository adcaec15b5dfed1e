package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

// ImageStore persists recipe images and returns their public URL
type ImageStore interface {
	Save(ctx context.Context, img *Image) (string, error)
	Delete(ctx context.Context, url string) error
}

// TokenRevoker remembers logged-out token ids until they expire
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
	Logout(ctx context.Context, claims *types.TokenClaims) error
	GenerateToken(user *models.User) (string, error)
	ValidateToken(ctx context.Context, token string) (*types.TokenClaims, error)
}

// IUserService defines the interface for account operations
type IUserService interface {
	Register(ctx context.Context, req *types.CreateUserRequest) (*models.User, error)
	GetUser(ctx context.Context, viewer, id uuid.UUID) (*UserView, error)
	ListUsers(ctx context.Context, viewer uuid.UUID, page PageRequest) ([]UserView, int64, error)
	SetPassword(ctx context.Context, userID uuid.UUID, current, next string) error
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	CreateRecipe(ctx context.Context, authorID uuid.UUID, req *types.CreateRecipeRequest) (*RecipeView, error)
	UpdateRecipe(ctx context.Context, actor Actor, id uint, req *types.UpdateRecipeRequest) (*RecipeView, error)
	DeleteRecipe(ctx context.Context, actor Actor, id uint) error
	GetRecipe(ctx context.Context, viewer uuid.UUID, id uint) (*RecipeView, error)
	ListRecipes(ctx context.Context, viewer uuid.UUID, filter RecipeFilter, page PageRequest) ([]RecipeView, int64, error)
}

// IMarkService toggles favorites and shopping cart entries
type IMarkService interface {
	AddMark(ctx context.Context, kind MarkKind, userID uuid.UUID, recipeID uint) (*models.Recipe, error)
	RemoveMark(ctx context.Context, kind MarkKind, userID uuid.UUID, recipeID uint) error
}

// IShoppingListService builds the aggregated shopping list of a user
type IShoppingListService interface {
	ShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingItem, error)
	WriteCSV(w io.Writer, items []ShoppingItem) error
}

// ISubscriptionService defines the interface for follow operations
type ISubscriptionService interface {
	Subscribe(ctx context.Context, userID, authorID uuid.UUID, recipesLimit *int) (*SubscriptionView, error)
	Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error
	ListSubscriptions(ctx context.Context, userID uuid.UUID, recipesLimit *int, page PageRequest) ([]SubscriptionView, int64, error)
}

// IReferenceService serves ingredients and tags
type IReferenceService interface {
	ListIngredients(ctx context.Context, namePrefix string) ([]models.Ingredient, error)
	GetIngredient(ctx context.Context, id uint) (*models.Ingredient, error)
	ListTags(ctx context.Context) ([]models.Tag, error)
	GetTag(ctx context.Context, id uint) (*models.Tag, error)
}

// PageRequest is a resolved limit/offset window
type PageRequest struct {
	Limit  int
	Offset int
}

// Actor is the authenticated user performing a mutation
type Actor struct {
	ID uuid.UUID
}
