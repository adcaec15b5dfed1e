package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
)

// MarkKind selects the per-user recipe list a mark belongs to
type MarkKind int

const (
	MarkFavorite MarkKind = iota
	MarkShoppingCart
)

func (k MarkKind) String() string {
	if k == MarkShoppingCart {
		return "shopping_cart"
	}
	return "favorite"
}

func (k MarkKind) model(userID uuid.UUID, recipeID uint) interface{} {
	if k == MarkShoppingCart {
		return &models.ShoppingCart{UserID: userID, RecipeID: recipeID}
	}
	return &models.Favorite{UserID: userID, RecipeID: recipeID}
}

func (k MarkKind) errors() (exists, missing *Error) {
	if k == MarkShoppingCart {
		return ErrAlreadyInCart, ErrNotInCart
	}
	return ErrAlreadyFavorited, ErrNotFavorited
}

// MarkService adds and removes favorite and shopping cart marks
type MarkService struct {
	db  *gorm.DB
	log logrus.FieldLogger
}

func NewMarkService(db *gorm.DB, log logrus.FieldLogger) *MarkService {
	return &MarkService{db: db, log: logging.OrDefault(log)}
}

func (s *MarkService) findRecipe(ctx context.Context, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	return &recipe, nil
}

// AddMark marks a recipe for the user. The unique (user, recipe) index
// decides concurrent duplicates.
func (s *MarkService) AddMark(ctx context.Context, kind MarkKind, userID uuid.UUID, recipeID uint) (*models.Recipe, error) {
	recipe, err := s.findRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(kind.model(userID, recipeID)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			exists, _ := kind.errors()
			return nil, exists
		}
		return nil, fmt.Errorf("failed to add %s: %w", kind, err)
	}

	s.log.WithFields(logrus.Fields{"kind": kind.String(), "user_id": userID, "recipe_id": recipeID}).Debug("recipe marked")
	return recipe, nil
}

func (s *MarkService) RemoveMark(ctx context.Context, kind MarkKind, userID uuid.UUID, recipeID uint) error {
	if _, err := s.findRecipe(ctx, recipeID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(kind.model(uuid.Nil, 0))
	if result.Error != nil {
		return fmt.Errorf("failed to remove %s: %w", kind, result.Error)
	}
	if result.RowsAffected == 0 {
		_, missing := kind.errors()
		return missing
	}

	s.log.WithFields(logrus.Fields{"kind": kind.String(), "user_id": userID, "recipe_id": recipeID}).Debug("recipe unmarked")
	return nil
}
