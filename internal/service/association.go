package service

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	associationBatchSize = 100

	// MaxAmount caps a single ingredient amount so cart totals stay within
	// the integer columns they are summed from.
	MaxAmount = 32000
)

// ValidateAssociations checks the shape of a recipe's ingredient and tag
// lists without touching the database.
func ValidateAssociations(ingredients []types.IngredientAmount, tags []uint) error {
	if len(ingredients) == 0 {
		return ErrMissingIngredients
	}
	seen := make(map[uint]struct{}, len(ingredients))
	for _, item := range ingredients {
		if _, dup := seen[item.ID]; dup {
			return ErrDuplicatedIngredient.withDetail("%d", item.ID)
		}
		seen[item.ID] = struct{}{}
		if item.Amount < 1 || item.Amount > MaxAmount {
			return ErrInvalidAmount.withDetail("ingredient %d", item.ID)
		}
	}

	if len(tags) == 0 {
		return ErrMissingTags
	}
	seenTags := make(map[uint]struct{}, len(tags))
	for _, id := range tags {
		if _, dup := seenTags[id]; dup {
			return ErrDuplicatedTag.withDetail("%d", id)
		}
		seenTags[id] = struct{}{}
	}
	return nil
}

// checkReferences verifies that every referenced ingredient and tag exists.
// It must run on the transaction that writes the links.
func checkReferences(tx *gorm.DB, ingredients []types.IngredientAmount, tags []uint) error {
	ids := make([]uint, len(ingredients))
	for i, item := range ingredients {
		ids[i] = item.ID
	}

	var found []uint
	if err := tx.Model(&models.Ingredient{}).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("failed to look up ingredients: %w", err)
	}
	if id, ok := firstMissing(ids, found); ok {
		return ErrInvalidIngredient.withDetail("%d", id)
	}

	found = found[:0]
	if err := tx.Model(&models.Tag{}).Where("id IN ?", tags).Pluck("id", &found).Error; err != nil {
		return fmt.Errorf("failed to look up tags: %w", err)
	}
	if id, ok := firstMissing(tags, found); ok {
		return ErrInvalidTag.withDetail("%d", id)
	}
	return nil
}

func firstMissing(want, have []uint) (uint, bool) {
	present := make(map[uint]struct{}, len(have))
	for _, id := range have {
		present[id] = struct{}{}
	}
	for _, id := range want {
		if _, ok := present[id]; !ok {
			return id, true
		}
	}
	return 0, false
}

// ReplaceAssociations swaps the full ingredient and tag sets of a recipe.
// Callers run it inside a transaction: on any error nothing is changed,
// on success the stored sets equal the input exactly.
func ReplaceAssociations(tx *gorm.DB, recipeID uint, ingredients []types.IngredientAmount, tags []uint) error {
	if err := ValidateAssociations(ingredients, tags); err != nil {
		return err
	}
	if err := checkReferences(tx, ingredients, tags); err != nil {
		return err
	}

	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.IngredientRecipe{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipe ingredients: %w", err)
	}
	if err := tx.Where("recipe_id = ?", recipeID).Delete(&models.TagRecipe{}).Error; err != nil {
		return fmt.Errorf("failed to clear recipe tags: %w", err)
	}

	links := make([]models.IngredientRecipe, len(ingredients))
	for i, item := range ingredients {
		links[i] = models.IngredientRecipe{RecipeID: recipeID, IngredientID: item.ID, Amount: item.Amount}
	}
	if err := tx.CreateInBatches(&links, associationBatchSize).Error; err != nil {
		return fmt.Errorf("failed to store recipe ingredients: %w", err)
	}

	tagLinks := make([]models.TagRecipe, len(tags))
	for i, id := range tags {
		tagLinks[i] = models.TagRecipe{RecipeID: recipeID, TagID: id}
	}
	if err := tx.CreateInBatches(&tagLinks, associationBatchSize).Error; err != nil {
		return fmt.Errorf("failed to store recipe tags: %w", err)
	}
	return nil
}
