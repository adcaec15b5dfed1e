package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/models"
)

const (
	ShoppingListFilename = "shopping-list.csv"

	shoppingListTitle = "Список покупок"
)

var shoppingListHeader = []string{"Ингредиент", "Количество"}

// ShoppingItem is one aggregated line of a shopping list
type ShoppingItem struct {
	Name            string
	MeasurementUnit string
	Total           int64
}

// ShoppingListService aggregates the ingredients of a user's cart
type ShoppingListService struct {
	db *gorm.DB
}

func NewShoppingListService(db *gorm.DB) *ShoppingListService {
	return &ShoppingListService{db: db}
}

// ShoppingList sums the amounts of every ingredient across the recipes in
// the user's cart, one row per (name, measurement unit), sorted by name.
func (s *ShoppingListService) ShoppingList(ctx context.Context, userID uuid.UUID) ([]ShoppingItem, error) {
	db := s.db.WithContext(ctx)
	cart := db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", userID)

	var items []ShoppingItem
	err := db.
		Table("ingredient_recipes").
		Select("ingredients.name AS name, ingredients.measurement_unit AS measurement_unit, SUM(ingredient_recipes.amount) AS total").
		Joins("JOIN ingredients ON ingredients.id = ingredient_recipes.ingredient_id").
		Where("ingredient_recipes.recipe_id IN (?)", cart).
		Group("ingredients.name, ingredients.measurement_unit").
		Order("ingredients.name, ingredients.measurement_unit").
		Scan(&items).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate shopping list: %w", err)
	}
	return items, nil
}

// WriteCSV renders items as the downloadable shopping list. An empty list
// still produces the title and header rows.
func (s *ShoppingListService) WriteCSV(w io.Writer, items []ShoppingItem) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{shoppingListTitle}); err != nil {
		return err
	}
	if err := cw.Write(shoppingListHeader); err != nil {
		return err
	}
	for _, item := range items {
		row := []string{
			fmt.Sprintf("%s (%s)", item.Name, item.MeasurementUnit),
			fmt.Sprintf("%d", item.Total),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
