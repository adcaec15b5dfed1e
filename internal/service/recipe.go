package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
)

const (
	maxRecipeNameLength = 200
	MaxCookingTime      = 32000
)

// RecipeView is a recipe annotated for a particular viewer
type RecipeView struct {
	Recipe           models.Recipe
	IsFavorited      bool
	IsInShoppingCart bool
	AuthorSubscribed bool
}

// RecipeFilter narrows ListRecipes. Favorited and InShoppingCart only apply
// to authenticated viewers.
type RecipeFilter struct {
	AuthorID       *uuid.UUID
	Tags           []string
	Favorited      bool
	InShoppingCart bool
}

// RecipeService handles recipe operations
type RecipeService struct {
	db     *gorm.DB
	images ImageStore
	log    logrus.FieldLogger
}

// NewRecipeService creates a new RecipeService instance
func NewRecipeService(db *gorm.DB, images ImageStore, log logrus.FieldLogger) *RecipeService {
	return &RecipeService{
		db:     db,
		images: images,
		log:    logging.OrDefault(log),
	}
}

func validateRecipeFields(name, text string, cookingTime int) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &Error{Kind: KindValidation, Code: ErrInvalidRecipeField.Code, Field: "name", Message: "this field may not be blank"}
	case len([]rune(name)) > maxRecipeNameLength:
		return &Error{Kind: KindValidation, Code: ErrInvalidRecipeField.Code, Field: "name",
			Message: fmt.Sprintf("ensure this field has no more than %d characters", maxRecipeNameLength)}
	case strings.TrimSpace(text) == "":
		return &Error{Kind: KindValidation, Code: ErrInvalidRecipeField.Code, Field: "text", Message: "this field may not be blank"}
	case cookingTime < 1:
		return &Error{Kind: KindValidation, Code: ErrInvalidRecipeField.Code, Field: "cooking_time", Message: "ensure this value is greater than or equal to 1"}
	case cookingTime > MaxCookingTime:
		return &Error{Kind: KindValidation, Code: ErrInvalidRecipeField.Code, Field: "cooking_time",
			Message: fmt.Sprintf("ensure this value is less than or equal to %d", MaxCookingTime)}
	}
	return nil
}

func translateRecipeWrite(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrRecipeNameTaken
	}
	return fmt.Errorf("failed to save recipe: %w", err)
}

// CreateRecipe stores a new recipe with its ingredients and tags in one
// transaction. The image is uploaded once every check has passed and
// removed again if the transaction fails.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, req *types.CreateRecipeRequest) (*RecipeView, error) {
	if err := validateRecipeFields(req.Name, req.Text, req.CookingTime); err != nil {
		return nil, err
	}
	if err := ValidateAssociations(req.Ingredients, req.Tags); err != nil {
		return nil, err
	}
	img, err := DecodeImage(req.Image)
	if err != nil {
		return nil, err
	}

	recipe := &models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	var uploaded string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkReferences(tx, req.Ingredients, req.Tags); err != nil {
			return err
		}

		url, err := s.images.Save(ctx, img)
		if err != nil {
			return err
		}
		uploaded = url
		recipe.Image = url

		if err := tx.Create(recipe).Error; err != nil {
			return translateRecipeWrite(err)
		}
		return ReplaceAssociations(tx, recipe.ID, req.Ingredients, req.Tags)
	})
	if err != nil {
		s.discardImage(ctx, uploaded)
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"recipe_id": recipe.ID, "author_id": authorID}).Info("recipe created")
	return s.GetRecipe(ctx, authorID, recipe.ID)
}

// UpdateRecipe applies a partial update. Ingredients and tags are always
// replaced as whole sets; scalar fields change only when present.
func (s *RecipeService) UpdateRecipe(ctx context.Context, actor Actor, id uint, req *types.UpdateRecipeRequest) (*RecipeView, error) {
	var (
		uploaded string
		oldImage string
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := loadOwnedRecipe(tx, actor, id)
		if err != nil {
			return err
		}

		name, text, cookingTime := recipe.Name, recipe.Text, recipe.CookingTime
		if req.Name != nil {
			name = *req.Name
		}
		if req.Text != nil {
			text = *req.Text
		}
		if req.CookingTime != nil {
			cookingTime = *req.CookingTime
		}
		if err := validateRecipeFields(name, text, cookingTime); err != nil {
			return err
		}
		if err := ValidateAssociations(req.Ingredients, req.Tags); err != nil {
			return err
		}

		var img *Image
		if req.Image != nil {
			if img, err = DecodeImage(*req.Image); err != nil {
				return err
			}
		}
		if err := checkReferences(tx, req.Ingredients, req.Tags); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"name":         name,
			"text":         text,
			"cooking_time": cookingTime,
		}
		if img != nil {
			url, err := s.images.Save(ctx, img)
			if err != nil {
				return err
			}
			uploaded = url
			oldImage = recipe.Image
			updates["image"] = url
		}

		if err := tx.Model(recipe).Updates(updates).Error; err != nil {
			return translateRecipeWrite(err)
		}
		return ReplaceAssociations(tx, recipe.ID, req.Ingredients, req.Tags)
	})
	if err != nil {
		s.discardImage(ctx, uploaded)
		return nil, err
	}

	s.discardImage(ctx, oldImage)
	s.log.WithFields(logrus.Fields{"recipe_id": id, "user_id": actor.ID}).Info("recipe updated")
	return s.GetRecipe(ctx, actor.ID, id)
}

// DeleteRecipe removes a recipe together with its links and marks
func (s *RecipeService) DeleteRecipe(ctx context.Context, actor Actor, id uint) error {
	var image string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		recipe, err := loadOwnedRecipe(tx, actor, id)
		if err != nil {
			return err
		}
		image = recipe.Image

		for _, child := range []interface{}{
			&models.IngredientRecipe{},
			&models.TagRecipe{},
			&models.Favorite{},
			&models.ShoppingCart{},
		} {
			if err := tx.Where("recipe_id = ?", id).Delete(child).Error; err != nil {
				return fmt.Errorf("failed to delete recipe links: %w", err)
			}
		}
		if err := tx.Delete(recipe).Error; err != nil {
			return fmt.Errorf("failed to delete recipe: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.discardImage(ctx, image)
	s.log.WithFields(logrus.Fields{"recipe_id": id, "user_id": actor.ID}).Info("recipe deleted")
	return nil
}

func loadOwnedRecipe(tx *gorm.DB, actor Actor, id uint) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := tx.First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}
	if recipe.AuthorID == actor.ID {
		return &recipe, nil
	}
	// Staff rights come from the users table so a revoked account loses
	// them before its token expires.
	var staff []bool
	if err := tx.Model(&models.User{}).Where("id = ?", actor.ID).Pluck("is_staff", &staff).Error; err != nil {
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}
	if len(staff) == 0 || !staff[0] {
		return nil, ErrNotRecipeAuthor
	}
	return &recipe, nil
}

// discardImage removes an image that is no longer referenced. Failures are
// only logged since the database state is already final.
func (s *RecipeService) discardImage(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.log.WithError(err).WithField("image", url).Warn("failed to remove recipe image")
	}
}

func withRecipeDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Author").
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("ingredient_recipes.id")
		}).
		Preload("Ingredients.Ingredient").
		Preload("Tags", func(db *gorm.DB) *gorm.DB {
			return db.Order("tag_recipes.id")
		}).
		Preload("Tags.Tag")
}

// GetRecipe retrieves a recipe by ID. viewer may be uuid.Nil.
func (s *RecipeService) GetRecipe(ctx context.Context, viewer uuid.UUID, id uint) (*RecipeView, error) {
	var recipe models.Recipe
	if err := withRecipeDetails(s.db.WithContext(ctx)).First(&recipe, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, fmt.Errorf("failed to load recipe: %w", err)
	}

	views, err := s.annotate(ctx, viewer, []models.Recipe{recipe})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// ListRecipes returns one page of recipes, newest first, and the total
// number of recipes matching filter.
func (s *RecipeService) ListRecipes(ctx context.Context, viewer uuid.UUID, filter RecipeFilter, page PageRequest) ([]RecipeView, int64, error) {
	db := s.db.WithContext(ctx)
	query := db.Model(&models.Recipe{})

	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.Tags) > 0 {
		tagged := db.Table("tag_recipes").
			Select("tag_recipes.recipe_id").
			Joins("JOIN tags ON tags.id = tag_recipes.tag_id").
			Where("tags.slug IN ?", filter.Tags)
		query = query.Where("recipes.id IN (?)", tagged)
	}
	if viewer != uuid.Nil {
		if filter.Favorited {
			query = query.Where("recipes.id IN (?)",
				db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", viewer))
		}
		if filter.InShoppingCart {
			query = query.Where("recipes.id IN (?)",
				db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", viewer))
		}
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count recipes: %w", err)
	}

	var recipes []models.Recipe
	err := withRecipeDetails(query).
		Order("recipes.pub_date DESC").
		Order("recipes.id DESC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recipes: %w", err)
	}

	views, err := s.annotate(ctx, viewer, recipes)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// annotate fills the per-viewer flags of recipes with one query per flag
func (s *RecipeService) annotate(ctx context.Context, viewer uuid.UUID, recipes []models.Recipe) ([]RecipeView, error) {
	views := make([]RecipeView, len(recipes))
	for i := range recipes {
		views[i].Recipe = recipes[i]
	}
	if viewer == uuid.Nil || len(recipes) == 0 {
		return views, nil
	}

	ids := make([]uint, len(recipes))
	authors := make([]uuid.UUID, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		authors[i] = r.AuthorID
	}

	db := s.db.WithContext(ctx)
	favorited, err := pluckRecipeIDs(db.Model(&models.Favorite{}), viewer, ids)
	if err != nil {
		return nil, err
	}
	inCart, err := pluckRecipeIDs(db.Model(&models.ShoppingCart{}), viewer, ids)
	if err != nil {
		return nil, err
	}
	followed, err := followedAmong(db, viewer, authors)
	if err != nil {
		return nil, err
	}

	for i := range views {
		_, views[i].IsFavorited = favorited[views[i].Recipe.ID]
		_, views[i].IsInShoppingCart = inCart[views[i].Recipe.ID]
		_, views[i].AuthorSubscribed = followed[views[i].Recipe.AuthorID]
	}
	return views, nil
}

func pluckRecipeIDs(query *gorm.DB, userID uuid.UUID, ids []uint) (map[uint]struct{}, error) {
	var marked []uint
	if err := query.Where("user_id = ? AND recipe_id IN ?", userID, ids).Pluck("recipe_id", &marked).Error; err != nil {
		return nil, fmt.Errorf("failed to load recipe marks: %w", err)
	}
	set := make(map[uint]struct{}, len(marked))
	for _, id := range marked {
		set[id] = struct{}{}
	}
	return set, nil
}

// followedAmong returns which of candidates are followed by userID
func followedAmong(db *gorm.DB, userID uuid.UUID, candidates []uuid.UUID) (map[uuid.UUID]struct{}, error) {
	set := make(map[uuid.UUID]struct{})
	if userID == uuid.Nil || len(candidates) == 0 {
		return set, nil
	}
	var followed []uuid.UUID
	err := db.Model(&models.Follow{}).
		Where("user_id = ? AND following_id IN ?", userID, candidates).
		Pluck("following_id", &followed).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load subscriptions: %w", err)
	}
	for _, id := range followed {
		set[id] = struct{}{}
	}
	return set, nil
}
