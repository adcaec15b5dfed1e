package types

// IngredientAmount references an ingredient by id with the amount used in a recipe
type IngredientAmount struct {
	ID     uint `json:"id" binding:"required"`
	Amount int  `json:"amount"`
}

// CreateRecipeRequest represents the request body for creating a recipe.
// Ingredient and tag lists are checked by the recipe service so that
// empty, duplicated and unknown references get their own messages.
type CreateRecipeRequest struct {
	Ingredients []IngredientAmount `json:"ingredients" binding:"dive"`
	Tags        []uint             `json:"tags"`
	Image       string             `json:"image" binding:"required"`
	Name        string             `json:"name" binding:"required,max=200"`
	Text        string             `json:"text" binding:"required"`
	CookingTime int                `json:"cooking_time" binding:"required,min=1,max=32000"`
}

// UpdateRecipeRequest represents the PATCH body. Ingredients and tags are
// always required, scalar fields only change when present.
type UpdateRecipeRequest struct {
	Ingredients []IngredientAmount `json:"ingredients" binding:"dive"`
	Tags        []uint             `json:"tags"`
	Image       *string            `json:"image" binding:"omitempty,min=1"`
	Name        *string            `json:"name" binding:"omitempty,min=1,max=200"`
	Text        *string            `json:"text" binding:"omitempty,min=1"`
	CookingTime *int               `json:"cooking_time" binding:"omitempty,min=1,max=32000"`
}

type CreateUserRequest struct {
	Email     string `json:"email" binding:"required,email,max=254"`
	Username  string `json:"username" binding:"required,max=150,username"`
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Password  string `json:"password" binding:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type SetPasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=8,max=128"`
}
