package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures so transports can map them to
// status codes without inspecting messages.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindConflict
	KindNotFound
	KindForbidden
	KindUnauthorized
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Error is a classified service error. Field is set when the failure can
// be attributed to a single input field. Two errors match under errors.Is
// when their codes are equal, so detailed copies still match the sentinel.
type Error struct {
	Kind    ErrorKind
	Code    string
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Message
	}
	return e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// withDetail returns a copy of e whose message mentions the offending value
func (e *Error) withDetail(format string, args ...interface{}) *Error {
	cp := *e
	cp.Message = e.Message + ": " + fmt.Sprintf(format, args...)
	return &cp
}

func newError(kind ErrorKind, code, field, message string) *Error {
	return &Error{Kind: kind, Code: code, Field: field, Message: message}
}

// KindOf reports the kind of err, or zero when err is not a service error
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// AsError extracts the service error wrapped in err
func AsError(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// Association errors
var (
	ErrMissingIngredients   = newError(KindValidation, "missing_ingredients", "ingredients", "missing ingredients")
	ErrDuplicatedIngredient = newError(KindValidation, "duplicated_ingredient", "ingredients", "duplicated ingredient")
	ErrInvalidIngredient    = newError(KindValidation, "invalid_ingredient", "ingredients", "invalid id")
	ErrInvalidAmount        = newError(KindValidation, "invalid_amount", "ingredients", "invalid amount, must be between 1 and 32000")
	ErrMissingTags          = newError(KindValidation, "missing_tags", "tags", "missing tags")
	ErrDuplicatedTag        = newError(KindValidation, "duplicated_tag", "tags", "duplicated tag")
	ErrInvalidTag           = newError(KindValidation, "invalid_tag", "tags", "invalid id")
)

// Recipe errors
var (
	ErrRecipeNotFound     = newError(KindNotFound, "recipe_not_found", "", "recipe not found")
	ErrRecipeNameTaken    = newError(KindValidation, "recipe_name_taken", "name", "recipe with this name already exists")
	ErrInvalidRecipeField = newError(KindValidation, "invalid_recipe_field", "", "invalid value")
	ErrInvalidImage       = newError(KindValidation, "invalid_image", "image", "invalid image")
	ErrNotRecipeAuthor    = newError(KindForbidden, "not_recipe_author", "", "you do not have permission to perform this action")
	ErrAlreadyFavorited   = newError(KindConflict, "already_favorited", "", "recipe already marked as favorite")
	ErrNotFavorited       = newError(KindNotFound, "not_favorited", "", "recipe is not marked as favorite")
	ErrAlreadyInCart      = newError(KindConflict, "already_in_cart", "", "recipe already marked in shopping cart")
	ErrNotInCart          = newError(KindNotFound, "not_in_cart", "", "recipe is not marked in shopping cart")
)

// User and subscription errors
var (
	ErrUserNotFound        = newError(KindNotFound, "user_not_found", "", "user not found")
	ErrEmailTaken          = newError(KindValidation, "email_taken", "email", "user with this email already exists")
	ErrUsernameTaken       = newError(KindValidation, "username_taken", "username", "user with this username already exists")
	ErrUserExists          = newError(KindConflict, "user_exists", "", "user already exists")
	ErrInvalidCredentials  = newError(KindValidation, "invalid_credentials", "", "unable to log in with provided credentials")
	ErrWrongPassword       = newError(KindValidation, "wrong_password", "current_password", "wrong password")
	ErrInvalidToken        = newError(KindUnauthorized, "invalid_token", "", "invalid token")
	ErrSelfSubscription    = newError(KindValidation, "self_subscription", "", "cannot subscribe to yourself")
	ErrAlreadySubscribed   = newError(KindConflict, "already_subscribed", "", "already subscribed")
	ErrNotSubscribed       = newError(KindNotFound, "not_subscribed", "", "no such subscription")
	ErrInvalidRecipesLimit = newError(KindValidation, "invalid_recipes_limit", "recipes_limit", "must be a non-negative integer")
)

// Reference data errors
var (
	ErrIngredientNotFound = newError(KindNotFound, "ingredient_not_found", "", "ingredient not found")
	ErrTagNotFound        = newError(KindNotFound, "tag_not_found", "", "tag not found")
)
