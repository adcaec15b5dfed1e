package api

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/mocks"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

const pngDataURI = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAYAAAAfFcSJAAAADUlEQVR42mNkYPhfDwAChwGA60e6kgAAAABJRU5ErkJggg=="

func init() {
	gin.SetMode(gin.TestMode)
}

// testEnv is a router wired to real services over an in-memory database
type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	auth   *service.AuthService
	images *mocks.MockImageStore
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testhelpers.SetupTestDatabase(t)
	log := logging.Discard()

	images := new(mocks.MockImageStore)
	images.On("Save", mock.Anything, mock.Anything).Return("/media/recipes/images/test.png", nil).Maybe()
	images.On("Delete", mock.Anything, mock.Anything).Return(nil).Maybe()

	auth := service.NewAuthService(db, "test-secret", time.Hour, nil, log)
	svc := Services{
		Auth:          auth,
		Users:         service.NewUserService(db, log).WithBcryptCost(bcrypt.MinCost),
		Recipes:       service.NewRecipeService(db, images, log),
		Marks:         service.NewMarkService(db, log),
		ShoppingList:  service.NewShoppingListService(db),
		Subscriptions: service.NewSubscriptionService(db, log),
		Reference:     service.NewReferenceService(db),
	}

	router := gin.New()
	RegisterRoutes(router, svc, Options{Log: log})

	return &testEnv{router: router, db: db, auth: auth, images: images}
}

// createUserWithToken inserts a user and returns it with a valid token
func (e *testEnv) createUserWithToken(t *testing.T) (*models.User, string) {
	t.Helper()
	user := testhelpers.CreateUser(t, e.db)
	token, err := e.auth.GenerateToken(user)
	require.NoError(t, err)
	return user, token
}

func (e *testEnv) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Token "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func recipePayload(name string, ingredients []map[string]interface{}, tags ...uint) map[string]interface{} {
	return map[string]interface{}{
		"name":         name,
		"text":         "Chop, stir and serve.",
		"cooking_time": 20,
		"image":        pngDataURI,
		"ingredients":  ingredients,
		"tags":         tags,
	}
}

func amount(id uint, n int) map[string]interface{} {
	return map[string]interface{}{"id": id, "amount": n}
}

func assertStatus(t *testing.T, want int, w *httptest.ResponseRecorder) {
	t.Helper()
	require.Equal(t, want, w.Code, w.Body.String())
}

