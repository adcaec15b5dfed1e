package api

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/pageza/foodgram/backend/internal/types"
)

func TestReferenceEndpoints(t *testing.T) {
	env := setupTestEnv(t)
	testhelpers.CreateIngredient(t, env.db, "apple", "pcs")
	apricot := testhelpers.CreateIngredient(t, env.db, "apricot", "g")
	testhelpers.CreateIngredient(t, env.db, "banana", "pcs")
	tag := testhelpers.CreateTag(t, env.db, "fruit")

	w := env.request(t, http.MethodGet, "/api/ingredients?name=ap", "", nil)
	assertStatus(t, http.StatusOK, w)
	var ingredients []types.IngredientResponse
	decode(t, w, &ingredients)
	require.Len(t, ingredients, 2)
	assert.Equal(t, "apple", ingredients[0].Name)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/ingredients/%d", apricot.ID), "", nil)
	assertStatus(t, http.StatusOK, w)

	w = env.request(t, http.MethodGet, "/api/ingredients/9999", "", nil)
	assertStatus(t, http.StatusNotFound, w)

	w = env.request(t, http.MethodGet, "/api/tags", "", nil)
	assertStatus(t, http.StatusOK, w)
	var tags []types.TagResponse
	decode(t, w, &tags)
	require.Len(t, tags, 1)
	assert.Equal(t, tag.Color, tags[0].Color)

	w = env.request(t, http.MethodGet, fmt.Sprintf("/api/tags/%d", tag.ID), "", nil)
	assertStatus(t, http.StatusOK, w)
}

func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t)
	w := env.request(t, http.MethodGet, "/health", "", nil)
	assertStatus(t, http.StatusOK, w)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}
