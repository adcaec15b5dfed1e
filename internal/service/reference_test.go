package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestListIngredients(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewReferenceService(db)

	testhelpers.CreateIngredient(t, db, "sugar", "g")
	testhelpers.CreateIngredient(t, db, "Salt", "g")
	testhelpers.CreateIngredient(t, db, "salmon", "g")
	testhelpers.CreateIngredient(t, db, "50%_cream", "ml")

	all, err := svc.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 4)

	matched, err := svc.ListIngredients(ctx, "sal")
	require.NoError(t, err)
	require.Len(t, matched, 2)

	matched, err = svc.ListIngredients(ctx, "SU")
	require.NoError(t, err)
	require.Len(t, matched, 1)
	assert.Equal(t, "sugar", matched[0].Name)

	matched, err = svc.ListIngredients(ctx, "50%")
	require.NoError(t, err)
	require.Len(t, matched, 1)

	matched, err = svc.ListIngredients(ctx, "%")
	require.NoError(t, err)
	assert.Empty(t, matched)
}

func TestGetReferenceData(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupTestDatabase(t)
	svc := service.NewReferenceService(db)

	ing := testhelpers.CreateIngredient(t, db, "flour", "g")
	tag := testhelpers.CreateTag(t, db, "baking")

	got, err := svc.GetIngredient(ctx, ing.ID)
	require.NoError(t, err)
	assert.Equal(t, "flour", got.Name)

	_, err = svc.GetIngredient(ctx, ing.ID+100)
	assert.ErrorIs(t, err, service.ErrIngredientNotFound)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	gotTag, err := svc.GetTag(ctx, tag.ID)
	require.NoError(t, err)
	assert.Equal(t, "baking", gotTag.Slug)

	_, err = svc.GetTag(ctx, tag.ID+100)
	assert.ErrorIs(t, err, service.ErrTagNotFound)
}
