package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListIngredientsPrefix(t *testing.T) {
	db := openTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	createTestIngredient(t, db, "Flour", "g")
	createTestIngredient(t, db, "flax seeds", "g")
	createTestIngredient(t, db, "sugar", "g")

	ingredients, err := svc.ListIngredients(ctx, "fl")
	require.NoError(t, err)
	require.Len(t, ingredients, 2)

	// No prefix returns everything, ordered by name.
	ingredients, err = svc.ListIngredients(ctx, "")
	require.NoError(t, err)
	assert.Len(t, ingredients, 3)
}

func TestListTags(t *testing.T) {
	db := openTestDB(t)
	svc := NewCatalogService(db)
	ctx := context.Background()

	dinner := createTestTag(t, db, "Dinner", "dinner")
	createTestTag(t, db, "Breakfast", "breakfast")

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "Breakfast", tags[0].Name)

	tag, err := svc.GetTag(ctx, dinner.ID)
	require.NoError(t, err)
	assert.Equal(t, "dinner", tag.Slug)
}

func TestDecodeBase64Image(t *testing.T) {
	data, contentType, key, err := DecodeBase64Image("recipes", testImage)
	require.NoError(t, err)
	assert.Equal(t, []byte("imagebytes"), data)
	assert.Equal(t, "image/png", contentType)
	assert.Contains(t, key, "recipes/")
	assert.Contains(t, key, ".png")

	_, _, _, err = DecodeBase64Image("recipes", "data:text/plain;base64,aGk=")
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, _, _, err = DecodeBase64Image("recipes", "data:image/png;base64,!!!")
	assert.ErrorIs(t, err, ErrInvalidImage)
}
