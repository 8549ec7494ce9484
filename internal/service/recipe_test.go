package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

type recipeFixture struct {
	db     *gorm.DB
	svc    *RecipeService
	author *models.User
	flour  *models.Ingredient
	sugar  *models.Ingredient
	dinner *models.Tag
	lunch  *models.Tag
}

func newRecipeFixture(t *testing.T) *recipeFixture {
	t.Helper()
	db := openTestDB(t)
	return &recipeFixture{
		db:     db,
		svc:    NewRecipeService(db, newMemoryMediaStore()),
		author: createTestUser(t, db, "chef"),
		flour:  createTestIngredient(t, db, "flour", "g"),
		sugar:  createTestIngredient(t, db, "sugar", "g"),
		dinner: createTestTag(t, db, "Dinner", "dinner"),
		lunch:  createTestTag(t, db, "Lunch", "lunch"),
	}
}

func (f *recipeFixture) writeRequest() *types.RecipeWriteRequest {
	return &types.RecipeWriteRequest{
		Ingredients: []types.RecipeIngredientRequest{
			{ID: f.flour.ID.String(), Amount: 200},
			{ID: f.sugar.ID.String(), Amount: 50},
		},
		Tags:        []string{f.dinner.ID.String()},
		Image:       testImage,
		Name:        "Pancakes",
		Text:        "Mix and fry.",
		CookingTime: 20,
	}
}

func TestCreateRecipe(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.writeRequest())
	require.NoError(t, err)

	assert.Equal(t, "Pancakes", recipe.Name)
	assert.Equal(t, f.author.ID, recipe.AuthorID)
	assert.Equal(t, "chef", recipe.Author.Username)
	assert.Contains(t, recipe.Image, "/media/recipes/")
	require.Len(t, recipe.Tags, 1)
	assert.Equal(t, "dinner", recipe.Tags[0].Slug)
	require.Len(t, recipe.Ingredients, 2)
}

func TestCreateRecipeValidation(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	req := &types.RecipeWriteRequest{
		Name:        "Empty",
		Text:        "No substance.",
		CookingTime: 0,
	}

	_, err := f.svc.CreateRecipe(ctx, f.author.ID, req)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)

	fields := make(map[string]bool)
	for _, fe := range verrs {
		fields[fe.Field] = true
	}
	assert.True(t, fields["ingredients"])
	assert.True(t, fields["tags"])
	assert.True(t, fields["cooking_time"])
	assert.True(t, fields["image"])
}

func TestCreateRecipeRejectsDuplicateIngredients(t *testing.T) {
	f := newRecipeFixture(t)

	req := f.writeRequest()
	req.Ingredients = []types.RecipeIngredientRequest{
		{ID: f.flour.ID.String(), Amount: 100},
		{ID: f.flour.ID.String(), Amount: 100},
	}

	_, err := f.svc.CreateRecipe(context.Background(), f.author.ID, req)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestCreateRecipeUnknownIngredient(t *testing.T) {
	f := newRecipeFixture(t)

	req := f.writeRequest()
	req.Ingredients = []types.RecipeIngredientRequest{
		{ID: uuid.NewString(), Amount: 100},
	}

	_, err := f.svc.CreateRecipe(context.Background(), f.author.ID, req)
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
}

func TestUpdateRecipeReplacesAssociations(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.writeRequest())
	require.NoError(t, err)

	update := &types.RecipeWriteRequest{
		Ingredients: []types.RecipeIngredientRequest{
			{ID: f.sugar.ID.String(), Amount: 500},
		},
		Tags:        []string{f.lunch.ID.String()},
		Name:        "Caramel",
		Text:        "Melt the sugar.",
		CookingTime: 10,
	}

	updated, err := f.svc.UpdateRecipe(ctx, recipe.ID, f.author.ID, update)
	require.NoError(t, err)

	assert.Equal(t, "Caramel", updated.Name)
	// Omitted image keeps the stored one.
	assert.Equal(t, recipe.Image, updated.Image)

	require.Len(t, updated.Ingredients, 1)
	assert.Equal(t, f.sugar.ID, updated.Ingredients[0].IngredientID)
	assert.Equal(t, 500, updated.Ingredients[0].Amount)

	require.Len(t, updated.Tags, 1)
	assert.Equal(t, "lunch", updated.Tags[0].Slug)

	var linkCount int64
	require.NoError(t, f.db.Model(&models.IngredientForRecipe{}).
		Where("recipe_id = ?", recipe.ID).
		Count(&linkCount).Error)
	assert.Equal(t, int64(1), linkCount)
}

func TestUpdateRecipeNotOwner(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.writeRequest())
	require.NoError(t, err)

	intruder := createTestUser(t, f.db, "intruder")
	_, err = f.svc.UpdateRecipe(ctx, recipe.ID, intruder.ID, f.writeRequest())
	assert.ErrorIs(t, err, ErrNotOwner)

	err = f.svc.DeleteRecipe(ctx, recipe.ID, intruder.ID)
	assert.ErrorIs(t, err, ErrNotOwner)
}

func TestDeleteRecipeRemovesMemberships(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.writeRequest())
	require.NoError(t, err)

	fan := createTestUser(t, f.db, "fan")
	_, err = f.svc.AddFavorite(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	_, err = f.svc.AddToCart(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteRecipe(ctx, recipe.ID, f.author.ID))

	_, err = f.svc.GetRecipe(ctx, recipe.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var favorites, carts int64
	require.NoError(t, f.db.Model(&models.Favorite{}).Where("recipe_id = ?", recipe.ID).Count(&favorites).Error)
	require.NoError(t, f.db.Model(&models.ShoppingCart{}).Where("recipe_id = ?", recipe.ID).Count(&carts).Error)
	assert.Equal(t, int64(0), favorites)
	assert.Equal(t, int64(0), carts)
}

func TestFavoriteMembership(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.writeRequest())
	require.NoError(t, err)
	fan := createTestUser(t, f.db, "fan")

	got, err := f.svc.AddFavorite(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)
	assert.Equal(t, recipe.ID, got.ID)

	_, err = f.svc.AddFavorite(ctx, fan.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrAlreadyInList)

	require.NoError(t, f.svc.RemoveFavorite(ctx, fan.ID, recipe.ID))
	assert.ErrorIs(t, f.svc.RemoveFavorite(ctx, fan.ID, recipe.ID), ErrNotInList)
}

func TestCartMembership(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.writeRequest())
	require.NoError(t, err)
	fan := createTestUser(t, f.db, "fan")

	_, err = f.svc.AddToCart(ctx, fan.ID, recipe.ID)
	require.NoError(t, err)

	_, err = f.svc.AddToCart(ctx, fan.ID, recipe.ID)
	assert.ErrorIs(t, err, ErrAlreadyInList)

	require.NoError(t, f.svc.RemoveFromCart(ctx, fan.ID, recipe.ID))
	assert.ErrorIs(t, f.svc.RemoveFromCart(ctx, fan.ID, recipe.ID), ErrNotInList)
}

func TestListRecipesFilters(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	first, err := f.svc.CreateRecipe(ctx, f.author.ID, f.writeRequest())
	require.NoError(t, err)

	second := f.writeRequest()
	second.Name = "Soup"
	second.Tags = []string{f.lunch.ID.String()}
	other := createTestUser(t, f.db, "othercook")
	soup, err := f.svc.CreateRecipe(ctx, other.ID, second)
	require.NoError(t, err)

	// Tag filter.
	recipes, total, err := f.svc.ListRecipes(ctx, RecipeFilter{TagSlugs: []string{"lunch"}, Page: 1, Limit: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, recipes, 1)
	assert.Equal(t, soup.ID, recipes[0].ID)

	// Author filter.
	recipes, total, err = f.svc.ListRecipes(ctx, RecipeFilter{AuthorID: &f.author.ID, Page: 1, Limit: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, recipes, 1)
	assert.Equal(t, first.ID, recipes[0].ID)

	// Favorited filter only applies for an authenticated user.
	fan := createTestUser(t, f.db, "fan")
	_, err = f.svc.AddFavorite(ctx, fan.ID, soup.ID)
	require.NoError(t, err)

	recipes, total, err = f.svc.ListRecipes(ctx, RecipeFilter{Favorited: true, Page: 1, Limit: 10}, &fan.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, recipes, 1)
	assert.Equal(t, soup.ID, recipes[0].ID)

	// Anonymous requests ignore the membership filters.
	_, total, err = f.svc.ListRecipes(ctx, RecipeFilter{Favorited: true, Page: 1, Limit: 10}, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}

func TestMembershipIDsAnonymous(t *testing.T) {
	f := newRecipeFixture(t)
	ctx := context.Background()

	recipe, err := f.svc.CreateRecipe(ctx, f.author.ID, f.writeRequest())
	require.NoError(t, err)

	favorited, err := f.svc.FavoriteRecipeIDs(ctx, nil, []uuid.UUID{recipe.ID})
	require.NoError(t, err)
	assert.Empty(t, favorited)

	inCart, err := f.svc.CartRecipeIDs(ctx, nil, []uuid.UUID{recipe.ID})
	require.NoError(t, err)
	assert.Empty(t, inCart)
}
