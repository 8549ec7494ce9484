package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/models"
)

// UserResponse is the wire representation of a user, annotated with
// the requester's subscription state.
type UserResponse struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsSubscribed bool      `json:"is_subscribed"`
	Avatar       string    `json:"avatar"`
}

func newUserResponse(u *models.User, isSubscribed bool) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Username:     u.Username,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		IsSubscribed: isSubscribed,
		Avatar:       u.Avatar,
	}
}

// RecipeIngredientResponse flattens an ingredient link into the
// ingredient fields plus the amount.
type RecipeIngredientResponse struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	MeasurementUnit string    `json:"measurement_unit"`
	Amount          int       `json:"amount"`
}

// RecipeResponse is the full wire representation of a recipe.
type RecipeResponse struct {
	ID               uuid.UUID                  `json:"id"`
	Tags             []models.Tag               `json:"tags"`
	Author           UserResponse               `json:"author"`
	Ingredients      []RecipeIngredientResponse `json:"ingredients"`
	IsFavorited      bool                       `json:"is_favorited"`
	IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	Name             string                     `json:"name"`
	Image            string                     `json:"image"`
	Text             string                     `json:"text"`
	CookingTime      int                        `json:"cooking_time"`
	CreatedAt        time.Time                  `json:"created_at"`
}

// recipeFlags carries the requester-scoped annotations for a recipe.
type recipeFlags struct {
	favorited    bool
	inCart       bool
	authorFollow bool
}

func newRecipeResponse(r *models.Recipe, flags recipeFlags) RecipeResponse {
	ingredients := make([]RecipeIngredientResponse, len(r.Ingredients))
	for i, link := range r.Ingredients {
		ingredients[i] = RecipeIngredientResponse{
			ID:              link.Ingredient.ID,
			Name:            link.Ingredient.Name,
			MeasurementUnit: link.Ingredient.MeasurementUnit,
			Amount:          link.Amount,
		}
	}

	tags := r.Tags
	if tags == nil {
		tags = []models.Tag{}
	}

	return RecipeResponse{
		ID:               r.ID,
		Tags:             tags,
		Author:           newUserResponse(&r.Author, flags.authorFollow),
		Ingredients:      ingredients,
		IsFavorited:      flags.favorited,
		IsInShoppingCart: flags.inCart,
		Name:             r.Name,
		Image:            r.Image,
		Text:             r.Text,
		CookingTime:      r.CookingTime,
		CreatedAt:        r.CreatedAt,
	}
}

// RecipeShortResponse is the compact recipe summary used by the
// membership togglers and subscription listings.
type RecipeShortResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	CookingTime int       `json:"cooking_time"`
}

func newRecipeShortResponse(r *models.Recipe) RecipeShortResponse {
	return RecipeShortResponse{
		ID:          r.ID,
		Name:        r.Name,
		Image:       r.Image,
		CookingTime: r.CookingTime,
	}
}

// SubscriptionResponse is a followed author annotated with a capped
// sample of their recipes and the full recipe count.
type SubscriptionResponse struct {
	UserResponse
	Recipes      []RecipeShortResponse `json:"recipes"`
	RecipesCount int64                 `json:"recipes_count"`
}
