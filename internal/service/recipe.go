package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

var (
	ErrNotOwner       = errors.New("only the author may modify this recipe")
	ErrAlreadyInList  = errors.New("recipe is already in the list")
	ErrNotInList      = errors.New("recipe is not in the list")
	ErrRecipeNotFound = gorm.ErrRecordNotFound
)

// FieldError is a single field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors collects field-level failures for one request.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	msgs := make([]string, len(v))
	for i, e := range v {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// RecipeFilter narrows recipe listings.
type RecipeFilter struct {
	AuthorID  *uuid.UUID
	TagSlugs  []string
	Favorited bool
	InCart    bool
	Page      int
	Limit     int
}

// RecipeService handles recipe CRUD and favorite/cart memberships.
type RecipeService struct {
	db    *gorm.DB
	media MediaStore
}

func NewRecipeService(db *gorm.DB, media MediaStore) *RecipeService {
	return &RecipeService{db: db, media: media}
}

// GetRecipe retrieves a recipe with its associations.
func (s *RecipeService) GetRecipe(ctx context.Context, id uuid.UUID) (*models.Recipe, error) {
	var recipe models.Recipe
	err := s.db.WithContext(ctx).
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		First(&recipe, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes returns a page of recipes, newest first, and the total
// count. Favorited/InCart filters only apply for an authenticated user.
func (s *RecipeService) ListRecipes(ctx context.Context, filter RecipeFilter, userID *uuid.UUID) ([]models.Recipe, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.AuthorID != nil {
		query = query.Where("recipes.author_id = ?", *filter.AuthorID)
	}
	if len(filter.TagSlugs) > 0 {
		query = query.Where(
			"recipes.id IN (?)",
			s.db.Model(&models.Tag{}).
				Select("recipe_tags.recipe_id").
				Joins("JOIN recipe_tags ON recipe_tags.tag_id = tags.id").
				Where("tags.slug IN ?", filter.TagSlugs),
		)
	}
	if userID != nil {
		if filter.Favorited {
			query = query.Where(
				"recipes.id IN (?)",
				s.db.Model(&models.Favorite{}).Select("recipe_id").Where("user_id = ?", *userID),
			)
		}
		if filter.InCart {
			query = query.Where(
				"recipes.id IN (?)",
				s.db.Model(&models.ShoppingCart{}).Select("recipe_id").Where("user_id = ?", *userID),
			)
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	err := query.
		Preload("Author").
		Preload("Tags").
		Preload("Ingredients.Ingredient").
		Order("recipes.created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&recipes).Error
	if err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// CreateRecipe validates the payload and writes the recipe together
// with its ingredient links and tag set in one transaction.
func (s *RecipeService) CreateRecipe(ctx context.Context, authorID uuid.UUID, req *types.RecipeWriteRequest) (*models.Recipe, error) {
	if errs := validateRecipeWrite(req, true); len(errs) > 0 {
		return nil, errs
	}

	tags, links, err := s.resolveAssociations(ctx, req)
	if err != nil {
		return nil, err
	}

	recipe := models.Recipe{
		AuthorID:    authorID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	imageURL, err := s.storeImage(ctx, req.Image)
	if err != nil {
		return nil, err
	}
	recipe.Image = imageURL

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}
		for i := range links {
			links[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&links).Error; err != nil {
			return err
		}
		return tx.Model(&recipe).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, recipe.ID)
}

// UpdateRecipe rewrites the recipe fields and replaces the ingredient
// and tag associations wholesale, inside one transaction.
func (s *RecipeService) UpdateRecipe(ctx context.Context, id, userID uuid.UUID, req *types.RecipeWriteRequest) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if recipe.AuthorID != userID {
		return nil, ErrNotOwner
	}

	if errs := validateRecipeWrite(req, false); len(errs) > 0 {
		return nil, errs
	}

	tags, links, err := s.resolveAssociations(ctx, req)
	if err != nil {
		return nil, err
	}

	recipe.Name = req.Name
	recipe.Text = req.Text
	recipe.CookingTime = req.CookingTime

	if req.Image != "" {
		imageURL, err := s.storeImage(ctx, req.Image)
		if err != nil {
			return nil, err
		}
		recipe.Image = imageURL
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&recipe).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.IngredientForRecipe{}).Error; err != nil {
			return err
		}
		for i := range links {
			links[i].RecipeID = recipe.ID
		}
		if err := tx.Create(&links).Error; err != nil {
			return err
		}
		return tx.Model(&recipe).Association("Tags").Replace(tags)
	})
	if err != nil {
		return nil, err
	}

	return s.GetRecipe(ctx, recipe.ID)
}

// DeleteRecipe removes the recipe; memberships cascade with it.
func (s *RecipeService) DeleteRecipe(ctx context.Context, id, userID uuid.UUID) error {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", id).Error; err != nil {
		return err
	}
	if recipe.AuthorID != userID {
		return ErrNotOwner
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("recipe_id = ?", id).Delete(&models.IngredientForRecipe{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.Favorite{}).Error; err != nil {
			return err
		}
		if err := tx.Where("recipe_id = ?", id).Delete(&models.ShoppingCart{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&recipe).Association("Tags").Clear(); err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", id).Error
	})
}

// AddFavorite records a (user, recipe) favorite membership. A repeat
// insert loses against the unique constraint and reports
// ErrAlreadyInList.
func (s *RecipeService) AddFavorite(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	return s.addMembership(ctx, recipeID, &models.Favorite{UserID: userID, RecipeID: recipeID})
}

// RemoveFavorite deletes the membership or reports ErrNotInList.
func (s *RecipeService) RemoveFavorite(ctx context.Context, userID, recipeID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotInList
	}
	return nil
}

// AddToCart records a (user, recipe) shopping-cart membership.
func (s *RecipeService) AddToCart(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error) {
	return s.addMembership(ctx, recipeID, &models.ShoppingCart{UserID: userID, RecipeID: recipeID})
}

// RemoveFromCart deletes the membership or reports ErrNotInList.
func (s *RecipeService) RemoveFromCart(ctx context.Context, userID, recipeID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND recipe_id = ?", userID, recipeID).
		Delete(&models.ShoppingCart{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotInList
	}
	return nil
}

func (s *RecipeService) addMembership(ctx context.Context, recipeID uuid.UUID, row interface{}) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "id = ?", recipeID).Error; err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrAlreadyInList
		}
		return nil, err
	}
	return &recipe, nil
}

// FavoriteRecipeIDs reports which of the given recipes the user has
// favorited. Empty for the anonymous user.
func (s *RecipeService) FavoriteRecipeIDs(ctx context.Context, userID *uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return s.membershipIDs(ctx, &models.Favorite{}, userID, recipeIDs)
}

// CartRecipeIDs reports which of the given recipes are in the user's
// shopping cart. Empty for the anonymous user.
func (s *RecipeService) CartRecipeIDs(ctx context.Context, userID *uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	return s.membershipIDs(ctx, &models.ShoppingCart{}, userID, recipeIDs)
}

func (s *RecipeService) membershipIDs(ctx context.Context, model interface{}, userID *uuid.UUID, recipeIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	members := make(map[uuid.UUID]bool)
	if userID == nil || len(recipeIDs) == 0 {
		return members, nil
	}

	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(model).
		Where("user_id = ? AND recipe_id IN ?", *userID, recipeIDs).
		Pluck("recipe_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		members[id] = true
	}
	return members, nil
}

// resolveAssociations loads the referenced tags and builds ingredient
// links, reporting field errors for unknown references.
func (s *RecipeService) resolveAssociations(ctx context.Context, req *types.RecipeWriteRequest) ([]models.Tag, []models.IngredientForRecipe, error) {
	tagIDs := make([]uuid.UUID, 0, len(req.Tags))
	for _, raw := range req.Tags {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, nil, ValidationErrors{{Field: "tags", Message: fmt.Sprintf("invalid tag id %q", raw)}}
		}
		tagIDs = append(tagIDs, id)
	}

	var tags []models.Tag
	if err := s.db.WithContext(ctx).Where("id IN ?", tagIDs).Find(&tags).Error; err != nil {
		return nil, nil, err
	}
	if len(tags) != len(tagIDs) {
		return nil, nil, ValidationErrors{{Field: "tags", Message: "one or more tags do not exist"}}
	}

	ingredientIDs := make([]uuid.UUID, 0, len(req.Ingredients))
	for _, item := range req.Ingredients {
		id, err := uuid.Parse(item.ID)
		if err != nil {
			return nil, nil, ValidationErrors{{Field: "ingredients", Message: fmt.Sprintf("invalid ingredient id %q", item.ID)}}
		}
		ingredientIDs = append(ingredientIDs, id)
	}

	var count int64
	err := s.db.WithContext(ctx).Model(&models.Ingredient{}).
		Where("id IN ?", ingredientIDs).
		Count(&count).Error
	if err != nil {
		return nil, nil, err
	}
	if count != int64(len(ingredientIDs)) {
		return nil, nil, ValidationErrors{{Field: "ingredients", Message: "one or more ingredients do not exist"}}
	}

	links := make([]models.IngredientForRecipe, len(req.Ingredients))
	for i, item := range req.Ingredients {
		links[i] = models.IngredientForRecipe{
			IngredientID: ingredientIDs[i],
			Amount:       item.Amount,
		}
	}
	return tags, links, nil
}

func (s *RecipeService) storeImage(ctx context.Context, dataURI string) (string, error) {
	data, contentType, key, err := DecodeBase64Image("recipes", dataURI)
	if err != nil {
		return "", ValidationErrors{{Field: "image", Message: "invalid base64 image"}}
	}
	return s.media.Save(ctx, key, contentType, data)
}

func validateRecipeWrite(req *types.RecipeWriteRequest, requireImage bool) ValidationErrors {
	var errs ValidationErrors

	if len(req.Ingredients) == 0 {
		errs = append(errs, FieldError{Field: "ingredients", Message: "at least one ingredient is required"})
	}
	seenIngredients := make(map[string]bool)
	for _, item := range req.Ingredients {
		if seenIngredients[item.ID] {
			errs = append(errs, FieldError{Field: "ingredients", Message: "duplicate ingredient " + item.ID})
		}
		seenIngredients[item.ID] = true
		if item.Amount <= 0 {
			errs = append(errs, FieldError{Field: "ingredients", Message: "amount must be positive"})
		}
	}

	if len(req.Tags) == 0 {
		errs = append(errs, FieldError{Field: "tags", Message: "at least one tag is required"})
	}
	seenTags := make(map[string]bool)
	for _, tag := range req.Tags {
		if seenTags[tag] {
			errs = append(errs, FieldError{Field: "tags", Message: "duplicate tag " + tag})
		}
		seenTags[tag] = true
	}

	if req.CookingTime <= 0 {
		errs = append(errs, FieldError{Field: "cooking_time", Message: "cooking time must be positive"})
	}

	if requireImage && req.Image == "" {
		errs = append(errs, FieldError{Field: "image", Message: "image is required"})
	}

	return errs
}
