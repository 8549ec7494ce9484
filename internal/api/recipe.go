package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

// RecipeHandler serves recipe CRUD, memberships, short links and the
// shopping-list export.
type RecipeHandler struct {
	recipeService    *service.RecipeService
	userService      *service.UserService
	shoppingService  *service.ShoppingListService
	shortLinkService *service.ShortLinkService
	authService      *service.AuthService
	pageSize         int
}

func NewRecipeHandler(
	recipeService *service.RecipeService,
	userService *service.UserService,
	shoppingService *service.ShoppingListService,
	shortLinkService *service.ShortLinkService,
	authService *service.AuthService,
	pageSize int,
) *RecipeHandler {
	return &RecipeHandler{
		recipeService:    recipeService,
		userService:      userService,
		shoppingService:  shoppingService,
		shortLinkService: shortLinkService,
		authService:      authService,
		pageSize:         pageSize,
	}
}

func (h *RecipeHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)
	optional := middleware.OptionalAuthMiddleware(h.authService)

	recipes := router.Group("/recipes")
	{
		recipes.GET("", optional, h.ListRecipes)
		recipes.POST("", auth, h.CreateRecipe)
		recipes.GET("/download_shopping_cart", auth, h.DownloadShoppingCart)
		recipes.GET("/:id", optional, h.GetRecipe)
		recipes.PUT("/:id", auth, h.UpdateRecipe)
		recipes.PATCH("/:id", auth, h.UpdateRecipe)
		recipes.DELETE("/:id", auth, h.DeleteRecipe)
		recipes.POST("/:id/favorite", auth, h.Favorite)
		recipes.DELETE("/:id/favorite", auth, h.Unfavorite)
		recipes.POST("/:id/shopping_cart", auth, h.AddToCart)
		recipes.DELETE("/:id/shopping_cart", auth, h.RemoveFromCart)
		recipes.GET("/:id/get-link", h.GetLink)
	}
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	params := pagination(c, h.pageSize)
	filter := service.RecipeFilter{
		TagSlugs:  c.QueryArray("tags"),
		Favorited: c.Query("is_favorited") == "1",
		InCart:    c.Query("is_in_shopping_cart") == "1",
		Page:      params.Page,
		Limit:     params.Limit,
	}
	if author := c.Query("author"); author != "" {
		id, err := uuid.Parse(author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.AuthorID = &id
	}

	userID := optionalUserID(c)
	recipes, total, err := h.recipeService.ListRecipes(c.Request.Context(), filter, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results, err := h.annotateRecipes(c, recipes)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPageResponse(c, total, params, results))
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results, err := h.annotateRecipes(c, []models.Recipe{*recipe})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results[0])
}

func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipeService.CreateRecipe(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results, err := h.annotateRecipes(c, []models.Recipe{*recipe})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, results[0])
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, _ := currentUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req types.RecipeWriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipeService.UpdateRecipe(c.Request.Context(), id, userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results, err := h.annotateRecipes(c, []models.Recipe{*recipe})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results[0])
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, _ := currentUserID(c)
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.recipeService.DeleteRecipe(c.Request.Context(), id, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) Favorite(c *gin.Context) {
	h.addMembership(c, h.recipeService.AddFavorite)
}

func (h *RecipeHandler) Unfavorite(c *gin.Context) {
	h.removeMembership(c, h.recipeService.RemoveFavorite)
}

func (h *RecipeHandler) AddToCart(c *gin.Context) {
	h.addMembership(c, h.recipeService.AddToCart)
}

func (h *RecipeHandler) RemoveFromCart(c *gin.Context) {
	h.removeMembership(c, h.recipeService.RemoveFromCart)
}

func (h *RecipeHandler) DownloadShoppingCart(c *gin.Context) {
	userID, _ := currentUserID(c)

	items, err := h.shoppingService.Aggregate(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	body := h.shoppingService.Render(items)
	c.Header("Content-Disposition", `attachment; filename="shopping_list.txt"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", body)
}

func (h *RecipeHandler) GetLink(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	recipe, err := h.recipeService.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	link, err := h.shortLinkService.GetOrCreate(c.Request.Context(), h.shortLinkService.RecipeURL(recipe.ID.String()))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"short-link": h.shortLinkService.ShortURL(link.Token)})
}

func (h *RecipeHandler) addMembership(c *gin.Context, add func(ctx context.Context, userID, recipeID uuid.UUID) (*models.Recipe, error)) {
	userID, _ := currentUserID(c)
	recipeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	recipe, err := add(c.Request.Context(), userID, recipeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newRecipeShortResponse(recipe))
}

func (h *RecipeHandler) removeMembership(c *gin.Context, remove func(ctx context.Context, userID, recipeID uuid.UUID) error) {
	userID, _ := currentUserID(c)
	recipeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := remove(c.Request.Context(), userID, recipeID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *RecipeHandler) annotateRecipes(c *gin.Context, recipes []models.Recipe) ([]RecipeResponse, error) {
	userID := optionalUserID(c)

	recipeIDs := make([]uuid.UUID, len(recipes))
	authorIDs := make([]uuid.UUID, len(recipes))
	for i := range recipes {
		recipeIDs[i] = recipes[i].ID
		authorIDs[i] = recipes[i].AuthorID
	}

	favorited, err := h.recipeService.FavoriteRecipeIDs(c.Request.Context(), userID, recipeIDs)
	if err != nil {
		return nil, err
	}
	inCart, err := h.recipeService.CartRecipeIDs(c.Request.Context(), userID, recipeIDs)
	if err != nil {
		return nil, err
	}
	subscribed, err := h.userService.SubscribedAuthorIDs(c.Request.Context(), userID, authorIDs)
	if err != nil {
		return nil, err
	}

	results := make([]RecipeResponse, len(recipes))
	for i := range recipes {
		results[i] = newRecipeResponse(&recipes[i], recipeFlags{
			favorited:    favorited[recipes[i].ID],
			inCart:       inCart[recipes[i].ID],
			authorFollow: subscribed[recipes[i].AuthorID],
		})
	}
	return results, nil
}
