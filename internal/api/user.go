package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/foodgram/backend/internal/middleware"
	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/types"
)

// UserHandler serves registration, profile self-service and
// subscriptions.
type UserHandler struct {
	userService *service.UserService
	authService *service.AuthService
	pageSize    int
}

func NewUserHandler(userService *service.UserService, authService *service.AuthService, pageSize int) *UserHandler {
	return &UserHandler{
		userService: userService,
		authService: authService,
		pageSize:    pageSize,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	auth := middleware.AuthMiddleware(h.authService)
	optional := middleware.OptionalAuthMiddleware(h.authService)

	users := router.Group("/users")
	{
		users.POST("", h.Register)
		users.GET("", optional, h.ListUsers)
		users.GET("/me", auth, h.Me)
		users.PATCH("/me", auth, h.UpdateMe)
		users.PUT("/me/avatar", auth, h.SetAvatar)
		users.DELETE("/me/avatar", auth, h.DeleteAvatar)
		users.POST("/set_password", auth, h.SetPassword)
		users.GET("/subscriptions", auth, h.ListSubscriptions)
		users.GET("/:id", optional, h.GetUser)
		users.POST("/:id/subscribe", auth, h.Subscribe)
		users.DELETE("/:id/subscribe", auth, h.Unsubscribe)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newUserResponse(user, false))
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	params := pagination(c, h.pageSize)
	users, total, err := h.userService.ListUsers(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results, err := h.annotateUsers(c, users)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newPageResponse(c, total, params, results))
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	subscribed, err := h.userService.SubscribedAuthorIDs(c.Request.Context(), optionalUserID(c), []uuid.UUID{user.ID})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user, subscribed[user.ID]))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, _ := currentUserID(c)
	user, err := h.userService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user, false))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req types.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, newUserResponse(user, false))
}

func (h *UserHandler) SetAvatar(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req types.SetAvatarRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, err := h.userService.SetAvatar(c.Request.Context(), userID, req.Avatar)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"avatar": url})
}

func (h *UserHandler) DeleteAvatar(c *gin.Context) {
	userID, _ := currentUserID(c)
	if err := h.userService.DeleteAvatar(c.Request.Context(), userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) SetPassword(c *gin.Context) {
	userID, _ := currentUserID(c)

	var req types.SetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.authService.SetPassword(c.Request.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, _ := currentUserID(c)
	authorID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Subscribe(c.Request.Context(), userID, authorID); err != nil {
		respondServiceError(c, err)
		return
	}

	resp, err := h.subscriptionResponse(c, authorID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, _ := currentUserID(c)
	authorID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Unsubscribe(c.Request.Context(), userID, authorID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListSubscriptions(c *gin.Context) {
	userID, _ := currentUserID(c)
	params := pagination(c, h.pageSize)

	recipesLimit := 3
	if v, err := strconv.Atoi(c.Query("recipes_limit")); err == nil && v >= 0 {
		recipesLimit = v
	}

	authors, total, err := h.userService.ListSubscriptions(c.Request.Context(), userID, params.Page, params.Limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	results := make([]SubscriptionResponse, 0, len(authors))
	for i := range authors {
		resp, err := h.buildSubscriptionResponse(c, &authors[i], recipesLimit)
		if err != nil {
			respondServiceError(c, err)
			return
		}
		results = append(results, resp)
	}

	c.JSON(http.StatusOK, newPageResponse(c, total, params, results))
}

func (h *UserHandler) subscriptionResponse(c *gin.Context, authorID uuid.UUID) (SubscriptionResponse, error) {
	recipesLimit := 3
	if v, err := strconv.Atoi(c.Query("recipes_limit")); err == nil && v >= 0 {
		recipesLimit = v
	}

	author, err := h.userService.GetUser(c.Request.Context(), authorID)
	if err != nil {
		return SubscriptionResponse{}, err
	}
	return h.buildSubscriptionResponse(c, author, recipesLimit)
}

func (h *UserHandler) buildSubscriptionResponse(c *gin.Context, author *models.User, recipesLimit int) (SubscriptionResponse, error) {
	recipes, count, err := h.userService.AuthorRecipes(c.Request.Context(), author.ID, recipesLimit)
	if err != nil {
		return SubscriptionResponse{}, err
	}

	shorts := make([]RecipeShortResponse, len(recipes))
	for i := range recipes {
		shorts[i] = newRecipeShortResponse(&recipes[i])
	}

	return SubscriptionResponse{
		UserResponse: newUserResponse(author, true),
		Recipes:      shorts,
		RecipesCount: count,
	}, nil
}

func (h *UserHandler) annotateUsers(c *gin.Context, users []models.User) ([]UserResponse, error) {
	ids := make([]uuid.UUID, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}

	subscribed, err := h.userService.SubscribedAuthorIDs(c.Request.Context(), optionalUserID(c), ids)
	if err != nil {
		return nil, err
	}

	results := make([]UserResponse, len(users))
	for i := range users {
		results[i] = newUserResponse(&users[i], subscribed[users[i].ID])
	}
	return results, nil
}
