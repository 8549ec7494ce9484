package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/service"
	"github.com/foodgram/backend/internal/testhelpers"
)

const testImage = "data:image/png;base64,aW1hZ2VieXRlcw=="

type discardMediaStore struct{}

func (discardMediaStore) Save(_ context.Context, key, _ string, _ []byte) (string, error) {
	return "http://localhost/media/" + key, nil
}

// testEnv wires the full handler stack over an in-memory database.
type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.OpenTestDatabase(t)
	media := discardMediaStore{}

	authService := service.NewAuthService(db, "test-secret")
	userService := service.NewUserService(db, media)
	recipeService := service.NewRecipeService(db, media)
	catalogService := service.NewCatalogService(db)
	shoppingService := service.NewShoppingListService(db)
	shortLinkService := service.NewShortLinkService(db, nil, "http://localhost:8080")

	router := gin.New()
	NewShortLinkHandler(shortLinkService).RegisterRoutes(router)

	group := router.Group("/api")
	NewAuthHandler(authService).RegisterRoutes(group)
	NewUserHandler(userService, authService, 6).RegisterRoutes(group)
	NewRecipeHandler(recipeService, userService, shoppingService, shortLinkService, authService, 6).RegisterRoutes(group)
	NewCatalogHandler(catalogService).RegisterRoutes(group)

	return &testEnv{db: db, router: router}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

// registerUser creates an account over HTTP and returns its id and an
// auth token.
func (e *testEnv) registerUser(t *testing.T, username string) (string, string) {
	t.Helper()

	email := username + "@example.com"
	w := e.do(t, http.MethodPost, "/api/users", "", gin.H{
		"email":      email,
		"username":   username,
		"first_name": "Test",
		"last_name":  "User",
		"password":   "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	userID := decodeJSON(t, w)["id"].(string)

	w = e.do(t, http.MethodPost, "/api/auth/token/login", "", gin.H{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decodeJSON(t, w)["auth_token"].(string)

	return userID, token
}

func (e *testEnv) seedCatalog(t *testing.T) (*models.Ingredient, *models.Tag) {
	t.Helper()

	ingredient := &models.Ingredient{Name: "flour", MeasurementUnit: "g"}
	require.NoError(t, e.db.Create(ingredient).Error)
	tag := &models.Tag{Name: "Dinner", Slug: "dinner"}
	require.NoError(t, e.db.Create(tag).Error)
	return ingredient, tag
}

func (e *testEnv) createRecipe(t *testing.T, token string, ingredient *models.Ingredient, tag *models.Tag, name string) string {
	t.Helper()

	w := e.do(t, http.MethodPost, "/api/recipes", token, gin.H{
		"ingredients":  []gin.H{{"id": ingredient.ID.String(), "amount": 100}},
		"tags":         []string{tag.ID.String()},
		"image":        testImage,
		"name":         name,
		"text":         "Cook it.",
		"cooking_time": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeJSON(t, w)["id"].(string)
}

func pathf(format string, args ...interface{}) string {
	return fmt.Sprintf(format, args...)
}
