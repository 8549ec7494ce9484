package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/testhelpers"
)

// Base64 for a short placeholder payload; the decoder only cares about
// the data-URI framing, not the pixels.
const testImage = "data:image/png;base64,aW1hZ2VieXRlcw=="

// memoryMediaStore keeps uploads in a map so tests never touch disk.
type memoryMediaStore struct {
	saved map[string][]byte
}

func newMemoryMediaStore() *memoryMediaStore {
	return &memoryMediaStore{saved: make(map[string][]byte)}
}

func (m *memoryMediaStore) Save(_ context.Context, key, _ string, data []byte) (string, error) {
	m.saved[key] = data
	return "http://localhost/media/" + key, nil
}

func createTestUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		FirstName:    "Test",
		LastName:     "User",
		PasswordHash: "not-a-real-hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestIngredient(t *testing.T, db *gorm.DB, name, unit string) *models.Ingredient {
	t.Helper()
	ingredient := &models.Ingredient{Name: name, MeasurementUnit: unit}
	require.NoError(t, db.Create(ingredient).Error)
	return ingredient
}

func createTestTag(t *testing.T, db *gorm.DB, name, slug string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Name: name, Slug: slug}
	require.NoError(t, db.Create(tag).Error)
	return tag
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	return testhelpers.OpenTestDatabase(t)
}
