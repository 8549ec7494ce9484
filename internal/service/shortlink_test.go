package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateIsStable(t *testing.T) {
	svc := NewShortLinkService(openTestDB(t), nil, "http://localhost:8080/")
	ctx := context.Background()

	first, err := svc.GetOrCreate(ctx, "http://localhost:8080/recipes/abc")
	require.NoError(t, err)

	second, err := svc.GetOrCreate(ctx, "http://localhost:8080/recipes/abc")
	require.NoError(t, err)
	assert.Equal(t, first.Token, second.Token)

	other, err := svc.GetOrCreate(ctx, "http://localhost:8080/recipes/def")
	require.NoError(t, err)
	assert.NotEqual(t, first.Token, other.Token)
}

func TestTokenShape(t *testing.T) {
	svc := NewShortLinkService(openTestDB(t), nil, "http://localhost:8080")

	link, err := svc.GetOrCreate(context.Background(), "http://localhost:8080/recipes/abc")
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(link.Token), tokenMinLength)
	assert.LessOrEqual(t, len(link.Token), tokenMaxLength)
	for _, r := range link.Token {
		assert.True(t, strings.ContainsRune(tokenAlphabet, r), "unexpected character %q", r)
	}
}

func TestResolve(t *testing.T) {
	svc := NewShortLinkService(openTestDB(t), nil, "http://localhost:8080")
	ctx := context.Background()

	link, err := svc.GetOrCreate(ctx, "http://localhost:8080/recipes/abc")
	require.NoError(t, err)

	longURL, err := svc.Resolve(ctx, link.Token)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080/recipes/abc", longURL)

	_, err = svc.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestURLBuilders(t *testing.T) {
	svc := NewShortLinkService(nil, nil, "http://localhost:8080/")

	assert.Equal(t, "http://localhost:8080/s/abc123", svc.ShortURL("abc123"))
	assert.Equal(t, "http://localhost:8080/recipes/xyz", svc.RecipeURL("xyz"))
}
