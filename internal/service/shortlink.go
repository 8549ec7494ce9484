package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
)

const (
	tokenAlphabet    = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenMinLength   = 6
	tokenMaxLength   = 8
	tokenAttempts    = 5
	resolverCacheTTL = 24 * time.Hour
)

var (
	ErrLinkNotFound   = errors.New("short link not found")
	ErrTokenExhausted = errors.New("could not generate a unique short token")
)

// ShortLinkService maps destination URLs to compact tokens. Tokens are
// created lazily on the first request for a URL and never change. An
// optional Redis cache fronts token resolution.
type ShortLinkService struct {
	db      *gorm.DB
	cache   *redis.Client
	baseURL string
}

func NewShortLinkService(db *gorm.DB, cache *redis.Client, baseURL string) *ShortLinkService {
	return &ShortLinkService{
		db:      db,
		cache:   cache,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// GetOrCreate returns the short link for the URL, generating and
// persisting a token on first use. Token collisions lose against the
// unique constraint and are retried with a fresh token.
func (s *ShortLinkService) GetOrCreate(ctx context.Context, longURL string) (*models.ShortLink, error) {
	var link models.ShortLink
	err := s.db.WithContext(ctx).Where("long_url = ?", longURL).First(&link).Error
	if err == nil {
		return &link, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	for attempt := 0; attempt < tokenAttempts; attempt++ {
		link = models.ShortLink{LongURL: longURL, Token: randomToken()}
		err := s.db.WithContext(ctx).Create(&link).Error
		if err == nil {
			return &link, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}

		// A concurrent request may have created the link for this URL;
		// otherwise the token itself collided and we try again.
		var existing models.ShortLink
		lookupErr := s.db.WithContext(ctx).Where("long_url = ?", longURL).First(&existing).Error
		if lookupErr == nil {
			return &existing, nil
		}
		if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return nil, lookupErr
		}
	}
	return nil, ErrTokenExhausted
}

// Resolve maps a token back to its destination URL.
func (s *ShortLinkService) Resolve(ctx context.Context, token string) (string, error) {
	cacheKey := "shortlink:" + token
	if s.cache != nil {
		if url, err := s.cache.Get(ctx, cacheKey).Result(); err == nil {
			return url, nil
		}
	}

	var link models.ShortLink
	err := s.db.WithContext(ctx).Where("token = ?", token).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrLinkNotFound
		}
		return "", err
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, link.LongURL, resolverCacheTTL)
	}
	return link.LongURL, nil
}

// ShortURL builds the public URL for a token.
func (s *ShortLinkService) ShortURL(token string) string {
	return fmt.Sprintf("%s/s/%s", s.baseURL, token)
}

// RecipeURL builds the canonical destination URL for a recipe.
func (s *ShortLinkService) RecipeURL(recipeID string) string {
	return fmt.Sprintf("%s/recipes/%s", s.baseURL, recipeID)
}

func randomToken() string {
	length := tokenMinLength + rand.IntN(tokenMaxLength-tokenMinLength+1)
	b := make([]byte, length)
	for i := range b {
		b[i] = tokenAlphabet[rand.IntN(len(tokenAlphabet))]
	}
	return string(b)
}
