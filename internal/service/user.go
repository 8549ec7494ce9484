package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/foodgram/backend/internal/models"
	"github.com/foodgram/backend/internal/types"
)

var (
	ErrSelfSubscription  = errors.New("cannot subscribe to yourself")
	ErrAlreadySubscribed = errors.New("already subscribed to this author")
	ErrNotSubscribed     = errors.New("not subscribed to this author")
)

// UserService handles profiles, avatars and subscriptions.
type UserService struct {
	db    *gorm.DB
	media MediaStore
}

func NewUserService(db *gorm.DB, media MediaStore) *UserService {
	return &UserService{db: db, media: media}
}

// GetUser retrieves a user by ID
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// ListUsers returns a page of users and the total count.
func (s *UserService) ListUsers(ctx context.Context, page, limit int) ([]models.User, int64, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []models.User
	err := s.db.WithContext(ctx).
		Order("username").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// UpdateProfile patches the editable profile fields.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, err
	}

	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}

	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return &user, nil
}

// SetAvatar decodes a base64 data URI, stores the image and records
// its URL on the user.
func (s *UserService) SetAvatar(ctx context.Context, userID uuid.UUID, dataURI string) (string, error) {
	data, contentType, key, err := DecodeBase64Image("avatars", dataURI)
	if err != nil {
		return "", err
	}

	url, err := s.media.Save(ctx, key, contentType, data)
	if err != nil {
		return "", err
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("avatar", url).Error
	if err != nil {
		return "", err
	}
	return url, nil
}

// DeleteAvatar clears the stored avatar URL.
func (s *UserService) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("avatar", "").Error
}

// Subscribe creates a follows edge to the author. Duplicate inserts
// lose against the unique constraint and report ErrAlreadySubscribed.
func (s *UserService) Subscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	if userID == authorID {
		return ErrSelfSubscription
	}

	if err := s.db.WithContext(ctx).First(&models.User{}, "id = ?", authorID).Error; err != nil {
		return err
	}

	sub := models.Subscription{UserID: userID, AuthorID: authorID}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadySubscribed
		}
		return err
	}
	return nil
}

// Unsubscribe removes the follows edge if present.
func (s *UserService) Unsubscribe(ctx context.Context, userID, authorID uuid.UUID) error {
	res := s.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotSubscribed
	}
	return nil
}

// ListSubscriptions returns a page of followed authors and the total.
func (s *UserService) ListSubscriptions(ctx context.Context, userID uuid.UUID, page, limit int) ([]models.User, int64, error) {
	base := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.author_id = users.id").
		Where("subscriptions.user_id = ?", userID)

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var authors []models.User
	err := base.
		Order("subscriptions.created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&authors).Error
	if err != nil {
		return nil, 0, err
	}
	return authors, total, nil
}

// SubscribedAuthorIDs reports which of the given authors the user
// follows. An empty map is returned for the anonymous user.
func (s *UserService) SubscribedAuthorIDs(ctx context.Context, userID *uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	subscribed := make(map[uuid.UUID]bool)
	if userID == nil || len(authorIDs) == 0 {
		return subscribed, nil
	}

	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("user_id = ? AND author_id IN ?", *userID, authorIDs).
		Pluck("author_id", &ids).Error
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		subscribed[id] = true
	}
	return subscribed, nil
}

// AuthorRecipes returns the author's newest recipes capped at limit,
// with the author's total recipe count.
func (s *UserService) AuthorRecipes(ctx context.Context, authorID uuid.UUID, limit int) ([]models.Recipe, int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Model(&models.Recipe{}).
		Where("author_id = ?", authorID).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	var recipes []models.Recipe
	query := s.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&recipes).Error; err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}
