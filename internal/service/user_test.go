package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/foodgram/backend/internal/testutil/mocks"
)

func TestSubscribeToSelf(t *testing.T) {
	db := openTestDB(t)
	svc := NewUserService(db, newMemoryMediaStore())
	user := createTestUser(t, db, "narcissus")

	err := svc.Subscribe(context.Background(), user.ID, user.ID)
	assert.ErrorIs(t, err, ErrSelfSubscription)
}

func TestSubscribeDuplicate(t *testing.T) {
	db := openTestDB(t)
	svc := NewUserService(db, newMemoryMediaStore())
	ctx := context.Background()

	follower := createTestUser(t, db, "follower")
	author := createTestUser(t, db, "author")

	require.NoError(t, svc.Subscribe(ctx, follower.ID, author.ID))

	err := svc.Subscribe(ctx, follower.ID, author.ID)
	assert.ErrorIs(t, err, ErrAlreadySubscribed)
}

func TestUnsubscribeWithoutSubscription(t *testing.T) {
	db := openTestDB(t)
	svc := NewUserService(db, newMemoryMediaStore())

	follower := createTestUser(t, db, "follower")
	author := createTestUser(t, db, "author")

	err := svc.Unsubscribe(context.Background(), follower.ID, author.ID)
	assert.ErrorIs(t, err, ErrNotSubscribed)
}

func TestListSubscriptions(t *testing.T) {
	db := openTestDB(t)
	svc := NewUserService(db, newMemoryMediaStore())
	ctx := context.Background()

	follower := createTestUser(t, db, "follower")
	first := createTestUser(t, db, "first")
	second := createTestUser(t, db, "second")
	createTestUser(t, db, "stranger")

	require.NoError(t, svc.Subscribe(ctx, follower.ID, first.ID))
	require.NoError(t, svc.Subscribe(ctx, follower.ID, second.ID))

	authors, total, err := svc.ListSubscriptions(ctx, follower.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.Len(t, authors, 2)
}

func TestSubscribedAuthorIDs(t *testing.T) {
	db := openTestDB(t)
	svc := NewUserService(db, newMemoryMediaStore())
	ctx := context.Background()

	follower := createTestUser(t, db, "follower")
	followed := createTestUser(t, db, "followed")
	other := createTestUser(t, db, "other")

	require.NoError(t, svc.Subscribe(ctx, follower.ID, followed.ID))

	ids := []uuid.UUID{followed.ID, other.ID}

	subscribed, err := svc.SubscribedAuthorIDs(ctx, &follower.ID, ids)
	require.NoError(t, err)
	assert.True(t, subscribed[followed.ID])
	assert.False(t, subscribed[other.ID])

	// Anonymous requester follows nobody.
	anonymous, err := svc.SubscribedAuthorIDs(ctx, nil, ids)
	require.NoError(t, err)
	assert.Empty(t, anonymous)
}

func TestSetAndDeleteAvatar(t *testing.T) {
	db := openTestDB(t)
	media := newMemoryMediaStore()
	svc := NewUserService(db, media)
	ctx := context.Background()

	user := createTestUser(t, db, "avatars")

	url, err := svc.SetAvatar(ctx, user.ID, testImage)
	require.NoError(t, err)
	assert.Contains(t, url, "/media/avatars/")
	assert.Len(t, media.saved, 1)

	fetched, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, url, fetched.Avatar)

	require.NoError(t, svc.DeleteAvatar(ctx, user.ID))
	fetched, err = svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "", fetched.Avatar)
}

func TestSetAvatarStorageFailure(t *testing.T) {
	db := openTestDB(t)
	media := new(mocks.MockMediaStore)
	media.On("Save", mock.Anything, mock.Anything, "image/png", mock.Anything).
		Return("", errors.New("bucket unavailable"))
	svc := NewUserService(db, media)
	user := createTestUser(t, db, "unlucky")

	_, err := svc.SetAvatar(context.Background(), user.ID, testImage)
	assert.Error(t, err)
	media.AssertExpectations(t)
}

func TestSetAvatarRejectsBadPayload(t *testing.T) {
	db := openTestDB(t)
	svc := NewUserService(db, newMemoryMediaStore())
	user := createTestUser(t, db, "badavatar")

	_, err := svc.SetAvatar(context.Background(), user.ID, "not-a-data-uri")
	assert.ErrorIs(t, err, ErrInvalidImage)
}
