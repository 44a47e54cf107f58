package services

import (
	"context"
	"errors"
	"testing"

	"reelgram/db"
	"reelgram/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowSymmetry(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	fs := NewFollowService()

	userA := createTestUser(t, "alice")
	userB := createTestUser(t, "bob")

	require.NoError(t, fs.Follow(ctx, userA.ID, userB.ID))

	following, err := fs.Following(ctx, userA.ID)
	require.NoError(t, err)
	assert.Contains(t, following, userB.ID)

	followers, err := fs.Followers(ctx, userB.ID)
	require.NoError(t, err)
	assert.Contains(t, followers, userA.ID)

	require.NoError(t, fs.Unfollow(ctx, userA.ID, userB.ID))

	following, err = fs.Following(ctx, userA.ID)
	require.NoError(t, err)
	assert.NotContains(t, following, userB.ID)

	followers, err = fs.Followers(ctx, userB.ID)
	require.NoError(t, err)
	assert.NotContains(t, followers, userA.ID)
}

func TestFollowDuplicate(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	fs := NewFollowService()

	userA := createTestUser(t, "alice")
	userB := createTestUser(t, "bob")

	require.NoError(t, fs.Follow(ctx, userA.ID, userB.ID))

	err := fs.Follow(ctx, userA.ID, userB.ID)
	assert.True(t, errors.Is(err, ErrConflict))

	// Состояние не изменилось после неудачного вызова
	var edges int64
	db.ORM.Model(&models.Follow{}).Count(&edges)
	assert.Equal(t, int64(1), edges)

	var notifications int64
	db.ORM.Model(&models.Notification{}).Count(&notifications)
	assert.Equal(t, int64(1), notifications)
}

func TestFollowSelf(t *testing.T) {
	setupTestDB(t)
	fs := NewFollowService()
	user := createTestUser(t, "alice")

	err := fs.Follow(context.Background(), user.ID, user.ID)
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestFollowMissingTarget(t *testing.T) {
	setupTestDB(t)
	fs := NewFollowService()
	user := createTestUser(t, "alice")

	err := fs.Follow(context.Background(), user.ID, 9999)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFollowNotification(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	fs := NewFollowService()

	userA := createTestUser(t, "alice")
	userB := createTestUser(t, "bob")

	require.NoError(t, fs.Follow(ctx, userA.ID, userB.ID))

	var notifications []models.Notification
	require.NoError(t, db.ORM.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, userB.ID, notifications[0].UserID)
	assert.Equal(t, models.NotificationFollow, notifications[0].Kind)
	assert.Equal(t, userA.ID, notifications[0].ActorID)
	assert.Nil(t, notifications[0].PostID)
}

func TestFollowSucceedsWhenNotificationInsertFails(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	fs := NewFollowService()

	userA := createTestUser(t, "alice")
	userB := createTestUser(t, "bob")

	// Ломаем запись уведомлений: ребро уже вставлено и не должно откатиться
	require.NoError(t, db.ORM.Migrator().DropTable(&models.Notification{}))

	require.NoError(t, fs.Follow(ctx, userA.ID, userB.ID))

	following, err := fs.IsFollowing(ctx, userA.ID, userB.ID)
	require.NoError(t, err)
	assert.True(t, following)
}

func TestUnfollowNotFollowing(t *testing.T) {
	setupTestDB(t)
	fs := NewFollowService()

	userA := createTestUser(t, "alice")
	userB := createTestUser(t, "bob")

	err := fs.Unfollow(context.Background(), userA.ID, userB.ID)
	assert.True(t, errors.Is(err, ErrConflict))
}

func TestSearchUsers(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	fs := NewFollowService()

	createTestUser(t, "alice")
	createTestUser(t, "alicia")
	createTestUser(t, "bob")

	results, err := fs.SearchUsers(ctx, "ALI")
	require.NoError(t, err)
	assert.Len(t, results, 2)

	// Поиск и по email
	results, err = fs.SearchUsers(ctx, "bob@example")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "bob", results[0].Username)

	_, err = fs.SearchUsers(ctx, "  ")
	assert.True(t, errors.Is(err, ErrValidation))
}

func TestSearchUsersCapped(t *testing.T) {
	setupTestDB(t)
	fs := NewFollowService()

	for i := 0; i < 25; i++ {
		createTestUser(t, "searchuser"+string(rune('a'+i)))
	}

	results, err := fs.SearchUsers(context.Background(), "searchuser")
	require.NoError(t, err)
	assert.Len(t, results, UserSearchLimit)
}
