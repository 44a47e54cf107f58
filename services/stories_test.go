package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelgram/db"
	"reelgram/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStory(t *testing.T, userID int64, createdAt time.Time) *models.Story {
	t.Helper()
	story := &models.Story{
		UserID:    userID,
		MediaURL:  "/uploads/story.jpg",
		MediaKind: models.MediaImage,
		CreatedAt: createdAt,
		ExpiresAt: createdAt.Add(models.StoryTTL),
	}
	require.NoError(t, db.ORM.Create(story).Error)
	return story
}

func TestStoriesFeedScopedToFollowees(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ss := NewStoryService()
	fs := NewFollowService()

	viewer := createTestUser(t, "viewer")
	followee := createTestUser(t, "followee")
	stranger := createTestUser(t, "stranger")
	require.NoError(t, fs.Follow(ctx, viewer.ID, followee.ID))

	now := time.Now()
	seedStory(t, viewer.ID, now.Add(-time.Minute))
	seedStory(t, followee.ID, now.Add(-2*time.Minute))
	seedStory(t, stranger.ID, now.Add(-3*time.Minute))

	groups, err := ss.StoriesFeed(ctx, viewer.ID)
	require.NoError(t, err)
	require.Len(t, groups, 2, "only own stories and followees' stories appear")

	seen := map[int64]bool{}
	for _, g := range groups {
		seen[g.User.ID] = true
	}
	assert.True(t, seen[viewer.ID])
	assert.True(t, seen[followee.ID])
	assert.False(t, seen[stranger.ID])
}

func TestStoriesFeedHidesExpired(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ss := NewStoryService()

	author := createTestUser(t, "author")

	seedStory(t, author.ID, time.Now().Add(-time.Hour))
	expired := seedStory(t, author.ID, time.Now().Add(-25*time.Hour))

	groups, err := ss.StoriesFeed(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Stories, 1)
	assert.NotEqual(t, expired.ID, groups[0].Stories[0].ID,
		"expired story is invisible even before cleanup")
}

func TestMarkViewedIdempotent(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ss := NewStoryService()

	author := createTestUser(t, "author")
	viewer := createTestUser(t, "viewer")
	story := seedStory(t, author.ID, time.Now())

	require.NoError(t, ss.MarkViewed(ctx, story.ID, viewer.ID))
	require.NoError(t, ss.MarkViewed(ctx, story.ID, viewer.ID))

	var count int64
	db.ORM.Model(&models.StoryView{}).Where("story_id = ?", story.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestMarkViewedExpiredStory(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ss := NewStoryService()

	author := createTestUser(t, "author")
	viewer := createTestUser(t, "viewer")
	expired := seedStory(t, author.ID, time.Now().Add(-25*time.Hour))

	err := ss.MarkViewed(ctx, expired.ID, viewer.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestViewersOwnerOnly(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ss := NewStoryService()

	author := createTestUser(t, "author")
	first := createTestUser(t, "first")
	second := createTestUser(t, "second")
	story := seedStory(t, author.ID, time.Now())

	require.NoError(t, ss.MarkViewed(ctx, story.ID, first.ID))
	require.NoError(t, ss.MarkViewed(ctx, story.ID, second.ID))

	_, err := ss.Viewers(ctx, story.ID, first.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	viewers, err := ss.Viewers(ctx, story.ID, author.ID)
	require.NoError(t, err)
	require.Len(t, viewers, 2)
	assert.Equal(t, first.ID, viewers[0].ID)
	assert.Equal(t, second.ID, viewers[1].ID)
}

func TestCleanupExpired(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ss := NewStoryService()

	author := createTestUser(t, "author")
	viewer := createTestUser(t, "viewer")

	live := seedStory(t, author.ID, time.Now())
	expired := seedStory(t, author.ID, time.Now().Add(-25*time.Hour))
	require.NoError(t, db.ORM.Create(&models.StoryView{
		StoryID: expired.ID, UserID: viewer.ID, ViewedAt: time.Now().Add(-24 * time.Hour),
	}).Error)

	removed, err := ss.CleanupExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var storyCount, viewCount int64
	db.ORM.Model(&models.Story{}).Count(&storyCount)
	db.ORM.Model(&models.StoryView{}).Count(&viewCount)
	assert.Equal(t, int64(1), storyCount)
	assert.Equal(t, int64(0), viewCount)

	var remaining models.Story
	require.NoError(t, db.ORM.First(&remaining).Error)
	assert.Equal(t, live.ID, remaining.ID)
}
