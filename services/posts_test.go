package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"reelgram/db"
	"reelgram/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToggleLikeDoubleToggle(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	liker := createTestUser(t, "liker")
	post := createTestPost(t, owner.ID, "hello #world")

	liked, count, err := ps.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	liked, count, err = ps.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)
}

func TestToggleLikeNotifiesOwnerOnce(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	liker := createTestUser(t, "liker")
	post := createTestPost(t, owner.ID, "caption")

	_, _, err := ps.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, db.ORM.Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, owner.ID, notifications[0].UserID)
	assert.Equal(t, models.NotificationLike, notifications[0].Kind)
	assert.Equal(t, liker.ID, notifications[0].ActorID)
	require.NotNil(t, notifications[0].PostID)
	assert.Equal(t, post.ID, *notifications[0].PostID)

	// Анлайк не создает второго уведомления
	_, _, err = ps.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.ORM.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestToggleLikeOwnPostNoNotification(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	post := createTestPost(t, owner.ID, "caption")

	liked, count, err := ps.ToggleLike(ctx, post.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	var notifCount int64
	require.NoError(t, db.ORM.Model(&models.Notification{}).Count(&notifCount).Error)
	assert.Equal(t, int64(0), notifCount)
}

func TestToggleLikeMissingPost(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()
	user := createTestUser(t, "user")

	_, _, err := ps.ToggleLike(context.Background(), 9999, user.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAddCommentOrderAndNotification(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	commenter := createTestUser(t, "commenter")
	post := createTestPost(t, owner.ID, "caption")

	first, err := ps.AddComment(ctx, post.ID, commenter.ID, "first")
	require.NoError(t, err)
	second, err := ps.AddComment(ctx, post.ID, commenter.ID, "second")
	require.NoError(t, err)
	assert.Less(t, first.ID, second.ID)

	loaded, err := ps.GetPost(ctx, post.ID, 0)
	require.NoError(t, err)
	require.Len(t, loaded.Comments, 2)
	assert.Equal(t, "first", loaded.Comments[0].Text)
	assert.Equal(t, "second", loaded.Comments[1].Text)

	var notifications []models.Notification
	require.NoError(t, db.ORM.Where("kind = ?", models.NotificationComment).Find(&notifications).Error)
	assert.Len(t, notifications, 2)
	for _, n := range notifications {
		assert.Equal(t, owner.ID, n.UserID)
	}
}

func TestAddCommentValidation(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	post := createTestPost(t, owner.ID, "caption")

	_, err := ps.AddComment(ctx, post.ID, owner.ID, "   ")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ps.AddComment(ctx, post.ID, owner.ID, strings.Repeat("x", models.MaxCommentLength+1))
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ps.AddComment(ctx, 9999, owner.ID, "text")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAddReplyNotifiesCommentAuthor(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	// A отвечает на комментарий B под своим же постом:
	// уведомление должен получить B, а не владелец поста
	userA := createTestUser(t, "usera")
	userB := createTestUser(t, "userb")
	post := createTestPost(t, userA.ID, "caption")

	comment, err := ps.AddComment(ctx, post.ID, userB.ID, "nice post")
	require.NoError(t, err)

	_, err = ps.AddReply(ctx, post.ID, comment.ID, userA.ID, "thanks")
	require.NoError(t, err)

	var notifications []models.Notification
	require.NoError(t, db.ORM.Where("kind = ?", models.NotificationReply).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, userB.ID, notifications[0].UserID)
	assert.Equal(t, userA.ID, notifications[0].ActorID)
}

func TestAddReplySelfNoNotification(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	post := createTestPost(t, owner.ID, "caption")

	comment, err := ps.AddComment(ctx, post.ID, owner.ID, "my comment")
	require.NoError(t, err)

	_, err = ps.AddReply(ctx, post.ID, comment.ID, owner.ID, "my reply")
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.ORM.Model(&models.Notification{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAddReplyMissingComment(t *testing.T) {
	setupTestDB(t)
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	post := createTestPost(t, owner.ID, "caption")

	_, err := ps.AddReply(context.Background(), post.ID, 9999, owner.ID, "text")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestToggleReplyLikeDoubleToggle(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	post := createTestPost(t, owner.ID, "caption")
	comment, err := ps.AddComment(ctx, post.ID, owner.ID, "comment")
	require.NoError(t, err)
	reply, err := ps.AddReply(ctx, post.ID, comment.ID, owner.ID, "reply")
	require.NoError(t, err)

	liked, count, err := ps.ToggleReplyLike(ctx, reply.ID, owner.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	liked, count, err = ps.ToggleReplyLike(ctx, reply.ID, owner.ID)
	require.NoError(t, err)
	assert.False(t, liked)
	assert.Equal(t, int64(0), count)
}

func TestReplyLikesVisibleInPostViews(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	liker := createTestUser(t, "liker")
	post := createTestPost(t, owner.ID, "caption")

	comment, err := ps.AddComment(ctx, post.ID, owner.ID, "comment")
	require.NoError(t, err)
	reply, err := ps.AddReply(ctx, post.ID, comment.ID, owner.ID, "reply")
	require.NoError(t, err)
	other, err := ps.AddReply(ctx, post.ID, comment.ID, owner.ID, "unliked reply")
	require.NoError(t, err)

	_, _, err = ps.ToggleReplyLike(ctx, reply.ID, liker.ID)
	require.NoError(t, err)
	_, _, err = ps.ToggleReplyLike(ctx, reply.ID, owner.ID)
	require.NoError(t, err)

	loaded, err := ps.GetPost(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Comments, 1)
	require.Len(t, loaded.Comments[0].Replies, 2)

	countsByID := map[int64]int64{}
	for _, r := range loaded.Comments[0].Replies {
		countsByID[r.ID] = r.LikesCount
	}
	assert.Equal(t, int64(2), countsByID[reply.ID])
	assert.Equal(t, int64(0), countsByID[other.ID])

	// Те же счетчики видны и в ленте
	feed, err := ps.GetFeed(ctx, liker.ID, 1, 10)
	require.NoError(t, err)
	require.Len(t, feed.Posts, 1)
	require.Len(t, feed.Posts[0].Comments, 1)
	require.Len(t, feed.Posts[0].Comments[0].Replies, 2)
	for _, r := range feed.Posts[0].Comments[0].Replies {
		if r.ID == reply.ID {
			assert.Equal(t, int64(2), r.LikesCount)
		} else {
			assert.Equal(t, int64(0), r.LikesCount)
		}
	}
}

func TestToggleLikeSucceedsWhenNotificationInsertFails(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	liker := createTestUser(t, "liker")
	post := createTestPost(t, owner.ID, "caption")

	// Ломаем запись уведомлений: лайк уже закоммичен и не должен пострадать
	require.NoError(t, db.ORM.Migrator().DropTable(&models.Notification{}))

	liked, count, err := ps.ToggleLike(ctx, post.ID, liker.ID)
	require.NoError(t, err)
	assert.True(t, liked)
	assert.Equal(t, int64(1), count)

	var likeCount int64
	require.NoError(t, db.ORM.Model(&models.PostLike{}).Where("post_id = ?", post.ID).Count(&likeCount).Error)
	assert.Equal(t, int64(1), likeCount)
}

func TestDeletePostOwnershipAndCascade(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	other := createTestUser(t, "other")
	post := createTestPost(t, owner.ID, "caption")

	comment, err := ps.AddComment(ctx, post.ID, other.ID, "comment")
	require.NoError(t, err)
	_, err = ps.AddReply(ctx, post.ID, comment.ID, owner.ID, "reply")
	require.NoError(t, err)
	_, _, err = ps.ToggleLike(ctx, post.ID, other.ID)
	require.NoError(t, err)

	err = ps.DeletePost(ctx, post.ID, other.ID)
	assert.True(t, errors.Is(err, ErrForbidden))

	require.NoError(t, ps.DeletePost(ctx, post.ID, owner.ID))

	var posts, comments, replies, likes int64
	db.ORM.Model(&models.Post{}).Count(&posts)
	db.ORM.Model(&models.Comment{}).Count(&comments)
	db.ORM.Model(&models.Reply{}).Count(&replies)
	db.ORM.Model(&models.PostLike{}).Count(&likes)
	assert.Equal(t, int64(0), posts)
	assert.Equal(t, int64(0), comments)
	assert.Equal(t, int64(0), replies)
	assert.Equal(t, int64(0), likes)

	// Уведомления не каскадируются - остаются со ссылкой на удаленный пост
	var notifCount int64
	db.ORM.Model(&models.Notification{}).Count(&notifCount)
	assert.Greater(t, notifCount, int64(0))

	err = ps.DeletePost(ctx, post.ID, owner.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestGetFeedPaginationAndOrder(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()

	owner := createTestUser(t, "owner")
	for i := 0; i < 25; i++ {
		createTestPost(t, owner.ID, "caption")
	}

	feed, err := ps.GetFeed(ctx, owner.ID, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, feed.CurrentPage)
	assert.Equal(t, 3, feed.TotalPages)
	assert.Equal(t, int64(25), feed.TotalPosts)
	require.Len(t, feed.Posts, 10)

	// Новые первыми, тай-брейк по id
	for i := 1; i < len(feed.Posts); i++ {
		prev, cur := feed.Posts[i-1], feed.Posts[i]
		if prev.CreatedAt.Equal(cur.CreatedAt) {
			assert.Greater(t, prev.ID, cur.ID)
		} else {
			assert.True(t, prev.CreatedAt.After(cur.CreatedAt))
		}
	}

	lastPage, err := ps.GetFeed(ctx, owner.ID, 3, 10)
	require.NoError(t, err)
	assert.Len(t, lastPage.Posts, 5)
}

func TestCreatePostValidation(t *testing.T) {
	setupTestDB(t)
	ctx := context.Background()
	ps := NewPostService()
	owner := createTestUser(t, "owner")

	_, err := ps.CreatePost(ctx, owner.ID, "", models.MediaImage, "caption")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ps.CreatePost(ctx, owner.ID, "/tmp/whatever", "gif", "caption")
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = ps.CreatePost(ctx, owner.ID, "/tmp/whatever", models.MediaImage, strings.Repeat("x", models.MaxCaptionLength+1))
	assert.True(t, errors.Is(err, ErrValidation))
}
