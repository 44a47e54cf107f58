package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"reelgram/db"
	"reelgram/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostService struct {
	notifications *NotificationService
}

func NewPostService() *PostService {
	return &PostService{
		notifications: NewNotificationService(),
	}
}

// CreatePost загружает медиа во внешнее хранилище и создает пост.
// stagedPath - локально принятый файл; убирает его вызывающая сторона
// на любом исходе, включая ошибку загрузки.
func (ps *PostService) CreatePost(ctx context.Context, userID int64, stagedPath string, kind models.MediaKind, caption string) (*models.Post, error) {
	if stagedPath == "" {
		return nil, ValidationError("please upload a file")
	}
	if kind != models.MediaImage && kind != models.MediaVideo {
		return nil, ValidationError("invalid file type %q", kind)
	}
	if len(caption) > models.MaxCaptionLength {
		return nil, ValidationError("caption cannot exceed %d characters", models.MaxCaptionLength)
	}

	if BlobStoreInstance == nil {
		return nil, InternalError(fmt.Errorf("blob store is not configured"))
	}
	mediaURL, err := BlobStoreInstance.Upload(ctx, stagedPath, kind)
	if err != nil {
		return nil, UploadError(err)
	}

	post := &models.Post{
		UserID:    userID,
		Caption:   caption,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if kind == models.MediaVideo {
		post.VideoURL = mediaURL
	} else {
		post.ImageURL = mediaURL
	}

	if err := db.GetWriteDB(ctx).Create(post).Error; err != nil {
		return nil, InternalError(fmt.Errorf("failed to create post: %w", err))
	}

	var author models.User
	if err := db.GetReadOnlyDB(ctx).First(&author, userID).Error; err == nil {
		post.User = &author
	}
	post.Comments = []models.Comment{}
	return post, nil
}

// GetPost возвращает пост с комментариями, ответами и счетчиком лайков
func (ps *PostService) GetPost(ctx context.Context, postID, viewerID int64) (*models.Post, error) {
	var post models.Post
	err := db.GetReadOnlyDB(ctx).
		Preload("User").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("comments.id ASC") }).
		Preload("Comments.User").
		Preload("Comments.Replies", func(tx *gorm.DB) *gorm.DB { return tx.Order("replies.id ASC") }).
		Preload("Comments.Replies.User").
		First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("post %d not found", postID)
	}
	if err != nil {
		return nil, InternalError(err)
	}
	if err := ps.attachLikes(ctx, []*models.Post{&post}, viewerID); err != nil {
		return nil, InternalError(err)
	}
	return &post, nil
}

// GetFeed возвращает страницу общей ленты, новые посты первыми.
// Тай-брейк по id: на одной миллисекунде порядок все равно детерминирован.
func (ps *PostService) GetFeed(ctx context.Context, viewerID int64, page, limit int) (*models.FeedResponse, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	var total int64
	if err := db.GetReadOnlyDB(ctx).Model(&models.Post{}).Count(&total).Error; err != nil {
		return nil, InternalError(err)
	}

	var posts []models.Post
	err := db.GetReadOnlyDB(ctx).
		Preload("User").
		Preload("Comments", func(tx *gorm.DB) *gorm.DB { return tx.Order("comments.id ASC") }).
		Preload("Comments.User").
		Preload("Comments.Replies", func(tx *gorm.DB) *gorm.DB { return tx.Order("replies.id ASC") }).
		Preload("Comments.Replies.User").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&posts).Error
	if err != nil {
		return nil, InternalError(err)
	}

	postPtrs := make([]*models.Post, len(posts))
	for i := range posts {
		postPtrs[i] = &posts[i]
	}
	if err := ps.attachLikes(ctx, postPtrs, viewerID); err != nil {
		return nil, InternalError(err)
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.FeedResponse{
		Posts:       posts,
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalPosts:  total,
	}, nil
}

// attachLikes проставляет производные поля LikesCount/Liked постов и
// счетчики лайков их ответов пачкой
func (ps *PostService) attachLikes(ctx context.Context, posts []*models.Post, viewerID int64) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int64, len(posts))
	byID := make(map[int64]*models.Post, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		byID[p.ID] = p
	}

	var counts []struct {
		PostID int64
		Count  int64
	}
	err := db.GetReadOnlyDB(ctx).
		Model(&models.PostLike{}).
		Select("post_id, COUNT(*) as count").
		Where("post_id IN ?", ids).
		Group("post_id").
		Scan(&counts).Error
	if err != nil {
		return err
	}
	for _, c := range counts {
		byID[c.PostID].LikesCount = c.Count
	}

	if viewerID != 0 {
		var likedIDs []int64
		err = db.GetReadOnlyDB(ctx).
			Model(&models.PostLike{}).
			Where("post_id IN ? AND user_id = ?", ids, viewerID).
			Pluck("post_id", &likedIDs).Error
		if err != nil {
			return err
		}
		for _, id := range likedIDs {
			byID[id].Liked = true
		}
	}

	replyByID := make(map[int64]*models.Reply)
	replyIDs := make([]int64, 0)
	for _, p := range posts {
		for ci := range p.Comments {
			for ri := range p.Comments[ci].Replies {
				reply := &p.Comments[ci].Replies[ri]
				replyByID[reply.ID] = reply
				replyIDs = append(replyIDs, reply.ID)
			}
		}
	}
	if len(replyIDs) == 0 {
		return nil
	}

	var replyCounts []struct {
		ReplyID int64
		Count   int64
	}
	err = db.GetReadOnlyDB(ctx).
		Model(&models.ReplyLike{}).
		Select("reply_id, COUNT(*) as count").
		Where("reply_id IN ?", replyIDs).
		Group("reply_id").
		Scan(&replyCounts).Error
	if err != nil {
		return err
	}
	for _, c := range replyCounts {
		replyByID[c.ReplyID].LikesCount = c.Count
	}
	return nil
}

// ToggleLike - идемпотентный флип лайка. Семантика множества обеспечена
// уникальным индексом (post_id, user_id): гонка двух одинаковых тоглов
// не может задвоить строку.
func (ps *PostService) ToggleLike(ctx context.Context, postID, actorID int64) (liked bool, likesCount int64, err error) {
	var post models.Post
	err = db.GetWriteDB(ctx).Select("id", "user_id").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, 0, NotFoundError("post %d not found", postID)
	}
	if err != nil {
		return false, 0, InternalError(err)
	}

	err = db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("post_id = ? AND user_id = ?", postID, actorID).Delete(&models.PostLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}
		liked = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.PostLike{PostID: postID, UserID: actorID, CreatedAt: time.Now()}).Error
	})
	if err != nil {
		return false, 0, InternalError(err)
	}

	err = db.GetWriteDB(ctx).
		Model(&models.PostLike{}).
		Where("post_id = ?", postID).
		Count(&likesCount).Error
	if err != nil {
		return false, 0, InternalError(err)
	}

	// Уведомляем владельца только о лайке и только о чужом. Фанаут
	// best-effort: лайк уже закоммичен, потеря уведомления его не отменяет.
	if liked && post.UserID != actorID {
		if err := ps.notifications.Record(ctx, post.UserID, models.NotificationLike, actorID, &postID); err != nil {
			log.Printf("Failed to record like notification for post %d: %v", postID, err)
		}
	}
	return liked, likesCount, nil
}

// AddComment добавляет комментарий в конец треда поста
func (ps *PostService) AddComment(ctx context.Context, postID, authorID int64, text string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ValidationError("comment text is required")
	}
	if len(text) > models.MaxCommentLength {
		return nil, ValidationError("comment cannot exceed %d characters", models.MaxCommentLength)
	}

	var post models.Post
	err := db.GetWriteDB(ctx).Select("id", "user_id").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("post %d not found", postID)
	}
	if err != nil {
		return nil, InternalError(err)
	}

	comment := &models.Comment{
		PostID:    postID,
		UserID:    authorID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(comment).Error; err != nil {
		return nil, InternalError(fmt.Errorf("failed to create comment: %w", err))
	}
	comment.Replies = []models.Reply{}
	var commentAuthor models.User
	if err := db.GetReadOnlyDB(ctx).First(&commentAuthor, authorID).Error; err == nil {
		comment.User = &commentAuthor
	}

	if post.UserID != authorID {
		if err := ps.notifications.Record(ctx, post.UserID, models.NotificationComment, authorID, &postID); err != nil {
			log.Printf("Failed to record comment notification for post %d: %v", postID, err)
		}
	}
	return comment, nil
}

// AddReply добавляет ответ в конец треда комментария. Уведомление получает
// автор комментария, а не владелец поста.
func (ps *PostService) AddReply(ctx context.Context, postID, commentID, authorID int64, text string) (*models.Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ValidationError("reply text is required")
	}
	if len(text) > models.MaxReplyLength {
		return nil, ValidationError("reply cannot exceed %d characters", models.MaxReplyLength)
	}

	var post models.Post
	err := db.GetWriteDB(ctx).Select("id", "user_id").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("post %d not found", postID)
	}
	if err != nil {
		return nil, InternalError(err)
	}

	var comment models.Comment
	err = db.GetWriteDB(ctx).Where("id = ? AND post_id = ?", commentID, postID).First(&comment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("comment %d not found", commentID)
	}
	if err != nil {
		return nil, InternalError(err)
	}

	reply := &models.Reply{
		CommentID: commentID,
		UserID:    authorID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(reply).Error; err != nil {
		return nil, InternalError(fmt.Errorf("failed to create reply: %w", err))
	}
	var replyAuthor models.User
	if err := db.GetReadOnlyDB(ctx).First(&replyAuthor, authorID).Error; err == nil {
		reply.User = &replyAuthor
	}

	if comment.UserID != authorID {
		if err := ps.notifications.Record(ctx, comment.UserID, models.NotificationReply, authorID, &postID); err != nil {
			log.Printf("Failed to record reply notification for comment %d: %v", commentID, err)
		}
	}
	return reply, nil
}

// ToggleReplyLike - идемпотентный флип лайка ответа, та же механика,
// что у ToggleLike, но без уведомления
func (ps *PostService) ToggleReplyLike(ctx context.Context, replyID, actorID int64) (liked bool, likesCount int64, err error) {
	var reply models.Reply
	err = db.GetWriteDB(ctx).Select("id").First(&reply, replyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, 0, NotFoundError("reply %d not found", replyID)
	}
	if err != nil {
		return false, 0, InternalError(err)
	}

	err = db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("reply_id = ? AND user_id = ?", replyID, actorID).Delete(&models.ReplyLike{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			liked = false
			return nil
		}
		liked = true
		return tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ReplyLike{ReplyID: replyID, UserID: actorID, CreatedAt: time.Now()}).Error
	})
	if err != nil {
		return false, 0, InternalError(err)
	}

	err = db.GetWriteDB(ctx).
		Model(&models.ReplyLike{}).
		Where("reply_id = ?", replyID).
		Count(&likesCount).Error
	if err != nil {
		return false, 0, InternalError(err)
	}
	return liked, likesCount, nil
}

// DeletePost удаляет пост владельца вместе со всем вложенным деревом.
// Уведомления, ссылающиеся на пост, не каскадируются: ссылка резолвится
// как отсутствующий пост.
func (ps *PostService) DeletePost(ctx context.Context, postID, requesterID int64) error {
	var post models.Post
	err := db.GetWriteDB(ctx).First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError("post %d not found", postID)
	}
	if err != nil {
		return InternalError(err)
	}

	if post.UserID != requesterID {
		return ForbiddenError("not authorized to delete post %d", postID)
	}

	err = db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		var commentIDs []int64
		if err := tx.Model(&models.Comment{}).Where("post_id = ?", postID).Pluck("id", &commentIDs).Error; err != nil {
			return err
		}
		if len(commentIDs) > 0 {
			var replyIDs []int64
			if err := tx.Model(&models.Reply{}).Where("comment_id IN ?", commentIDs).Pluck("id", &replyIDs).Error; err != nil {
				return err
			}
			if len(replyIDs) > 0 {
				if err := tx.Where("reply_id IN ?", replyIDs).Delete(&models.ReplyLike{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("comment_id IN ?", commentIDs).Delete(&models.Reply{}).Error; err != nil {
				return err
			}
			if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, postID).Error
	})
	if err != nil {
		return InternalError(fmt.Errorf("failed to delete post: %w", err))
	}
	return nil
}
