package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"reelgram/db"
	"reelgram/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const storyCleanupInterval = time.Hour

type StoryService struct {
	follows *FollowService
}

func NewStoryService() *StoryService {
	return &StoryService{follows: NewFollowService()}
}

// CreateStory загружает медиа и создает историю с жестким TTL 24 часа
func (ss *StoryService) CreateStory(ctx context.Context, userID int64, stagedPath string, kind models.MediaKind) (*models.Story, error) {
	if stagedPath == "" {
		return nil, ValidationError("please upload a file")
	}
	if kind == "" {
		kind = models.MediaImage
	}
	if kind != models.MediaImage && kind != models.MediaVideo {
		return nil, ValidationError("invalid media kind %q", kind)
	}

	if BlobStoreInstance == nil {
		return nil, InternalError(fmt.Errorf("blob store is not configured"))
	}
	mediaURL, err := BlobStoreInstance.Upload(ctx, stagedPath, kind)
	if err != nil {
		return nil, UploadError(err)
	}

	now := time.Now()
	story := &models.Story{
		UserID:    userID,
		MediaURL:  mediaURL,
		MediaKind: kind,
		CreatedAt: now,
		ExpiresAt: now.Add(models.StoryTTL),
	}
	if err := db.GetWriteDB(ctx).Create(story).Error; err != nil {
		return nil, InternalError(fmt.Errorf("failed to create story: %w", err))
	}

	var owner models.User
	if err := db.GetReadOnlyDB(ctx).First(&owner, userID).Error; err == nil {
		story.User = &owner
	}
	return story, nil
}

// StoriesFeed возвращает живые истории своих подписок и собственные,
// сгруппированные по автору, новые первыми внутри группы.
// Просроченные истории отфильтрованы по expires_at - для читателя их нет,
// даже если воркер очистки еще не дошел до строк.
func (ss *StoryService) StoriesFeed(ctx context.Context, userID int64) ([]models.StoryGroup, error) {
	followeeIDs, err := ss.follows.Following(ctx, userID)
	if err != nil {
		return nil, err
	}
	ownerIDs := append(followeeIDs, userID)

	var stories []models.Story
	err = db.GetReadOnlyDB(ctx).
		Preload("User").
		Where("user_id IN ? AND expires_at > ?", ownerIDs, time.Now()).
		Order("created_at DESC, id DESC").
		Find(&stories).Error
	if err != nil {
		return nil, InternalError(err)
	}

	groupIndex := make(map[int64]int)
	groups := make([]models.StoryGroup, 0)
	for _, story := range stories {
		idx, ok := groupIndex[story.UserID]
		if !ok {
			group := models.StoryGroup{Stories: []models.Story{}}
			if story.User != nil {
				group.User = story.User.Summary()
			} else {
				group.User = models.UserSummary{ID: story.UserID}
			}
			groups = append(groups, group)
			idx = len(groups) - 1
			groupIndex[story.UserID] = idx
		}
		story.User = nil
		groups[idx].Stories = append(groups[idx].Stories, story)
	}
	return groups, nil
}

// MarkViewed отмечает просмотр истории. Повторный просмотр - no-op
// по уникальному индексу (story_id, user_id).
func (ss *StoryService) MarkViewed(ctx context.Context, storyID, viewerID int64) error {
	var story models.Story
	err := db.GetWriteDB(ctx).
		Where("id = ? AND expires_at > ?", storyID, time.Now()).
		First(&story).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError("story %d not found", storyID)
	}
	if err != nil {
		return InternalError(err)
	}

	err = db.GetWriteDB(ctx).Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.StoryView{StoryID: storyID, UserID: viewerID, ViewedAt: time.Now()}).Error
	if err != nil {
		return InternalError(err)
	}
	return nil
}

// Viewers возвращает зрителей истории (доступно только владельцу)
func (ss *StoryService) Viewers(ctx context.Context, storyID, requesterID int64) ([]models.UserSummary, error) {
	var story models.Story
	err := db.GetReadOnlyDB(ctx).First(&story, storyID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("story %d not found", storyID)
	}
	if err != nil {
		return nil, InternalError(err)
	}
	if story.UserID != requesterID {
		return nil, ForbiddenError("story %d does not belong to user %d", storyID, requesterID)
	}

	var viewers []models.User
	err = db.GetReadOnlyDB(ctx).
		Joins("JOIN story_views sv ON sv.user_id = users.id").
		Where("sv.story_id = ?", storyID).
		Order("sv.viewed_at ASC").
		Find(&viewers).Error
	if err != nil {
		return nil, InternalError(err)
	}

	summaries := make([]models.UserSummary, 0, len(viewers))
	for i := range viewers {
		summaries = append(summaries, viewers[i].Summary())
	}
	return summaries, nil
}

// CleanupExpired физически удаляет просроченные истории и их просмотры
func (ss *StoryService) CleanupExpired(ctx context.Context) (int64, error) {
	var expiredIDs []int64
	err := db.GetWriteDB(ctx).
		Model(&models.Story{}).
		Where("expires_at <= ?", time.Now()).
		Pluck("id", &expiredIDs).Error
	if err != nil {
		return 0, err
	}
	if len(expiredIDs) == 0 {
		return 0, nil
	}

	err = db.GetWriteDB(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("story_id IN ?", expiredIDs).Delete(&models.StoryView{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", expiredIDs).Delete(&models.Story{}).Error
	})
	if err != nil {
		return 0, err
	}
	return int64(len(expiredIDs)), nil
}

// StartCleanupWorker запускает периодическую чистку просроченных историй
func (ss *StoryService) StartCleanupWorker(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(storyCleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := ss.CleanupExpired(ctx)
				if err != nil {
					log.Printf("Story cleanup failed: %v", err)
					continue
				}
				if removed > 0 {
					log.Printf("Story cleanup removed %d expired stories", removed)
				}
			}
		}
	}()
}
