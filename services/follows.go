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
)

const UserSearchLimit = 20

type FollowService struct {
	notifications *NotificationService
}

func NewFollowService() *FollowService {
	return &FollowService{
		notifications: NewNotificationService(),
	}
}

// Follow подписывает actor на target. Ребро графа - одна строка, поэтому
// "обе стороны" связи обновляются атомарно по построению. Уведомление
// пишется после вставки ребра, best-effort: его потеря подписку не отменяет.
func (fs *FollowService) Follow(ctx context.Context, actorID, targetID int64) error {
	if actorID == targetID {
		return ValidationError("cannot follow yourself")
	}

	var target models.User
	err := db.GetWriteDB(ctx).First(&target, targetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError("user %d not found", targetID)
	}
	if err != nil {
		return InternalError(err)
	}

	var existing int64
	err = db.GetWriteDB(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", actorID, targetID).
		Count(&existing).Error
	if err != nil {
		return InternalError(err)
	}
	if existing > 0 {
		return ConflictError("already following this user")
	}

	err = db.GetWriteDB(ctx).Create(&models.Follow{
		FollowerID: actorID,
		FolloweeID: targetID,
		CreatedAt:  time.Now(),
	}).Error
	if err != nil {
		return InternalError(fmt.Errorf("failed to create follow edge: %w", err))
	}

	if err := fs.notifications.Record(ctx, targetID, models.NotificationFollow, actorID, nil); err != nil {
		log.Printf("Failed to record follow notification for user %d: %v", targetID, err)
	}
	return nil
}

// Unfollow снимает подписку actor с target
func (fs *FollowService) Unfollow(ctx context.Context, actorID, targetID int64) error {
	var target models.User
	err := db.GetWriteDB(ctx).First(&target, targetID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError("user %d not found", targetID)
	}
	if err != nil {
		return InternalError(err)
	}

	res := db.GetWriteDB(ctx).
		Where("follower_id = ? AND followee_id = ?", actorID, targetID).
		Delete(&models.Follow{})
	if res.Error != nil {
		return InternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ConflictError("not following this user")
	}
	return nil
}

// IsFollowing проверяет наличие ребра actor -> target
func (fs *FollowService) IsFollowing(ctx context.Context, actorID, targetID int64) (bool, error) {
	var count int64
	err := db.GetReadOnlyDB(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", actorID, targetID).
		Count(&count).Error
	if err != nil {
		return false, InternalError(err)
	}
	return count > 0, nil
}

// Following возвращает идентификаторы тех, на кого подписан пользователь
func (fs *FollowService) Following(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := db.GetReadOnlyDB(ctx).
		Model(&models.Follow{}).
		Where("follower_id = ?", userID).
		Pluck("followee_id", &ids).Error
	if err != nil {
		return nil, InternalError(err)
	}
	return ids, nil
}

// Followers возвращает идентификаторы подписчиков пользователя
func (fs *FollowService) Followers(ctx context.Context, userID int64) ([]int64, error) {
	var ids []int64
	err := db.GetReadOnlyDB(ctx).
		Model(&models.Follow{}).
		Where("followee_id = ?", userID).
		Pluck("follower_id", &ids).Error
	if err != nil {
		return nil, InternalError(err)
	}
	return ids, nil
}

// SearchUsers ищет пользователей по подстроке username/email без учета
// регистра, не больше 20 результатов
func (fs *FollowService) SearchUsers(ctx context.Context, query string) ([]models.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ValidationError("search query is required")
	}

	pattern := "%" + strings.ToLower(query) + "%"
	var users []models.User
	err := db.GetReadOnlyDB(ctx).
		Where("LOWER(username) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern).
		Order("username ASC").
		Limit(UserSearchLimit).
		Find(&users).Error
	if err != nil {
		return nil, InternalError(err)
	}

	summaries := make([]models.UserSummary, 0, len(users))
	for i := range users {
		summaries = append(summaries, users[i].Summary())
	}
	return summaries, nil
}
