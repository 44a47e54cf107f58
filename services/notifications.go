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
)

const NotificationListLimit = 50

// NotificationService - фанаут уведомлений. Записи создаются только как
// побочный эффект чужого действия; правило "свое действие не уведомляет"
// закреплено здесь, в одной точке, а продюсеры обязаны не звать Record
// для самих себя.
type NotificationService struct {
	counters *UnreadCounterCache
}

func NewNotificationService() *NotificationService {
	return &NotificationService{
		counters: NewUnreadCounterCache(RedisClient),
	}
}

// Record создает уведомление для получателя. Вызов с actor == recipient -
// защитный no-op. Поверх записи в БД сдвигается счетчик непрочитанных и
// публикуется live-событие (через RabbitMQ, с прямым WS-фолбэком).
func (ns *NotificationService) Record(ctx context.Context, recipientID int64, kind models.NotificationKind, actorID int64, postID *int64) error {
	if recipientID == actorID {
		return nil
	}

	notification := &models.Notification{
		UserID:    recipientID,
		Kind:      kind,
		ActorID:   actorID,
		PostID:    postID,
		CreatedAt: time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(notification).Error; err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	notificationsRecordedTotal.WithLabelValues(string(kind)).Inc()

	ns.counters.Incr(ctx, recipientID)

	view, err := ns.resolveView(ctx, notification)
	if err != nil {
		log.Printf("Failed to resolve notification %d for live push: %v", notification.ID, err)
		return nil
	}

	event := NotificationEvent{UserID: recipientID, View: *view}
	if err := PublishNotificationEvent(ctx, event); err != nil {
		// Брокер недоступен - пушим напрямую через WebSocket
		notificationFanoutFallbacks.Inc()
		GlobalRelay.PushNotification(recipientID, *view)
	}
	return nil
}

// List возвращает уведомления получателя, новые первыми, не больше 50,
// каждое с карточкой актора и ссылкой на пост (если он еще существует)
func (ns *NotificationService) List(ctx context.Context, userID int64) ([]models.NotificationView, error) {
	var notifications []models.Notification
	err := db.GetReadOnlyDB(ctx).
		Preload("Actor").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(NotificationListLimit).
		Find(&notifications).Error
	if err != nil {
		return nil, InternalError(err)
	}

	views := make([]models.NotificationView, 0, len(notifications))
	for i := range notifications {
		view, err := ns.resolveView(ctx, &notifications[i])
		if err != nil {
			return nil, InternalError(err)
		}
		views = append(views, *view)
	}
	return views, nil
}

// resolveView собирает представление уведомления. Удаленный пост не ошибка:
// уведомления о нем остаются, ссылка резолвится как отсутствующая.
func (ns *NotificationService) resolveView(ctx context.Context, n *models.Notification) (*models.NotificationView, error) {
	view := &models.NotificationView{
		ID:        n.ID,
		Kind:      n.Kind,
		IsRead:    n.IsRead,
		CreatedAt: n.CreatedAt,
	}

	if n.Actor != nil {
		view.Actor = n.Actor.Summary()
	} else {
		var actor models.User
		if err := db.GetReadOnlyDB(ctx).First(&actor, n.ActorID).Error; err == nil {
			view.Actor = actor.Summary()
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if n.PostID != nil {
		var post models.Post
		err := db.GetReadOnlyDB(ctx).Select("id", "image_url", "video_url").First(&post, *n.PostID).Error
		if err == nil {
			view.Post = &models.PostRef{ID: post.ID, ImageURL: post.ImageURL, VideoURL: post.VideoURL}
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	return view, nil
}

// MarkRead помечает уведомление прочитанным. Чужое уведомление трогать нельзя.
func (ns *NotificationService) MarkRead(ctx context.Context, notificationID, requesterID int64) (*models.Notification, error) {
	var notification models.Notification
	err := db.GetWriteDB(ctx).First(&notification, notificationID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("notification %d not found", notificationID)
	}
	if err != nil {
		return nil, InternalError(err)
	}

	if notification.UserID != requesterID {
		return nil, ForbiddenError("notification %d does not belong to user %d", notificationID, requesterID)
	}

	if !notification.IsRead {
		notification.IsRead = true
		if err := db.GetWriteDB(ctx).Model(&notification).Update("is_read", true).Error; err != nil {
			return nil, InternalError(err)
		}
		ns.counters.Decr(ctx, requesterID)
	}
	return &notification, nil
}

// MarkAllRead помечает прочитанными все непрочитанные уведомления пользователя
func (ns *NotificationService) MarkAllRead(ctx context.Context, userID int64) error {
	err := db.GetWriteDB(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
	if err != nil {
		return InternalError(err)
	}
	ns.counters.Reset(ctx, userID)
	return nil
}

// UnreadCount возвращает число непрочитанных. Опрашивается клиентами часто,
// поэтому идет через Redis-кеш с фолбэком на индексированный COUNT.
func (ns *NotificationService) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	count, err := ns.counters.Get(ctx, userID)
	if err != nil {
		return 0, InternalError(err)
	}
	return count, nil
}
