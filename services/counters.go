package services

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"reelgram/db"
	"reelgram/models"

	"github.com/go-redis/redis/v8"
)

const (
	unreadKeyPrefix  = "unread_notifications:"
	unreadCounterTTL = 7 * 24 * time.Hour
)

// UnreadCounterCache - кеш счетчика непрочитанных уведомлений в Redis.
// Счетчик опрашивается клиентами постоянно, поэтому чтение должно быть
// дешевым. БД остается источником истины: при промахе или рассинхроне кеш
// пересчитывается индексированным COUNT по (user_id, is_read).
type UnreadCounterCache struct {
	redisClient *redis.Client
}

func NewUnreadCounterCache(redisClient *redis.Client) *UnreadCounterCache {
	return &UnreadCounterCache{redisClient: redisClient}
}

func unreadKey(userID int64) string {
	return fmt.Sprintf("%s%d", unreadKeyPrefix, userID)
}

// Incr сдвигает счетчик после записи нового уведомления.
// Без Redis молча ничего не делаем - Get посчитает из БД.
func (c *UnreadCounterCache) Incr(ctx context.Context, userID int64) {
	if c.redisClient == nil {
		return
	}
	key := unreadKey(userID)
	pipe := c.redisClient.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, unreadCounterTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Unread counter incr failed for user %d: %v", userID, err)
	}
}

// Decr уменьшает счетчик после прочтения одного уведомления
func (c *UnreadCounterCache) Decr(ctx context.Context, userID int64) {
	if c.redisClient == nil {
		return
	}
	key := unreadKey(userID)
	val, err := c.redisClient.Decr(ctx, key).Result()
	if err != nil {
		log.Printf("Unread counter decr failed for user %d: %v", userID, err)
		return
	}
	if val < 0 {
		// Рассинхрон - сбрасываем, следующий Get пересчитает из БД
		c.redisClient.Del(ctx, key)
	}
}

// Reset обнуляет счетчик (после mark-all-read)
func (c *UnreadCounterCache) Reset(ctx context.Context, userID int64) {
	if c.redisClient == nil {
		return
	}
	if err := c.redisClient.Set(ctx, unreadKey(userID), 0, unreadCounterTTL).Err(); err != nil {
		log.Printf("Unread counter reset failed for user %d: %v", userID, err)
	}
}

// Get возвращает счетчик из кеша, при промахе считает из БД и прогревает кеш
func (c *UnreadCounterCache) Get(ctx context.Context, userID int64) (int64, error) {
	if c.redisClient != nil {
		val, err := c.redisClient.Get(ctx, unreadKey(userID)).Result()
		if err == nil {
			if count, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil && count >= 0 {
				return count, nil
			}
		} else if err != redis.Nil {
			log.Printf("Unread counter read failed for user %d: %v", userID, err)
		}
	}

	var count int64
	err := db.GetReadOnlyDB(ctx).
		Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	if c.redisClient != nil {
		if err := c.redisClient.Set(ctx, unreadKey(userID), count, unreadCounterTTL).Err(); err != nil {
			log.Printf("Unread counter warmup failed for user %d: %v", userID, err)
		}
	}
	return count, nil
}
