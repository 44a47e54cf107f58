package models

import "time"

type NotificationKind string

const (
	NotificationLike    NotificationKind = "like"
	NotificationFollow  NotificationKind = "follow"
	NotificationComment NotificationKind = "comment"
	NotificationReply   NotificationKind = "reply"
)

// Notification - производная запись: создается только как побочный эффект
// чужого действия (лайк, подписка, комментарий, ответ). ActorID != UserID.
type Notification struct {
	ID        int64            `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64            `gorm:"index:notif_user_read_idx" json:"user_id"`
	Kind      NotificationKind `gorm:"size:20" json:"kind"`
	ActorID   int64            `json:"actor_id"`
	PostID    *int64           `json:"post_id,omitempty"`
	IsRead    bool             `gorm:"default:false;index:notif_user_read_idx" json:"is_read"`
	CreatedAt time.Time        `gorm:"index" json:"created_at"`

	Actor *User `gorm:"foreignKey:ActorID" json:"actor,omitempty"`
}

func (Notification) TableName() string {
	return "notifications"
}

// NotificationView - элемент списка уведомлений с резолвленным актором
// и ссылкой на пост (может отсутствовать, если пост уже удален).
type NotificationView struct {
	ID        int64            `json:"id"`
	Kind      NotificationKind `json:"kind"`
	Actor     UserSummary      `json:"actor"`
	Post      *PostRef         `json:"post,omitempty"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

// PostRef - минимальная ссылка на пост в уведомлении
type PostRef struct {
	ID       int64  `json:"id"`
	ImageURL string `json:"image_url,omitempty"`
	VideoURL string `json:"video_url,omitempty"`
}
