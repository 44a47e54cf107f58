package models

import "time"

const StoryTTL = 24 * time.Hour

type MediaKind string

const (
	MediaImage MediaKind = "image"
	MediaVideo MediaKind = "video"
)

// Story - исчезающая история. Жесткий TTL: все выборки фильтруют по
// expires_at > now, просроченные записи физически подчищает фоновый воркер.
type Story struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index" json:"user_id"`
	MediaURL  string    `gorm:"size:512;not null" json:"media_url"`
	MediaKind MediaKind `gorm:"size:10" json:"media_kind"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	ExpiresAt time.Time `gorm:"index" json:"expires_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (Story) TableName() string {
	return "stories"
}

// StoryView - отметка просмотра истории (множество зрителей)
type StoryView struct {
	ID       int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StoryID  int64     `gorm:"index;uniqueIndex:story_view_idx" json:"story_id"`
	UserID   int64     `gorm:"uniqueIndex:story_view_idx" json:"user_id"`
	ViewedAt time.Time `gorm:"autoCreateTime" json:"viewed_at"`
}

func (StoryView) TableName() string {
	return "story_views"
}

// StoryGroup - истории одного автора для ленты историй
type StoryGroup struct {
	User    UserSummary `json:"user"`
	Stories []Story     `json:"stories"`
}
