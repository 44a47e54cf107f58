package models

import (
	"time"
)

type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Username  string    `gorm:"size:60;uniqueIndex" json:"username"`
	Email     string    `gorm:"size:255;uniqueIndex" json:"email"`
	Password  string    `gorm:"size:255" json:"-"`
	Bio       string    `gorm:"size:500" json:"bio"`
	AvatarURL string    `gorm:"size:512" json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// UserSummary - краткая карточка пользователя для вложенных ответов API
// (автор уведомления, участник диалога и т.п.)
type UserSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Username: u.Username, AvatarURL: u.AvatarURL}
}

type UserTokens struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID int64  `gorm:"index:user_token_idx,unique" json:"user_id"`
	Token  string `gorm:"size:255;index:user_token_idx,unique" json:"token"`
}

func (UserTokens) TableName() string {
	return "user_tokens"
}
