package models

import (
	"time"
)

const MaxMessageLength = 1000

// Message представляет сообщение в диалоге между пользователями.
// Лог append-only: сообщения не редактируются и не удаляются,
// диалоги - производное представление поверх этого лога.
type Message struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SenderID   int64     `gorm:"column:sender_id;index:msg_sender_created_idx" json:"sender_id"`
	ReceiverID int64     `gorm:"column:receiver_id;index:msg_receiver_created_idx" json:"receiver_id"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index:msg_sender_created_idx;index:msg_receiver_created_idx" json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

// Conversation - производная сводка диалога: собеседник и последнее сообщение
type Conversation struct {
	User        UserSummary `json:"user"`
	LastMessage Message     `json:"last_message"`
}
