package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelgram/db"
	"reelgram/models"

	"gorm.io/gorm"
)

// MessageService - лог переписки и производные представления поверх него.
// Отдельной сущности "диалог" в хранилище нет: сводка диалогов каждый раз
// считается из лога.
type MessageService struct {
	relay *Relay
}

func NewMessageService() *MessageService {
	return &MessageService{relay: GlobalRelay}
}

// SendMessage валидирует и сохраняет сообщение, затем best-effort отдает его
// в live-доставку. Сохранение не зависит от доставки: оффлайн-получатель
// прочитает сообщение из лога.
func (ms *MessageService) SendMessage(ctx context.Context, senderID, receiverID int64, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ValidationError("message text is required")
	}
	if len(text) > models.MaxMessageLength {
		return nil, ValidationError("message cannot exceed %d characters", models.MaxMessageLength)
	}

	var receiver models.User
	err := db.GetWriteDB(ctx).First(&receiver, receiverID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, NotFoundError("receiver %d not found", receiverID)
	}
	if err != nil {
		return nil, InternalError(err)
	}

	message := &models.Message{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Text:       text,
		CreatedAt:  time.Now(),
	}
	if err := db.GetWriteDB(ctx).Create(message).Error; err != nil {
		return nil, InternalError(fmt.Errorf("failed to create message: %w", err))
	}

	ms.relay.DeliverMessage(receiverID, *message)
	return message, nil
}

// ListConversations собирает сводку диалогов: по одной записи на собеседника
// с хронологически последним сообщением пары. Проход по всем сообщениям
// пользователя, новые первыми, первое встреченное на пару и есть последнее.
func (ms *MessageService) ListConversations(ctx context.Context, userID int64) ([]models.Conversation, error) {
	var messages []models.Message
	err := db.GetReadOnlyDB(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&messages).Error
	if err != nil {
		return nil, InternalError(err)
	}

	seen := make(map[int64]bool)
	peerIDs := make([]int64, 0)
	lastByPeer := make(map[int64]models.Message)
	for _, msg := range messages {
		peerID := msg.SenderID
		if peerID == userID {
			peerID = msg.ReceiverID
		}
		if seen[peerID] {
			continue
		}
		seen[peerID] = true
		peerIDs = append(peerIDs, peerID)
		lastByPeer[peerID] = msg
	}

	if len(peerIDs) == 0 {
		return []models.Conversation{}, nil
	}

	var peers []models.User
	if err := db.GetReadOnlyDB(ctx).Where("id IN ?", peerIDs).Find(&peers).Error; err != nil {
		return nil, InternalError(err)
	}
	peersByID := make(map[int64]models.User, len(peers))
	for _, p := range peers {
		peersByID[p.ID] = p
	}

	conversations := make([]models.Conversation, 0, len(peerIDs))
	for _, peerID := range peerIDs {
		peer := peersByID[peerID]
		conversations = append(conversations, models.Conversation{
			User:        peer.Summary(),
			LastMessage: lastByPeer[peerID],
		})
	}
	return conversations, nil
}

// GetThread возвращает переписку двух пользователей в хронологическом
// порядке, старые первыми - обратном порядку сводки диалогов
func (ms *MessageService) GetThread(ctx context.Context, userID, peerID int64) ([]models.Message, error) {
	var messages []models.Message
	err := db.GetReadOnlyDB(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, peerID, peerID, userID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, InternalError(err)
	}
	return messages, nil
}
