package handlers

import (
	"net/http"
	"strconv"
	"time"

	"reelgram/api/middleware"
	"reelgram/services"

	"github.com/gin-gonic/gin"
)

var messageService = services.NewMessageService()

// SendMessage сохраняет сообщение и отдает его в live-доставку
func SendMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		ReceiverID int64  `json:"receiver_id" binding:"required"`
		Text       string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Receiver and text are required"})
		return
	}

	start := time.Now()
	message, err := messageService.SendMessage(c.Request.Context(), userID, req.ReceiverID, req.Text)
	if err != nil {
		middleware.RecordMessageOperation("send", "error", "reelgram", time.Since(start))
		respondError(c, err)
		return
	}
	middleware.RecordMessageOperation("send", "ok", "reelgram", time.Since(start))

	c.JSON(http.StatusCreated, message)
}

// GetConversations возвращает сводку диалогов текущего пользователя
func GetConversations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	start := time.Now()
	conversations, err := messageService.ListConversations(c.Request.Context(), userID)
	if err != nil {
		middleware.RecordMessageOperation("list_conversations", "error", "reelgram", time.Since(start))
		respondError(c, err)
		return
	}
	middleware.RecordMessageOperation("list_conversations", "ok", "reelgram", time.Since(start))

	c.JSON(http.StatusOK, conversations)
}

// GetThread возвращает переписку с конкретным пользователем, старые первыми
func GetThread(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	peerID, err := strconv.ParseInt(c.Param("peer_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	start := time.Now()
	messages, err := messageService.GetThread(c.Request.Context(), userID, peerID)
	if err != nil {
		middleware.RecordMessageOperation("get_thread", "error", "reelgram", time.Since(start))
		respondError(c, err)
		return
	}
	middleware.RecordMessageOperation("get_thread", "ok", "reelgram", time.Since(start))

	c.JSON(http.StatusOK, messages)
}
