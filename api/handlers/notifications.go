package handlers

import (
	"net/http"
	"strconv"

	"reelgram/services"

	"github.com/gin-gonic/gin"
)

var notificationService = services.NewNotificationService()

// GetNotifications возвращает уведомления текущего пользователя, новые первыми
func GetNotifications(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	notifications, err := notificationService.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead помечает одно уведомление прочитанным
func MarkNotificationRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	notificationID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	notification, err := notificationService.MarkRead(c.Request.Context(), notificationID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

// MarkAllNotificationsRead помечает прочитанными все уведомления пользователя
func MarkAllNotificationsRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := notificationService.MarkAllRead(c.Request.Context(), userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked as read"})
}

// GetUnreadCount возвращает число непрочитанных уведомлений
func GetUnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := notificationService.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"count": count})
}
