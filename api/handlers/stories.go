package handlers

import (
	"net/http"
	"strconv"

	"reelgram/models"
	"reelgram/services"

	"github.com/gin-gonic/gin"
)

var storyService = services.NewStoryService()

// CreateStory создает историю с TTL 24 часа
func CreateStory(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	stagedPath, cleanup, err := stageUpload(c, "media")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Please upload a file"})
		return
	}
	defer cleanup()

	kind := models.MediaKind(c.PostForm("type"))

	story, err := storyService.CreateStory(c.Request.Context(), userID, stagedPath, kind)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, story)
}

// GetStoriesFeed возвращает живые истории подписок и свои, по авторам
func GetStoriesFeed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	groups, err := storyService.StoriesFeed(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// MarkStoryViewed отмечает просмотр истории текущим пользователем
func MarkStoryViewed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	storyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid story ID"})
		return
	}

	if err := storyService.MarkViewed(c.Request.Context(), storyID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Story marked as viewed"})
}

// GetStoryViewers возвращает зрителей истории ее владельцу
func GetStoryViewers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	storyID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid story ID"})
		return
	}

	viewers, err := storyService.Viewers(c.Request.Context(), storyID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, viewers)
}
