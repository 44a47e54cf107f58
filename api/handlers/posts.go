package handlers

import (
	"net/http"
	"strconv"

	"reelgram/models"
	"reelgram/services"

	"github.com/gin-gonic/gin"
)

var postService = services.NewPostService()

// CreatePost создает новый пост: multipart media + caption + type
func CreatePost(c *gin.Context) {
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
	caption := c.PostForm("caption")

	post, err := postService.CreatePost(c.Request.Context(), userID, stagedPath, kind, caption)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, post)
}

// GetFeed возвращает страницу общей ленты
func GetFeed(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page := 1
	limit := 10
	if pageStr := c.Query("page"); pageStr != "" {
		if parsed, err := strconv.Atoi(pageStr); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 && parsed <= 100 {
			limit = parsed
		}
	}

	feed, err := postService.GetFeed(c.Request.Context(), userID, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, feed)
}

// GetPost возвращает один пост с деревом комментариев
func GetPost(c *gin.Context) {
	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var viewerID int64
	if id, exists := c.Get("user_id"); exists {
		viewerID, _ = id.(int64)
	}

	post, err := postService.GetPost(c.Request.Context(), postID, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, post)
}

// ToggleLike - идемпотентный лайк/анлайк поста
func ToggleLike(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	liked, likesCount, err := postService.ToggleLike(c.Request.Context(), postID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked, "likesCount": likesCount})
}

// AddComment добавляет комментарий к посту
func AddComment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Comment text is required"})
		return
	}

	comment, err := postService.AddComment(c.Request.Context(), postID, userID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// AddReply добавляет ответ на комментарий
func AddReply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}
	commentID, err := strconv.ParseInt(c.Param("comment_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid comment ID"})
		return
	}

	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Reply text is required"})
		return
	}

	reply, err := postService.AddReply(c.Request.Context(), postID, commentID, userID, req.Text)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, reply)
}

// ToggleReplyLike - идемпотентный лайк/анлайк ответа
func ToggleReplyLike(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	replyID, err := strconv.ParseInt(c.Param("reply_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid reply ID"})
		return
	}

	liked, likesCount, err := postService.ToggleReplyLike(c.Request.Context(), replyID, userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"liked": liked, "likesCount": likesCount})
}

// DeletePost удаляет пост владельца
func DeletePost(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	postID, err := strconv.ParseInt(c.Param("post_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	if err := postService.DeletePost(c.Request.Context(), postID, userID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted successfully"})
}
