package handlers

import (
	"net/http"
	"strconv"

	"reelgram/services"

	"github.com/gin-gonic/gin"
)

var (
	followService      = services.NewFollowService()
	profileUserService = services.NewUserService()
)

// GetUserProfile возвращает профиль пользователя с постами и счетчиками
func GetUserProfile(c *gin.Context) {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	profile, err := profileUserService.GetProfile(c.Request.Context(), targetID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// UpdateProfile меняет username/bio/аватар текущего пользователя
func UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var username, bio *string
	if v, exists := c.GetPostForm("username"); exists {
		username = &v
	}
	if v, exists := c.GetPostForm("bio"); exists {
		bio = &v
	}

	stagedPath := ""
	if _, err := c.FormFile("avatar"); err == nil {
		var cleanup func()
		var stageErr error
		stagedPath, cleanup, stageErr = stageUpload(c, "avatar")
		if stageErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read avatar file"})
			return
		}
		defer cleanup()
	}

	user, err := profileUserService.UpdateProfile(c.Request.Context(), userID, username, bio, stagedPath)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// FollowUser подписывает текущего пользователя на target
func FollowUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := followService.Follow(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User followed successfully"})
}

// UnfollowUser снимает подписку текущего пользователя с target
func UnfollowUser(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	if err := followService.Unfollow(c.Request.Context(), userID, targetID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "User unfollowed successfully"})
}

// SearchUsers ищет пользователей по подстроке username/email
func SearchUsers(c *gin.Context) {
	query := c.Query("q")
	users, err := followService.SearchUsers(c.Request.Context(), query)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}
