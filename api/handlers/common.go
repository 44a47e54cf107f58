package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"reelgram/services"

	"github.com/gin-gonic/gin"
)

// currentUserID достает аутентифицированного пользователя из контекста
func currentUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	id, ok := userID.(int64)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return 0, false
	}
	return id, true
}

// respondError отображает ошибку сервиса в HTTP ответ
func respondError(c *gin.Context, err error) {
	c.JSON(services.HTTPStatus(err), gin.H{"error": services.PublicMessage(err)})
}

// stageUpload принимает multipart файл во временную директорию.
// Вызывающий обязан дернуть cleanup на любом исходе - частичные артефакты
// загрузки не должны оставаться на диске.
func stageUpload(c *gin.Context, field string) (string, func(), error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		return "", func() {}, err
	}

	tmp, err := os.CreateTemp("", "upload_*"+filepath.Ext(fileHeader.Filename))
	if err != nil {
		return "", func() {}, err
	}
	stagedPath := tmp.Name()
	tmp.Close()

	if err := c.SaveUploadedFile(fileHeader, stagedPath); err != nil {
		os.Remove(stagedPath)
		return "", func() {}, err
	}
	cleanup := func() {
		_ = os.Remove(stagedPath)
	}
	return stagedPath, cleanup, nil
}
