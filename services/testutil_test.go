package services

import (
	"fmt"
	"testing"

	"reelgram/db"
	"reelgram/models"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB инициализирует тестовую базу данных SQLite в памяти
func setupTestDB(t *testing.T) {
	t.Helper()

	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	db.ORM = database
	RedisClient = nil
}

// createTestUser создает тестового пользователя
func createTestUser(t *testing.T, username string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    fmt.Sprintf("%s@example.com", username),
		Password: "testpassword",
	}
	if err := db.ORM.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return user
}

// createTestPost создает пост без похода в блоб-стор
func createTestPost(t *testing.T, userID int64, caption string) *models.Post {
	t.Helper()

	post := &models.Post{
		UserID:   userID,
		ImageURL: "/uploads/test.jpg",
		Caption:  caption,
	}
	if err := db.ORM.Create(post).Error; err != nil {
		t.Fatalf("Failed to create test post: %v", err)
	}
	return post
}
