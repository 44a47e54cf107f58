package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"reelgram/config"
	"reelgram/db"
	"reelgram/models"
	"reelgram/services"

	"github.com/brianvoe/gofakeit/v6"
)

// Генератор тестовых данных: пользователи, подписки, посты с комментариями
// и лайками, переписка. Удобен для ручной проверки ленты и диалогов.
func main() {
	var configPath string
	var userCount, postCount, messageCount int
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.IntVar(&userCount, "users", 50, "Number of users to generate")
	flag.IntVar(&postCount, "posts", 200, "Number of posts to generate")
	flag.IntVar(&messageCount, "messages", 500, "Number of direct messages to generate")
	flag.Parse()

	if err := config.LoadConfig(configPath); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := db.ConnectDB(); err != nil {
		log.Fatalf("Failed to connect to the database: %v", err)
	}

	ctx := context.Background()

	userIDs := make([]int64, 0, userCount)
	for i := 0; i < userCount; i++ {
		user := models.User{
			Username: fmt.Sprintf("%s%d", gofakeit.Username(), i),
			Email:    fmt.Sprintf("%d_%s", i, gofakeit.Email()),
			Password: "seed",
			Bio:      gofakeit.Sentence(8),
		}
		if err := db.GetWriteDB(ctx).Create(&user).Error; err != nil {
			log.Fatalf("Failed to create user: %v", err)
		}
		userIDs = append(userIDs, user.ID)
	}
	log.Printf("Created %d users", len(userIDs))

	followService := services.NewFollowService()
	follows := 0
	for _, actorID := range userIDs {
		for i := 0; i < 5; i++ {
			targetID := userIDs[rand.Intn(len(userIDs))]
			if err := followService.Follow(ctx, actorID, targetID); err == nil {
				follows++
			}
		}
	}
	log.Printf("Created %d follow edges", follows)

	postService := services.NewPostService()
	postIDs := make([]int64, 0, postCount)
	for i := 0; i < postCount; i++ {
		post := models.Post{
			UserID:    userIDs[rand.Intn(len(userIDs))],
			ImageURL:  gofakeit.ImageURL(640, 640),
			Caption:   gofakeit.Sentence(12),
			CreatedAt: time.Now().Add(-time.Duration(rand.Intn(72)) * time.Hour),
		}
		if err := db.GetWriteDB(ctx).Create(&post).Error; err != nil {
			log.Fatalf("Failed to create post: %v", err)
		}
		postIDs = append(postIDs, post.ID)
	}
	log.Printf("Created %d posts", len(postIDs))

	for _, postID := range postIDs {
		for i := 0; i < rand.Intn(5); i++ {
			actorID := userIDs[rand.Intn(len(userIDs))]
			if _, _, err := postService.ToggleLike(ctx, postID, actorID); err != nil {
				log.Printf("Failed to like post %d: %v", postID, err)
			}
		}
		for i := 0; i < rand.Intn(3); i++ {
			actorID := userIDs[rand.Intn(len(userIDs))]
			if _, err := postService.AddComment(ctx, postID, actorID, gofakeit.Sentence(6)); err != nil {
				log.Printf("Failed to comment post %d: %v", postID, err)
			}
		}
	}
	log.Println("Created likes and comments")

	messageService := services.NewMessageService()
	sent := 0
	for i := 0; i < messageCount; i++ {
		senderID := userIDs[rand.Intn(len(userIDs))]
		receiverID := userIDs[rand.Intn(len(userIDs))]
		if senderID == receiverID {
			continue
		}
		if _, err := messageService.SendMessage(ctx, senderID, receiverID, gofakeit.Sentence(5)); err == nil {
			sent++
		}
	}
	log.Printf("Created %d messages", sent)
}
