package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"reelgram/api/middleware"
	"reelgram/api/routes"
	"reelgram/config"
	"reelgram/db"
	"reelgram/services"

	"github.com/gin-gonic/gin"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to the configuration file")
	flag.Parse()

	err := config.LoadConfig(configPath)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	log.Println("Starting server...")

	if err := db.ConnectDB(); err != nil {
		panic("Failed to connect to the database: " + err.Error())
	}

	// Redis не обязателен: без него счетчики считаются из БД
	if err := services.InitRedis(); err != nil {
		log.Printf("Redis unavailable, unread counters will hit the database: %v", err)
	}
	defer services.CloseRedis()

	// RabbitMQ не обязателен: без него live-уведомления пушатся напрямую
	if err := services.InitRabbitMQ(); err != nil {
		log.Printf("RabbitMQ unavailable, live notifications will be pushed directly: %v", err)
	} else {
		defer services.CloseRabbitMQ()
		if err := services.StartNotificationConsumer(context.Background(), "notification_push"); err != nil {
			log.Printf("Failed to start notification consumer: %v", err)
		}
	}

	uploadDir := config.AppConfig.Storage.UploadDir
	if uploadDir == "" {
		uploadDir = "uploads"
	}
	blobStore, err := services.NewDiskBlobStore(uploadDir, "/uploads")
	if err != nil {
		panic("Failed to initialize blob store: " + err.Error())
	}
	services.BlobStoreInstance = blobStore

	services.NewStoryService().StartCleanupWorker(context.Background())

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.PrometheusMiddleware("reelgram"))
	router.Static("/uploads", uploadDir)

	routes.PublicApi(router)

	addr := fmt.Sprintf(":%d", config.AppConfig.Backend.Port)
	if config.AppConfig.Backend.Port == 0 {
		addr = ":8080"
	}
	if err := router.Run(addr); err != nil {
		panic(err)
	}
}
