package db

import (
	"context"
	"fmt"
	"log"

	"reelgram/config"
	"reelgram/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

var ORM *gorm.DB

func dsnFromConfig(dbConf config.DBConfig) string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		dbConf.Host, dbConf.Port, dbConf.User, dbConf.Password, dbConf.Name,
	)
}

func ConnectDB() (err error) {
	if ORM != nil {
		log.Println("ORM is already initialized")
		return nil
	}

	if config.AppConfig == nil {
		return fmt.Errorf("AppConfig is not loaded")
	}
	conf := config.AppConfig
	if conf.Databases.Master.Host == "" {
		return fmt.Errorf("master database configuration is missing")
	}

	masterDSN := dsnFromConfig(conf.Databases.Master)
	replicaDSNs := make([]gorm.Dialector, 0, len(conf.Databases.Replicas))
	for _, r := range conf.Databases.Replicas {
		replicaDSNs = append(replicaDSNs, postgres.Open(dsnFromConfig(r)))
	}

	database, err := gorm.Open(postgres.Open(masterDSN), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
			NoLowerCase:   false,
		},
	})
	if err != nil {
		return err
	}

	if len(replicaDSNs) > 0 {
		err = database.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicaDSNs,
			Policy:   dbresolver.RandomPolicy{},
		}))
		if err != nil {
			return
		}
	}

	if err = Migrate(database); err != nil {
		return err
	}

	ORM = database
	return nil
}

// Migrate прогоняет автомиграцию всех моделей и добавляет составные индексы
func Migrate(database *gorm.DB) error {
	err := database.AutoMigrate(
		&models.User{}, &models.UserTokens{}, &models.Follow{},
		&models.Post{}, &models.PostLike{}, &models.Comment{}, &models.Reply{}, &models.ReplyLike{},
		&models.Notification{}, &models.Message{},
		&models.Story{}, &models.StoryView{},
	)
	if err != nil {
		return err
	}
	return CreateMessageIndexes(database)
}

// GetReadOnlyDB возвращает подключение для чтения (слейвы)
func GetReadOnlyDB(ctx context.Context) *gorm.DB {
	return ORM.WithContext(ctx).Clauses(dbresolver.Read)
}

// GetWriteDB возвращает подключение для записи (мастер)
func GetWriteDB(ctx context.Context) *gorm.DB {
	return ORM.WithContext(ctx).Clauses(dbresolver.Write)
}
