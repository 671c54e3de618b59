package repo

import (
	"log"

	"oneten-service/internal/config"
	"oneten-service/internal/model"
	"oneten-service/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func InitDB() {
	dsn := config.GlobalConfig.Database.DSN
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Log.Fatal("Failed to connect to database",
			zap.Error(err),
		)
	}

	err = DB.AutoMigrate(
		&model.Game{},
		&model.Player{},
		&model.CardRow{},
		&model.GameState{},
	)
	if err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
}
