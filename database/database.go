package database

import (
	"fmt"
	"os"
	"strconv"

	"aurex/models"
	"aurex/pkg/logger"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func Connect() {
	host := os.Getenv("DB_HOST")
	port := os.Getenv("DB_PORT")
	user := os.Getenv("DB_USER")
	pass := os.Getenv("DB_PASSWORD")
	name := os.Getenv("DB_NAME")
	sslmode := os.Getenv("DB_SSLMODE")

	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		host, user, pass, name, port, sslmode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		logger.Fatal("Failed to connect to database", err)
	}

	DB = db
	logger.Info("Connected to database", "host", host, "db", name)

	autoMigrateEnv := os.Getenv("DB_AUTO_MIGRATE")
	autoMigrate, err := strconv.ParseBool(autoMigrateEnv)
	if err != nil {
		logger.Warn("Invalid value for DB_AUTO_MIGRATE", "value", autoMigrateEnv)
	}

	if autoMigrate {
		if err := Migrate(DB); err != nil {
			logger.Fatal("Failed to auto-migrate database", err)
		}
		logger.Info("Auto migration completed")
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.AccountBalance{},
		&models.Transaction{},
		&models.GameSession{},
		&models.BonusActivation{},
		&models.CashbackRecord{},
	)
}
