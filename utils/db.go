package utils

import (
	"fmt"
	"log"
	"os"

	"github.com/lewiii254/farm-connect-market-wise-sub001/models"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

var MarketplaceDB *gorm.DB

func ConnectDatabase() {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("MARKETPLACE_DB"),
	)

	var err error

	MarketplaceDB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to marketplace database: %v", err)
	}

	MarketplaceDB.AutoMigrate(&models.User{})
}
