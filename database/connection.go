package database

import (
	"errors"
	"log"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/mesafacil/reservas-backend/internal/models"
)

// DB is the process-wide GORM handle.
var DB *gorm.DB

// Connect opens the Postgres connection from DATABASE_URL and migrates
// the schema.
func Connect() error {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		return errors.New("DATABASE_URL is not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&models.Restaurant{},
		&models.Reservation{},
		&models.Feedback{},
	); err != nil {
		return err
	}

	DB = db
	log.Println("✅ Database connected and migrated")
	return nil
}
