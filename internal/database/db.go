package database

import (
	"log"

	"github.com/justsurfingit/hiretrack/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Connect opens the Postgres connection and runs migrations.
func Connect(dsn string) *gorm.DB {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	log.Println("Database connection established")
	Migrate(db)
	return db
}

// Migrate creates/updates the schema. Shared with the test setup, which runs
// it against in-memory SQLite.
func Migrate(db *gorm.DB) {
	log.Println("Running Migrations...")
	err := db.AutoMigrate(
		&models.Tenant{},
		&models.Job{},
		&models.Candidate{},
		&models.Application{},
		&models.Pipeline{},
		&models.PipelineStage{},
		&models.ActivityLog{},
		&models.WorkflowAutomation{},
		&models.ScheduledTask{},
	)
	if err != nil {
		log.Fatal("Migration failed:", err)
	}
}
