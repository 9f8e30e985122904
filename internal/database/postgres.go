package database

import (
	"fmt"
	"log/slog"
	"time"

	"shoplist-service/internal/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	connectRetries    = 5
	connectRetryDelay = 2 * time.Second
)

// NewPostgresConnection opens the database, retrying while postgres starts up,
// then migrates the schema.
func NewPostgresConnection(dsn string) (*gorm.DB, error) {
	var db *gorm.DB
	var err error
	for attempt := 1; attempt <= connectRetries; attempt++ {
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			PrepareStmt:            false,
			SkipDefaultTransaction: true,
			AllowGlobalUpdate:      false,
			Logger:                 logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			break
		}
		slog.Warn("Failed to connect to database", "attempt", attempt, "maxAttempts", connectRetries, "error", err)
		time.Sleep(connectRetryDelay)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", connectRetries, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(50)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := Migrate(db); err != nil {
		return nil, err
	}

	slog.Info("Connected to PostgreSQL")
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.List{},
		&models.ListCollaborator{},
		&models.Item{},
		&models.CategoryMapping{},
		&models.Recipe{},
		&models.RecipeIngredient{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return addIndexes(db)
}

func addIndexes(db *gorm.DB) error {
	indexes := []struct {
		table   string
		columns []string
	}{
		{"items", []string{"list_id", "completed"}},
		{"list_collaborators", []string{"user_id"}},
	}

	for _, idx := range indexes {
		for _, column := range idx.columns {
			indexName := fmt.Sprintf("idx_%s_%s", idx.table, column)
			if err := db.Exec(fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (%s)",
				indexName, idx.table, column)).Error; err != nil {
				return fmt.Errorf("failed to add index %s: %w", indexName, err)
			}
		}
	}
	return nil
}
