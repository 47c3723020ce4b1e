package store

import (
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/efreitasn/papermarket/internal/domain"
)

// Open opens the SQLite database at path and migrates the schema.
// Use ":memory:" for an ephemeral database in tests.
func Open(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}
	if err := db.AutoMigrate(&domain.Instrument{}, &domain.User{}); err != nil {
		return nil, err
	}
	return db, nil
}
