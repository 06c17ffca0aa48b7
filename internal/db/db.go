package db

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/balkashynov/punch/internal/models"
)

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrEventNotFound    = errors.New("attendance record not found")
)

// Store is the local attendance backend
type Store struct {
	DB       *gorm.DB
	Location *time.Location
	Now      func() time.Time
}

// Open connects to the database and runs migrations.
// driver is "sqlite" (dsn is a file path) or "postgres".
func Open(driver, dsn string, loc *time.Location) (*Store, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite", "":
		// Ensure the directory exists
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	gdb, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent), // Quiet by default
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return New(gdb, loc)
}

// New wraps an open connection and runs migrations
func New(gdb *gorm.DB, loc *time.Location) (*Store, error) {
	if loc == nil {
		loc = time.Local
	}
	s := &Store{DB: gdb, Location: loc, Now: time.Now}
	if err := s.runMigrations(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return s, nil
}

// runMigrations creates/updates the database schema
func (s *Store) runMigrations() error {
	return s.DB.AutoMigrate(
		&models.Employee{},
		&models.AttendanceEvent{},
	)
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.DB != nil {
		sqlDB, err := s.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}
	return nil
}
