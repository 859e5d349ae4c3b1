// Package kv is the device-local persistent key-value storage: named slots
// holding opaque string values, kept in a SQLite file through GORM.
package kv

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Slot is one stored key/value pair.
type Slot struct {
	Name      string `gorm:"primaryKey;size:255"`
	Value     string
	UpdatedAt time.Time
}

// Store reads and writes slots.
type Store struct {
	db *gorm.DB
}

// Open opens (creating when needed) the SQLite database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open storage %s: %w", path, err)
	}
	if err := db.AutoMigrate(&Slot{}); err != nil {
		return nil, fmt.Errorf("migrate storage: %w", err)
	}
	return &Store{db: db}, nil
}

// Get returns the value stored under key. ok is false when the slot has
// never been written.
func (s *Store) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	var slot Slot
	err = s.db.WithContext(ctx).Where("name = ?", key).Take(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read slot %q: %w", key, err)
	}
	return slot.Value, true, nil
}

// Set writes value under key, replacing any previous value.
func (s *Store) Set(ctx context.Context, key, value string) error {
	slot := Slot{Name: key, Value: value, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&slot).Error
	if err != nil {
		return fmt.Errorf("write slot %q: %w", key, err)
	}
	return nil
}

// Remove deletes the slot. Removing a missing slot is not an error.
func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Where("name = ?", key).Delete(&Slot{}).Error; err != nil {
		return fmt.Errorf("remove slot %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
