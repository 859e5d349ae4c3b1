// Package docstore persists schemaless JSON documents grouped in named
// collections. It backs the mywayd document API.
package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrInvalidFields = errors.New("document fields must be a JSON object")
)

// Document is one stored record.
type Document struct {
	ID         string         `gorm:"primaryKey;size:36"`
	Collection string         `gorm:"size:255;not null;index:idx_documents_collection_created,priority:1"`
	Fields     datatypes.JSON `gorm:"not null"`
	CreatedAt  time.Time      `gorm:"index:idx_documents_collection_created,priority:2"`
	UpdatedAt  time.Time
}

// Store is a GORM-backed document store.
type Store struct {
	db    *gorm.DB
	clock clockwork.Clock
}

// Open connects to driver using dsn and migrates the schema. For sqlite the
// dsn is a file path; parent directories are created.
func Open(driver, dsn string, clock clockwork.Clock) (*Store, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	cfg := &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	}

	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "", DriverSQLite:
		if dsn == "" {
			return nil, errors.New("sqlite path required")
		}
		if !strings.HasPrefix(dsn, "file:") {
			if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.New(postgres.Config{
			DSN:                  dsn,
			PreferSimpleProtocol: true,
		})
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, cfg)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("migrate documents: %w", err)
	}
	return &Store{db: db, clock: clock}, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("access sql db: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// List returns the documents of collection in creation order.
func (s *Store) List(ctx context.Context, collection string) ([]Document, error) {
	var docs []Document
	err := s.db.WithContext(ctx).
		Where("collection = ?", collection).
		Order("created_at ASC").
		Order("id ASC").
		Find(&docs).Error
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

// Get returns one document.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	var doc Document
	err := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return doc, nil
}

// Create stores fields under a new random id.
func (s *Store) Create(ctx context.Context, collection string, fields json.RawMessage) (Document, error) {
	if !isObject(fields) {
		return Document{}, ErrInvalidFields
	}
	now := s.clock.Now().UTC()
	doc := Document{
		ID:         uuid.NewString(),
		Collection: collection,
		Fields:     datatypes.JSON(fields),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&doc).Error; err != nil {
		return Document{}, fmt.Errorf("create in %s: %w", collection, err)
	}
	return doc, nil
}

// Update replaces the fields of an existing document.
func (s *Store) Update(ctx context.Context, collection, id string, fields json.RawMessage) (Document, error) {
	if !isObject(fields) {
		return Document{}, ErrInvalidFields
	}
	res := s.db.WithContext(ctx).
		Model(&Document{}).
		Where("collection = ? AND id = ?", collection, id).
		Updates(map[string]any{
			"fields":     datatypes.JSON(fields),
			"updated_at": s.clock.Now().UTC(),
		})
	if res.Error != nil {
		return Document{}, fmt.Errorf("update %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return Document{}, ErrNotFound
	}
	return s.Get(ctx, collection, id)
}

// Delete removes a document.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res := s.db.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&Document{})
	if res.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of documents in collection.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Document{}).Where("collection = ?", collection).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return false
	}
	return json.Valid(trimmed)
}
