// Package repository persists the resolution cache to sqlite so a restart
// does not start from an empty cache.
package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blockedby/resolver-os/internal/models"
)

// CachedChat is the persisted form of one cache entry.
type CachedChat struct {
	Username  string `gorm:"primaryKey"`
	FirstName string
	LastName  string
	Bio       string
	ChatType  string
	ChatID    int64
	UpdatedAt time.Time
}

// TableName keeps the table name stable.
func (CachedChat) TableName() string {
	return "cached_chats"
}

// CacheRepository reads and writes cache snapshots.
type CacheRepository struct {
	db *gorm.DB
}

// NewCacheRepository opens (and migrates) the sqlite cache database at path.
func NewCacheRepository(path string) (*CacheRepository, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create cache dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open cache db: %w", err)
	}
	if err := db.AutoMigrate(&CachedChat{}); err != nil {
		return nil, fmt.Errorf("migrate cache db: %w", err)
	}

	return &CacheRepository{db: db}, nil
}

// LoadAll reads the full persisted snapshot, used once at startup to seed
// the in-memory cache.
func (r *CacheRepository) LoadAll(ctx context.Context) (map[string]models.ChatRecord, error) {
	var rows []CachedChat
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load cache snapshot: %w", err)
	}

	out := make(map[string]models.ChatRecord, len(rows))
	for _, row := range rows {
		out[row.Username] = models.ChatRecord{
			FirstName: row.FirstName,
			LastName:  row.LastName,
			Bio:       row.Bio,
			Kind:      models.ChatKind(row.ChatType),
			ChatID:    row.ChatID,
		}
	}
	return out, nil
}

// SaveSnapshot upserts every entry of an in-memory snapshot. Entries are
// never deleted here, the cache only grows.
func (r *CacheRepository) SaveSnapshot(ctx context.Context, snapshot map[string]models.ChatRecord) error {
	if len(snapshot) == 0 {
		return nil
	}

	rows := make([]CachedChat, 0, len(snapshot))
	now := time.Now()
	for username, rec := range snapshot {
		rows = append(rows, CachedChat{
			Username:  username,
			FirstName: rec.FirstName,
			LastName:  rec.LastName,
			Bio:       rec.Bio,
			ChatType:  string(rec.Kind),
			ChatID:    rec.ChatID,
			UpdatedAt: now,
		})
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "username"}},
		UpdateAll: true,
	}).Create(&rows).Error
	if err != nil {
		return fmt.Errorf("save cache snapshot: %w", err)
	}
	return nil
}
