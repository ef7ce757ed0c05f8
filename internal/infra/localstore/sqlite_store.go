package localstore

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"storefront/internal/infra/db"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 端末ローカルのキーバリュー1件
type entry struct {
	Key       string    `gorm:"column:storage_key;primaryKey;type:varchar(128)"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (entry) TableName() string {
	return "local_storage"
}

// SQLiteStore は repository.LocalStorage の sqlite 実装。
type SQLiteStore struct {
	db *gorm.DB
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	gdb, err := db.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	return NewSQLiteStore(gdb)
}

func NewSQLiteStore(gdb *gorm.DB) (*SQLiteStore, error) {
	if err := gdb.AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrate local storage: %w", err)
	}
	return &SQLiteStore{db: gdb}, nil
}

func (s *SQLiteStore) Get(key string) (string, bool, error) {
	var e entry
	err := s.db.Where("storage_key = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return e.Value, true, nil
}

func (s *SQLiteStore) Set(key string, value string) error {
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "storage_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry{Key: key, Value: value, UpdatedAt: time.Now()}).Error
}

func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// MemoryStore は保存先を持たない一時的なカート用（プロセス終了で消える）
type MemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]string{}}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key string, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}
