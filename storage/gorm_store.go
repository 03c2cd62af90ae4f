package storage

import (
	"time"

	"github.com/pkg/errors"
	"github.com/yeremiapane/restaurant-storefront/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var _ Store = (*GormStore)(nil)

// GormStore persists values in the kv_entries table.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) Get(key string) (string, bool, error) {
	var entry models.KVEntry
	err := s.DB.Where(&models.KVEntry{Key: key}).Limit(1).Find(&entry).Error
	if err != nil {
		return "", false, errors.Wrapf(err, "get %q", key)
	}
	if entry.Key == "" {
		return "", false, nil
	}
	return entry.Value, true, nil
}

func (s *GormStore) Set(key, value string) error {
	entry := models.KVEntry{Key: key, Value: value, UpdatedAt: time.Now()}
	err := s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		return errors.Wrapf(err, "set %q", key)
	}
	return nil
}
