package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/restaurant-storefront/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.KVEntry{}))
	return db
}

func TestGormStoreUpsert(t *testing.T) {
	s := NewGormStore(setupTestDB(t))

	_, ok, err := s.Get("sess:cart-items")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("sess:cart-items", `[{"id":"1"}]`))
	require.NoError(t, s.Set("sess:cart-items", `[]`))

	v, ok, err := s.Get("sess:cart-items")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[]`, v)

	var count int64
	s.DB.Model(&models.KVEntry{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGormStoreEmptyValue(t *testing.T) {
	s := NewGormStore(setupTestDB(t))

	require.NoError(t, s.Set("k", ""))
	v, ok, err := s.Get("k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestGormStoreBackendFailure(t *testing.T) {
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	s := NewGormStore(db)
	assert.Error(t, s.Set("k", "v"))
	_, _, err = s.Get("k")
	assert.Error(t, err)
}
