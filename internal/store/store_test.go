package store

import (
	"path/filepath"
	"testing"

	"aipocket/backend/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// openTestDB opens a throwaway sqlite database migrated to the full schema
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.Character{}, &models.ChatMessage{}, &models.Setting{}))
	return db
}

func newTestStores(t *testing.T) (*CharacterStore, *HistoryStore, *SettingStore) {
	t.Helper()

	db := openTestDB(t)
	history := NewHistoryStore(db)
	characters := NewCharacterStore(db, history)
	settings := NewSettingStore(db)
	return characters, history, settings
}
