package seed

import (
	"io"
	"path/filepath"
	"testing"

	"aipocket/backend/internal/models"
	"aipocket/backend/internal/store"
	"aipocket/backend/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStores(t *testing.T) (*store.CharacterStore, *store.SettingStore) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Character{}, &models.ChatMessage{}, &models.Setting{}))

	history := store.NewHistoryStore(db)
	return store.NewCharacterStore(db, history), store.NewSettingStore(db)
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

func TestRunSeedsPreinstalledCharacter(t *testing.T) {
	characters, settings := newTestStores(t)

	require.NoError(t, Run(characters, settings, quietLogger()))

	list, err := characters.List()
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	assert.Equal(t, "秋ノ原　緑", got.Name)
	assert.Equal(t, "13歳", got.Age)
	assert.True(t, got.IsPreinstalled)
	assert.False(t, got.IsUserCreated)
	assert.NotEmpty(t, got.Tone)
	assert.NotEmpty(t, got.Personality)
	assert.NotEmpty(t, got.Worldview)
	assert.NotEmpty(t, got.Notes)

	done, err := settings.GetBool(store.SettingFirstRunStamp)
	require.NoError(t, err)
	assert.True(t, done)
}

func TestRunIsIdempotent(t *testing.T) {
	characters, settings := newTestStores(t)

	require.NoError(t, Run(characters, settings, quietLogger()))
	require.NoError(t, Run(characters, settings, quietLogger()))

	list, err := characters.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestRunSkipsWhenStampAlreadySet(t *testing.T) {
	characters, settings := newTestStores(t)

	// The stamp alone suppresses the seed, even with an empty character table
	require.NoError(t, settings.SetBool(store.SettingFirstRunStamp, true))
	require.NoError(t, Run(characters, settings, quietLogger()))

	list, err := characters.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
