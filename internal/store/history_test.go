package store

import (
	"fmt"
	"testing"

	"aipocket/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendN(t *testing.T, history *HistoryStore, characterID uint, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, history.Append(&models.ChatMessage{
			CharacterID:   characterID,
			IsUserMessage: i%2 == 0,
			Message:       fmt.Sprintf("message %03d", i),
		}))
	}
}

func TestHistoryAppendAssignsMonotonicTimestamps(t *testing.T) {
	characters, history, _ := newTestStores(t)

	character := &models.Character{Name: "c"}
	require.NoError(t, characters.Create(character))

	appendN(t, history, character.ID, 5)

	messages, err := history.Recent(character.ID, 100)
	require.NoError(t, err)
	require.Len(t, messages, 5)

	for i := 1; i < len(messages); i++ {
		assert.GreaterOrEqual(t, messages[i].Timestamp, messages[i-1].Timestamp)
		assert.Greater(t, messages[i].ID, messages[i-1].ID)
	}
	assert.Positive(t, messages[0].Timestamp)
}

func TestHistoryRecentReturnsLatestInDisplayOrder(t *testing.T) {
	characters, history, _ := newTestStores(t)

	character := &models.Character{Name: "c"}
	require.NoError(t, characters.Create(character))

	appendN(t, history, character.ID, 30)

	messages, err := history.Recent(character.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 10)

	// The window holds the newest ten, oldest first
	assert.Equal(t, "message 020", messages[0].Message)
	assert.Equal(t, "message 029", messages[9].Message)
}

func TestHistoryRecentFewerThanLimit(t *testing.T) {
	characters, history, _ := newTestStores(t)

	character := &models.Character{Name: "c"}
	require.NoError(t, characters.Create(character))

	appendN(t, history, character.ID, 3)

	messages, err := history.Recent(character.ID, 20)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
}

func TestHistoryRecentIsolatesCharacters(t *testing.T) {
	characters, history, _ := newTestStores(t)

	a := &models.Character{Name: "a"}
	b := &models.Character{Name: "b"}
	require.NoError(t, characters.Create(a))
	require.NoError(t, characters.Create(b))

	require.NoError(t, history.Append(&models.ChatMessage{CharacterID: a.ID, Message: "for a"}))
	require.NoError(t, history.Append(&models.ChatMessage{CharacterID: b.ID, Message: "for b"}))

	messages, err := history.Recent(a.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "for a", messages[0].Message)
}

func TestHistorySearchCaseInsensitive(t *testing.T) {
	characters, history, _ := newTestStores(t)

	character := &models.Character{Name: "c"}
	require.NoError(t, characters.Create(character))

	require.NoError(t, history.Append(&models.ChatMessage{CharacterID: character.ID, Message: "Hello World"}))
	require.NoError(t, history.Append(&models.ChatMessage{CharacterID: character.ID, Message: "goodbye"}))
	require.NoError(t, history.Append(&models.ChatMessage{CharacterID: character.ID, Message: "HELLO again"}))

	matches, err := history.Search(character.ID, "hello", 200)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "Hello World", matches[0].Message)
	assert.Equal(t, "HELLO again", matches[1].Message)
}

func TestHistorySearchBoundedByWindow(t *testing.T) {
	characters, history, _ := newTestStores(t)

	character := &models.Character{Name: "c"}
	require.NoError(t, characters.Create(character))

	require.NoError(t, history.Append(&models.ChatMessage{CharacterID: character.ID, Message: "needle oldest"}))
	appendN(t, history, character.ID, 10)

	// A window of ten excludes the oldest row, so the needle is not found
	matches, err := history.Search(character.ID, "needle", 10)
	require.NoError(t, err)
	assert.Empty(t, matches)

	matches, err = history.Search(character.ID, "needle", 11)
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestHistorySearchEmptyQueryReturnsWindow(t *testing.T) {
	characters, history, _ := newTestStores(t)

	character := &models.Character{Name: "c"}
	require.NoError(t, characters.Create(character))

	appendN(t, history, character.ID, 5)

	matches, err := history.Search(character.ID, "", 3)
	require.NoError(t, err)

	window, err := history.Recent(character.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, window, matches)
}

func TestHistoryTrimKeepsMostRecent(t *testing.T) {
	characters, history, _ := newTestStores(t)

	character := &models.Character{Name: "c"}
	require.NoError(t, characters.Create(character))

	appendN(t, history, character.ID, 25)

	require.NoError(t, history.Trim(character.ID, 20))

	messages, err := history.Recent(character.ID, 100)
	require.NoError(t, err)
	require.Len(t, messages, 20)
	assert.Equal(t, "message 005", messages[0].Message)
	assert.Equal(t, "message 024", messages[19].Message)
}

func TestHistoryTrimUnderLimitIsNoOp(t *testing.T) {
	characters, history, _ := newTestStores(t)

	character := &models.Character{Name: "c"}
	require.NoError(t, characters.Create(character))

	appendN(t, history, character.ID, 5)
	require.NoError(t, history.Trim(character.ID, 20))

	count, err := history.CountFor(character.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestHistoryDeleteAllFor(t *testing.T) {
	characters, history, _ := newTestStores(t)

	character := &models.Character{Name: "c"}
	require.NoError(t, characters.Create(character))

	appendN(t, history, character.ID, 4)
	require.NoError(t, history.DeleteAllFor(character.ID))

	count, err := history.CountFor(character.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestHistoryWatchNotifiesOnAppend(t *testing.T) {
	characters, history, _ := newTestStores(t)

	character := &models.Character{Name: "c"}
	require.NoError(t, characters.Create(character))

	ch, cancel := history.Watch(character.ID)
	defer cancel()

	// Drain the initial tick
	select {
	case <-ch:
	default:
		t.Fatal("expected an initial tick on subscribe")
	}

	require.NoError(t, history.Append(&models.ChatMessage{CharacterID: character.ID, Message: "hi"}))

	select {
	case <-ch:
	default:
		t.Fatal("expected a tick after append")
	}
}

func TestSettingStoreRoundTrip(t *testing.T) {
	_, _, settings := newTestStores(t)

	_, ok, err := settings.Get(SettingAPIKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, settings.Set(SettingAPIKey, "secret-1"))
	value, ok, err := settings.Get(SettingAPIKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "secret-1", value)

	// Set is an upsert
	require.NoError(t, settings.Set(SettingAPIKey, "secret-2"))
	value, _, err = settings.Get(SettingAPIKey)
	require.NoError(t, err)
	assert.Equal(t, "secret-2", value)
}

func TestSettingStoreBoolFlags(t *testing.T) {
	_, _, settings := newTestStores(t)

	done, err := settings.GetBool(SettingFirstRunStamp)
	require.NoError(t, err)
	assert.False(t, done)

	require.NoError(t, settings.SetBool(SettingFirstRunStamp, true))
	done, err = settings.GetBool(SettingFirstRunStamp)
	require.NoError(t, err)
	assert.True(t, done)

	require.NoError(t, settings.SetBool(SettingFirstRunStamp, false))
	done, err = settings.GetBool(SettingFirstRunStamp)
	require.NoError(t, err)
	assert.False(t, done)
}
