package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"aipocket/backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendMessageRoundTrip(t *testing.T) {
	server := newTestServer(t, "やあ", true)
	character := server.seedCharacter(t, "midori", false)

	w := server.request(http.MethodPost,
		fmt.Sprintf("/api/v1/characters/%d/messages", character.ID),
		`{"message":"こんにちは"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.True(t, got[0].IsUserMessage)
	assert.Equal(t, "こんにちは", got[0].Message)
	assert.False(t, got[1].IsUserMessage)
	assert.Equal(t, "やあ", got[1].Message)
}

func TestSendMessageBlank(t *testing.T) {
	server := newTestServer(t, "x", true)
	character := server.seedCharacter(t, "c", false)

	w := server.request(http.MethodPost,
		fmt.Sprintf("/api/v1/characters/%d/messages", character.ID),
		`{"message":"   "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "MESSAGE_BLANK", decodeError(t, w.Body.Bytes()).Error.Code)
}

func TestSendMessageModelNotReady(t *testing.T) {
	server := newTestServer(t, "x", false)
	character := server.seedCharacter(t, "c", false)

	w := server.request(http.MethodPost,
		fmt.Sprintf("/api/v1/characters/%d/messages", character.ID),
		`{"message":"hello"}`)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "MODEL_NOT_READY", decodeError(t, w.Body.Bytes()).Error.Code)
}

func TestSendMessageCharacterNotFound(t *testing.T) {
	server := newTestServer(t, "x", true)

	w := server.request(http.MethodPost, "/api/v1/characters/999/messages", `{"message":"hello"}`)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CHARACTER_NOT_FOUND", decodeError(t, w.Body.Bytes()).Error.Code)
}

func TestSendMessageMissingBody(t *testing.T) {
	server := newTestServer(t, "x", true)
	character := server.seedCharacter(t, "c", false)

	w := server.request(http.MethodPost,
		fmt.Sprintf("/api/v1/characters/%d/messages", character.ID), `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w.Body.Bytes()).Error.Code)
}

func TestListMessages(t *testing.T) {
	server := newTestServer(t, "x", true)
	character := server.seedCharacter(t, "c", false)

	for i := 0; i < 3; i++ {
		require.NoError(t, server.history.Append(&models.ChatMessage{
			CharacterID:   character.ID,
			IsUserMessage: i%2 == 0,
			Message:       fmt.Sprintf("turn %d", i),
		}))
	}

	w := server.request(http.MethodGet,
		fmt.Sprintf("/api/v1/characters/%d/messages", character.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 3)
	assert.Equal(t, "turn 0", got[0].Message)
	assert.Equal(t, "turn 2", got[2].Message)
}

func TestListMessagesHonorsLimit(t *testing.T) {
	server := newTestServer(t, "x", true)
	character := server.seedCharacter(t, "c", false)

	for i := 0; i < 5; i++ {
		require.NoError(t, server.history.Append(&models.ChatMessage{
			CharacterID: character.ID,
			Message:     fmt.Sprintf("turn %d", i),
		}))
	}

	w := server.request(http.MethodGet,
		fmt.Sprintf("/api/v1/characters/%d/messages?limit=2", character.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "turn 3", got[0].Message)
	assert.Equal(t, "turn 4", got[1].Message)
}

func TestListMessagesSearch(t *testing.T) {
	server := newTestServer(t, "x", true)
	character := server.seedCharacter(t, "c", false)

	require.NoError(t, server.history.Append(&models.ChatMessage{CharacterID: character.ID, Message: "Apple pie"}))
	require.NoError(t, server.history.Append(&models.ChatMessage{CharacterID: character.ID, Message: "banana"}))

	w := server.request(http.MethodGet,
		fmt.Sprintf("/api/v1/characters/%d/messages?q=apple", character.ID), "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []models.ChatMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "Apple pie", got[0].Message)
}

func TestListMessagesSearchNoMatches(t *testing.T) {
	server := newTestServer(t, "x", true)
	character := server.seedCharacter(t, "c", false)

	require.NoError(t, server.history.Append(&models.ChatMessage{CharacterID: character.ID, Message: "banana"}))

	w := server.request(http.MethodGet,
		fmt.Sprintf("/api/v1/characters/%d/messages?q=apple", character.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestListMessagesCharacterNotFound(t *testing.T) {
	server := newTestServer(t, "x", true)

	w := server.request(http.MethodGet, "/api/v1/characters/999/messages", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CHARACTER_NOT_FOUND", decodeError(t, w.Body.Bytes()).Error.Code)
}

func TestAPIKeyStatusAndUpdate(t *testing.T) {
	server := newTestServer(t, "x", false)

	w := server.request(http.MethodGet, "/api/v1/settings/api-key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"configured":false}`, w.Body.String())

	w = server.request(http.MethodPut, "/api/v1/settings/api-key", `{"api_key":"new-secret"}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = server.request(http.MethodGet, "/api/v1/settings/api-key", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"configured":true}`, w.Body.String())

	// The key value itself is never echoed back
	assert.NotContains(t, w.Body.String(), "new-secret")
}

func TestAPIKeyUpdateRequiresKey(t *testing.T) {
	server := newTestServer(t, "x", true)

	w := server.request(http.MethodPut, "/api/v1/settings/api-key", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w.Body.Bytes()).Error.Code)
}
