package api

import (
	"errors"
	"net/http"
	"strconv"

	"aipocket/backend/internal/chat"
	"aipocket/backend/internal/models"
	"aipocket/backend/internal/store"
	apperrors "aipocket/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// MessageHandler exposes conversation history and the send pipeline
type MessageHandler struct {
	characters *store.CharacterStore
	history    *store.HistoryStore
	sessions   *chat.Manager
	cfg        chat.Config
}

// NewMessageHandler creates a message handler
func NewMessageHandler(
	characters *store.CharacterStore,
	history *store.HistoryStore,
	sessions *chat.Manager,
	cfg chat.Config,
) *MessageHandler {
	return &MessageHandler{
		characters: characters,
		history:    history,
		sessions:   sessions,
		cfg:        cfg,
	}
}

// ListMessages returns the character's recent history, ascending by
// timestamp. With ?q= the most recent search window is filtered
// case-insensitively instead; matches older than the window are not found.
func (h *MessageHandler) ListMessages(c *gin.Context) {
	id, ok := characterIDParam(c)
	if !ok {
		return
	}

	character, err := h.characters.GetByID(id)
	if err != nil {
		c.Error(err)
		return
	}
	if character == nil {
		c.Error(apperrors.NewNotFoundError("CHARACTER_NOT_FOUND", "character not found"))
		return
	}

	query := c.Query("q")

	var messages []models.ChatMessage
	if query != "" {
		window := intQuery(c, "limit", h.cfg.SearchWindow)
		messages, err = h.history.Search(id, query, window)
	} else {
		limit := intQuery(c, "limit", h.cfg.DisplayWindow)
		messages, err = h.history.Recent(id, limit)
	}
	if err != nil {
		c.Error(err)
		return
	}
	if messages == nil {
		messages = []models.ChatMessage{}
	}
	c.JSON(http.StatusOK, messages)
}

// SendMessage drives one chat turn and returns the updated display window.
// Failures of the generation call itself come back as a model message in the
// history, not as an HTTP error.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	id, ok := characterIDParam(c)
	if !ok {
		return
	}

	var req models.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	session := h.sessions.Get(id)
	if err := session.Send(c.Request.Context(), req.Message); err != nil {
		switch {
		case errors.Is(err, chat.ErrBlankMessage):
			c.Error(apperrors.NewBadRequestError("MESSAGE_BLANK", "message must not be blank"))
		case errors.Is(err, chat.ErrModelNotReady):
			c.Error(apperrors.NewServiceUnavailableError("MODEL_NOT_READY", "API key is missing or the completion client is not initialized"))
		case errors.Is(err, chat.ErrSendInProgress):
			c.Error(apperrors.NewConflictError("SEND_IN_PROGRESS", "a send is already in flight for this character"))
		case errors.Is(err, chat.ErrCharacterNotFound):
			c.Error(apperrors.NewNotFoundError("CHARACTER_NOT_FOUND", "character not found"))
		default:
			c.Error(err)
		}
		return
	}

	messages, err := session.Messages()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

// intQuery parses an integer query parameter with a fallback
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
