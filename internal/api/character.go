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

// CharacterHandler exposes character CRUD over HTTP
type CharacterHandler struct {
	characters *store.CharacterStore
	sessions   *chat.Manager
}

// NewCharacterHandler creates a character handler
func NewCharacterHandler(characters *store.CharacterStore, sessions *chat.Manager) *CharacterHandler {
	return &CharacterHandler{characters: characters, sessions: sessions}
}

// ListCharacters returns all characters ordered by id
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	characters, err := h.characters.List()
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, characters)
}

// GetCharacter returns one character by id
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
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
	c.JSON(http.StatusOK, character)
}

// CreateCharacter adds a user-authored character; only the name is required
func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	var req models.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	character := models.Character{
		Name:          req.Name,
		IconURI:       req.IconURI,
		Age:           req.Age,
		Tone:          req.Tone,
		Personality:   req.Personality,
		Worldview:     req.Worldview,
		Notes:         req.Notes,
		IsUserCreated: true,
	}
	if err := h.characters.Create(&character); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, character)
}

// UpdateCharacter replaces a character's persona fields
func (h *CharacterHandler) UpdateCharacter(c *gin.Context) {
	id, ok := characterIDParam(c)
	if !ok {
		return
	}

	var req models.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
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

	character.Name = req.Name
	character.IconURI = req.IconURI
	character.Age = req.Age
	character.Tone = req.Tone
	character.Personality = req.Personality
	character.Worldview = req.Worldview
	character.Notes = req.Notes

	if err := h.characters.Update(character); err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, character)
}

// DeleteCharacter removes a character and its history. Preinstalled
// characters are protected; deleting a missing id succeeds silently.
func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	id, ok := characterIDParam(c)
	if !ok {
		return
	}

	if err := h.characters.Delete(id); err != nil {
		if errors.Is(err, store.ErrProtectedCharacter) {
			c.Error(apperrors.NewForbiddenError("CHARACTER_PROTECTED", "preinstalled characters cannot be deleted"))
			return
		}
		c.Error(err)
		return
	}

	h.sessions.Drop(id)
	c.Status(http.StatusNoContent)
}

// characterIDParam parses the :id path parameter, reporting a 400 on failure
func characterIDParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_CHARACTER_ID", "character id must be a positive integer"))
		return 0, false
	}
	return uint(id), true
}
