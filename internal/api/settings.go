package api

import (
	"net/http"

	"aipocket/backend/internal/credentials"
	apperrors "aipocket/backend/pkg/errors"

	"github.com/gin-gonic/gin"
)

// SettingsHandler manages the generation API key. The key value is
// write-only over the API; reads only reveal whether one is configured.
type SettingsHandler struct {
	credentials *credentials.Provider
}

// NewSettingsHandler creates a settings handler
func NewSettingsHandler(provider *credentials.Provider) *SettingsHandler {
	return &SettingsHandler{credentials: provider}
}

type updateAPIKeyRequest struct {
	APIKey string `json:"api_key" binding:"required"`
}

// GetAPIKeyStatus reports whether an API key is configured
func (h *SettingsHandler) GetAPIKeyStatus(c *gin.Context) {
	_, configured := h.credentials.Get()
	c.JSON(http.StatusOK, gin.H{"configured": configured})
}

// UpdateAPIKey persists a new API key and triggers a client rebuild
func (h *SettingsHandler) UpdateAPIKey(c *gin.Context) {
	var req updateAPIKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	if err := h.credentials.Set(req.APIKey); err != nil {
		c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}
