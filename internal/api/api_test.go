package api

import (
	"context"
	"io"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"aipocket/backend/internal/chat"
	"aipocket/backend/internal/credentials"
	"aipocket/backend/internal/llm"
	"aipocket/backend/internal/models"
	"aipocket/backend/internal/store"
	apperrors "aipocket/backend/pkg/errors"
	"aipocket/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// scriptedClient returns a fixed reply for every generation call
type scriptedClient struct {
	reply string
}

func (c *scriptedClient) Generate(_ context.Context, _ string) (string, error) {
	return c.reply, nil
}

type testServer struct {
	engine      *gin.Engine
	characters  *store.CharacterStore
	history     *store.HistoryStore
	settings    *store.SettingStore
	credentials *credentials.Provider
	sessions    *chat.Manager
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Config{Level: "error", Output: io.Discard})
}

// newTestServer stands up the full handler stack over a throwaway database.
// When ready is true the completion client is a scripted fake.
func newTestServer(t *testing.T, reply string, ready bool) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Character{}, &models.ChatMessage{}, &models.Setting{}))

	log := quietLogger()
	history := store.NewHistoryStore(db)
	characters := store.NewCharacterStore(db, history)
	settings := store.NewSettingStore(db)

	creds, err := credentials.NewProvider(context.Background(), settings, log)
	require.NoError(t, err)

	factory := func(_ context.Context, _ string) (llm.Client, error) {
		return &scriptedClient{reply: reply}, nil
	}
	reloader := llm.NewReloader(factory, creds, log)

	ctx, cancel := context.WithCancel(context.Background())
	go reloader.Run(ctx)
	t.Cleanup(cancel)

	if ready {
		require.NoError(t, creds.Set("test-key"))
		require.Eventually(t, reloader.Ready, time.Second, 5*time.Millisecond)
	}

	cfg := chat.DefaultConfig()
	cfg.SearchDebounce = 10 * time.Millisecond
	sessions := chat.NewManager(characters, history, reloader, cfg, log, nil)
	t.Cleanup(sessions.Close)

	engine := gin.New()
	engine.Use(apperrors.ErrorHandler())

	characterHandler := NewCharacterHandler(characters, sessions)
	messageHandler := NewMessageHandler(characters, history, sessions, cfg)
	settingsHandler := NewSettingsHandler(creds)

	v1 := engine.Group("/api/v1")
	{
		v1.GET("/characters", characterHandler.ListCharacters)
		v1.POST("/characters", characterHandler.CreateCharacter)
		v1.GET("/characters/:id", characterHandler.GetCharacter)
		v1.PUT("/characters/:id", characterHandler.UpdateCharacter)
		v1.DELETE("/characters/:id", characterHandler.DeleteCharacter)
		v1.GET("/characters/:id/messages", messageHandler.ListMessages)
		v1.POST("/characters/:id/messages", messageHandler.SendMessage)
		v1.GET("/settings/api-key", settingsHandler.GetAPIKeyStatus)
		v1.PUT("/settings/api-key", settingsHandler.UpdateAPIKey)
	}

	return &testServer{
		engine:      engine,
		characters:  characters,
		history:     history,
		settings:    settings,
		credentials: creds,
		sessions:    sessions,
	}
}

// request performs an HTTP call against the test server
func (s *testServer) request(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *testServer) seedCharacter(t *testing.T, name string, preinstalled bool) *models.Character {
	t.Helper()
	character := &models.Character{
		Name:           name,
		IsUserCreated:  !preinstalled,
		IsPreinstalled: preinstalled,
	}
	require.NoError(t, s.characters.Create(character))
	return character
}
