package di

import (
	"context"
	"fmt"

	"aipocket/backend/internal/chat"
	"aipocket/backend/internal/credentials"
	"aipocket/backend/internal/llm"
	"aipocket/backend/internal/store"
	"aipocket/backend/pkg/config"
	"aipocket/backend/pkg/logger"
	"aipocket/backend/pkg/observability"

	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

// Container holds all the dependencies for the application
type Container struct {
	DB          *gorm.DB
	Config      *config.Config
	Logger      *logger.Logger
	Settings    *store.SettingStore
	Characters  *store.CharacterStore
	History     *store.HistoryStore
	Credentials *credentials.Provider
	LLM         *llm.Reloader
	Sessions    *chat.Manager
	Metrics     *observability.Metrics
}

// New creates a new dependency injection container. The store handles are
// constructed once here and injected explicitly into every component that
// needs them.
func New(db *gorm.DB, log *logger.Logger) (*Container, error) {
	cfg := config.Get()

	// Initialize stores
	history := store.NewHistoryStore(db)
	characters := store.NewCharacterStore(db, history)
	settings := store.NewSettingStore(db)

	// Initialize the credential provider
	creds, err := credentials.NewProvider(context.Background(), settings, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create credential provider: %w", err)
	}

	// Select the completion backend
	var factory llm.Factory
	switch cfg.AI.Provider {
	case "openai":
		factory = llm.OpenAIFactory(cfg.AI.BaseURL, cfg.AI.Model)
	case "gemini":
		factory = llm.GeminiFactory(cfg.AI.Model)
	default:
		return nil, fmt.Errorf("unknown AI provider %q", cfg.AI.Provider)
	}

	// The reloader tracks credential changes for the process lifetime
	reloader := llm.NewReloader(factory, creds, log)
	go reloader.Run(context.Background())

	// Initialize chat metrics
	metrics := observability.NewMetrics(prometheus.DefaultRegisterer)

	chatCfg := chat.Config{
		DisplayWindow:  cfg.Chat.DisplayWindow,
		SearchWindow:   cfg.Chat.SearchWindow,
		SearchDebounce: cfg.Chat.SearchDebounce,
		RequestTimeout: cfg.AI.RequestTimeout,
	}
	sessions := chat.NewManager(characters, history, reloader, chatCfg, log, metrics)

	return &Container{
		DB:          db,
		Config:      cfg,
		Logger:      log,
		Settings:    settings,
		Characters:  characters,
		History:     history,
		Credentials: creds,
		LLM:         reloader,
		Sessions:    sessions,
		Metrics:     metrics,
	}, nil
}

// ChatConfig returns the session configuration derived from app config
func (c *Container) ChatConfig() chat.Config {
	return chat.Config{
		DisplayWindow:  c.Config.Chat.DisplayWindow,
		SearchWindow:   c.Config.Chat.SearchWindow,
		SearchDebounce: c.Config.Chat.SearchDebounce,
		RequestTimeout: c.Config.AI.RequestTimeout,
	}
}
