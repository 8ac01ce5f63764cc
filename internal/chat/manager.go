package chat

import (
	"context"
	"sync"

	"aipocket/backend/internal/llm"
	"aipocket/backend/internal/store"
	"aipocket/backend/pkg/logger"
	"aipocket/backend/pkg/observability"
)

// Manager hands out one session per character. Sessions are created lazily
// on first selection and run until dropped.
type Manager struct {
	characters *store.CharacterStore
	history    *store.HistoryStore
	llm        *llm.Reloader
	cfg        Config
	log        *logger.Logger
	metrics    *observability.Metrics

	mu       sync.Mutex
	sessions map[uint]*Session
}

// NewManager creates a session manager
func NewManager(
	characters *store.CharacterStore,
	history *store.HistoryStore,
	reloader *llm.Reloader,
	cfg Config,
	log *logger.Logger,
	metrics *observability.Metrics,
) *Manager {
	return &Manager{
		characters: characters,
		history:    history,
		llm:        reloader,
		cfg:        cfg,
		log:        log,
		metrics:    metrics,
		sessions:   make(map[uint]*Session),
	}
}

// Get returns the session for the character, creating and starting it if needed
func (m *Manager) Get(characterID uint) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if session, ok := m.sessions[characterID]; ok {
		return session
	}

	session := NewSession(characterID, m.characters, m.history, m.llm, m.cfg, m.log, m.metrics)
	m.sessions[characterID] = session
	go session.Run(context.Background())
	return session
}

// Drop closes and forgets the character's session, typically after the
// character is deleted. An in-flight send still completes against the
// original character id.
func (m *Manager) Drop(characterID uint) {
	m.mu.Lock()
	session, ok := m.sessions[characterID]
	if ok {
		delete(m.sessions, characterID)
	}
	m.mu.Unlock()

	if ok {
		session.Close()
	}
}

// Close shuts down all sessions
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, session := range m.sessions {
		sessions = append(sessions, session)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, session := range sessions {
		session.Close()
	}
}
