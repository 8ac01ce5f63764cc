package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"aipocket/backend/internal/llm"
	"aipocket/backend/internal/models"
	"aipocket/backend/internal/prompt"
	"aipocket/backend/internal/store"
	"aipocket/backend/pkg/logger"
	"aipocket/backend/pkg/observability"
)

// Gating errors for Send
var (
	ErrModelNotReady     = errors.New("completion model is not ready")
	ErrSendInProgress    = errors.New("a send is already in flight")
	ErrBlankMessage      = errors.New("message is blank")
	ErrCharacterNotFound = errors.New("character not found")
)

// Reply texts persisted in place of a model turn
const (
	emptyReplyText   = "（応答がありませんでした）"
	errorReplyPrefix = "エラーが発生しました: "
)

// Config bounds the session's history windows and timing
type Config struct {
	DisplayWindow  int
	SearchWindow   int
	SearchDebounce time.Duration
	RequestTimeout time.Duration
}

// DefaultConfig mirrors the app's stock windows
func DefaultConfig() Config {
	return Config{
		DisplayWindow:  20,
		SearchWindow:   200,
		SearchDebounce: 300 * time.Millisecond,
		RequestTimeout: 30 * time.Second,
	}
}

// Snapshot is the observable state surfaced to the presentation layer
type Snapshot struct {
	Character *models.Character    `json:"character"`
	Messages  []models.ChatMessage `json:"messages"`
	Sending   bool                 `json:"sending"`
	Ready     bool                 `json:"ready"`
	Query     string               `json:"query"`
}

// Session orchestrates one character's conversation: it combines character,
// history and readiness state into snapshots, and drives the send pipeline.
// At most one generation call is outstanding at a time; a second send while
// one is in flight is rejected outright. A send always runs to completion
// and records against the character it started for.
type Session struct {
	characterID uint
	characters  *store.CharacterStore
	history     *store.HistoryStore
	llm         *llm.Reloader
	cfg         Config
	log         *logger.Logger
	metrics     *observability.Metrics

	mu       sync.Mutex
	sending  bool
	query    string
	debounce *time.Timer
	closed   bool

	subMu sync.Mutex
	subs  map[int]chan Snapshot
	next  int

	done chan struct{}
}

// NewSession creates a session for the character
func NewSession(
	characterID uint,
	characters *store.CharacterStore,
	history *store.HistoryStore,
	reloader *llm.Reloader,
	cfg Config,
	log *logger.Logger,
	metrics *observability.Metrics,
) *Session {
	return &Session{
		characterID: characterID,
		characters:  characters,
		history:     history,
		llm:         reloader,
		cfg:         cfg,
		log:         log.WithCharacterID(characterID),
		metrics:     metrics,
		subs:        make(map[int]chan Snapshot),
		done:        make(chan struct{}),
	}
}

// Run republishes snapshots whenever any underlying source changes, until
// the session is closed or the context is cancelled
func (s *Session) Run(ctx context.Context) {
	historyCh, cancelHistory := s.history.Watch(s.characterID)
	defer cancelHistory()
	characterCh, cancelCharacters := s.characters.Watch()
	defer cancelCharacters()
	readyCh, cancelReady := s.llm.Watch()
	defer cancelReady()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.done:
			return
		case <-historyCh:
		case <-characterCh:
		case <-readyCh:
		}
		s.publish()
	}
}

// Close stops the session. An in-flight send still completes and persists.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.debounce != nil {
		s.debounce.Stop()
	}
	close(s.done)
}

// CharacterID returns the character this session is bound to
func (s *Session) CharacterID() uint {
	return s.characterID
}

// Sending reports whether a generation call is outstanding
func (s *Session) Sending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sending
}

// SetQuery updates the search query. Re-querying is debounced by a fixed
// quiescence interval so a query isn't issued per keystroke.
func (s *Session) SetQuery(query string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.cfg.SearchDebounce, func() {
		s.mu.Lock()
		s.query = query
		s.mu.Unlock()
		s.publish()
	})
}

// Query returns the committed (post-debounce) search query
func (s *Session) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// Messages returns the displayed history window: the search window filtered
// by the active query, or the plain display window when no query is set
func (s *Session) Messages() ([]models.ChatMessage, error) {
	query := s.Query()
	if query != "" {
		return s.history.Search(s.characterID, query, s.cfg.SearchWindow)
	}
	return s.history.Recent(s.characterID, s.cfg.DisplayWindow)
}

// Snapshot reads the current combined state
func (s *Session) Snapshot() (Snapshot, error) {
	character, err := s.characters.GetByID(s.characterID)
	if err != nil {
		return Snapshot{}, err
	}

	messages, err := s.Messages()
	if err != nil {
		return Snapshot{}, err
	}

	s.mu.Lock()
	sending := s.sending
	query := s.query
	s.mu.Unlock()

	return Snapshot{
		Character: character,
		Messages:  messages,
		Sending:   sending,
		Ready:     s.llm.Ready(),
		Query:     query,
	}, nil
}

// Subscribe returns a stream of snapshots, current state first. Slow readers
// coalesce to the latest snapshot.
func (s *Session) Subscribe() (<-chan Snapshot, func()) {
	s.subMu.Lock()
	id := s.next
	s.next++
	ch := make(chan Snapshot, 1)
	s.subs[id] = ch
	s.subMu.Unlock()

	if snap, err := s.Snapshot(); err == nil {
		ch <- snap
	}

	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
	return ch, cancel
}

// Send drives one full turn: the user message is durably appended before the
// remote call so it is never lost, the reply (or a visible error message) is
// appended afterwards, and the history is trimmed back to the display
// window. Gating failures return an error and persist nothing; generation
// failures are persisted as a model turn and do not.
func (s *Session) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return ErrBlankMessage
	}

	// Bind the client instance up front; a credential change mid-flight
	// must not affect this call
	client, ok := s.llm.Client()
	if !ok {
		return ErrModelNotReady
	}

	s.mu.Lock()
	if s.sending {
		s.mu.Unlock()
		return ErrSendInProgress
	}
	s.sending = true
	s.mu.Unlock()
	s.publish()

	defer func() {
		s.mu.Lock()
		s.sending = false
		s.mu.Unlock()
		s.publish()
	}()

	character, err := s.characters.GetByID(s.characterID)
	if err != nil {
		return err
	}
	if character == nil {
		return ErrCharacterNotFound
	}

	// The prompt sees the same window the user sees, before the new message
	window, err := s.Messages()
	if err != nil {
		return err
	}

	userMessage := &models.ChatMessage{
		CharacterID:   s.characterID,
		IsUserMessage: true,
		Message:       text,
	}
	if err := s.history.Append(userMessage); err != nil {
		return err
	}

	built := prompt.Build(character, window, text)

	// The call is detached from the caller's cancellation: once a send
	// begins it runs to completion or failure, bounded only by the
	// request timeout
	genCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.RequestTimeout)
	defer cancel()

	start := time.Now()
	reply, genErr := client.Generate(genCtx, built)
	if s.metrics != nil {
		s.metrics.ObserveGeneration(start, genErr)
	}

	var replyText string
	switch {
	case genErr != nil:
		s.log.LogError(genErr, "Generation request failed")
		replyText = errorReplyPrefix + genErr.Error()
	case strings.TrimSpace(reply) == "":
		replyText = emptyReplyText
	default:
		replyText = reply
	}

	modelMessage := &models.ChatMessage{
		CharacterID:   s.characterID,
		IsUserMessage: false,
		Message:       replyText,
	}
	if err := s.history.Append(modelMessage); err != nil {
		return err
	}

	return s.history.Trim(s.characterID, s.cfg.DisplayWindow)
}

// publish fans the current snapshot out to subscribers without blocking
func (s *Session) publish() {
	snap, err := s.Snapshot()
	if err != nil {
		s.log.LogError(err, "Failed to build session snapshot")
		return
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()

	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		// Replace a stale undelivered snapshot with the latest one
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}
