package credentials

import (
	"context"
	"sync"

	"aipocket/backend/internal/store"
	"aipocket/backend/pkg/logger"
	"aipocket/backend/pkg/secrets"
)

// Provider holds the single generation-API secret. The value is persisted in
// the settings store so it survives restarts, and observers are notified on
// every change. The initial value falls back to the secrets manager (Vault or
// environment) when nothing has been persisted yet.
type Provider struct {
	settings *store.SettingStore
	log      *logger.Logger

	mu      sync.Mutex
	current string
	subs    map[int]chan string
	next    int
}

// NewProvider creates a credential provider and loads the initial secret
func NewProvider(ctx context.Context, settings *store.SettingStore, log *logger.Logger) (*Provider, error) {
	value, ok, err := settings.Get(store.SettingAPIKey)
	if err != nil {
		return nil, err
	}
	if !ok || value == "" {
		value = secrets.GetSecretWithDefault(ctx, store.SettingAPIKey, "")
		if value != "" {
			log.Info("API key sourced from secrets manager")
		}
	}

	return &Provider{
		settings: settings,
		log:      log,
		current:  value,
		subs:     make(map[int]chan string),
	}, nil
}

// Get returns the current secret and whether one is configured
func (p *Provider) Get() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, p.current != ""
}

// Set persists the secret and notifies observers
func (p *Provider) Set(secret string) error {
	if err := p.settings.Set(store.SettingAPIKey, secret); err != nil {
		return err
	}

	p.mu.Lock()
	p.current = secret
	for _, ch := range p.subs {
		send(ch, secret)
	}
	p.mu.Unlock()

	p.log.Info("API key updated")
	return nil
}

// Watch returns a stream of secret values. The current value is delivered
// immediately; subsequent changes coalesce so a slow reader always sees the
// latest value.
func (p *Provider) Watch() (<-chan string, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.next
	p.next++

	ch := make(chan string, 1)
	ch <- p.current
	p.subs[id] = ch

	cancel := func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.subs, id)
	}
	return ch, cancel
}

// send delivers the latest value without blocking, replacing a stale
// undelivered one if necessary
func send(ch chan string, value string) {
	select {
	case ch <- value:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- value:
	default:
	}
}
