package llm

import (
	"context"
	"strings"
	"sync"

	"aipocket/backend/internal/credentials"
	"aipocket/backend/pkg/logger"
)

// Reloader rebuilds the completion client whenever the credential changes and
// exposes readiness as an observable boolean. A blank key or a factory error
// clears the client and flips readiness to false; an in-flight call keeps the
// client instance it was bound to regardless.
type Reloader struct {
	factory Factory
	creds   *credentials.Provider
	log     *logger.Logger

	mu     sync.RWMutex
	client Client
	ready  bool

	watchMu sync.Mutex
	subs    map[int]chan struct{}
	next    int
}

// NewReloader creates a reloader; call Run to start tracking credentials
func NewReloader(factory Factory, creds *credentials.Provider, log *logger.Logger) *Reloader {
	return &Reloader{
		factory: factory,
		creds:   creds,
		log:     log,
		subs:    make(map[int]chan struct{}),
	}
}

// Run tracks credential changes until the context is cancelled. The current
// credential is applied immediately.
func (r *Reloader) Run(ctx context.Context) {
	ch, cancel := r.creds.Watch()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case key := <-ch:
			r.rebuild(ctx, key)
		}
	}
}

func (r *Reloader) rebuild(ctx context.Context, apiKey string) {
	var client Client
	var ready bool

	if strings.TrimSpace(apiKey) == "" {
		r.log.Info("API key is blank, completion client not initialized")
	} else {
		built, err := r.factory(ctx, apiKey)
		if err != nil {
			r.log.LogError(err, "Completion client initialization failed")
		} else {
			client = built
			ready = true
			r.log.Info("Completion client initialized")
		}
	}

	r.mu.Lock()
	r.client = client
	r.ready = ready
	r.mu.Unlock()

	r.notify()
}

// Client returns the current client and whether one is ready
func (r *Reloader) Client() (Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.client, r.ready
}

// Ready reports whether a usable client is constructed
func (r *Reloader) Ready() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.ready
}

// Watch returns a channel that ticks on every readiness change, with an
// initial tick so subscribers read the current state immediately
func (r *Reloader) Watch() (<-chan struct{}, func()) {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()

	id := r.next
	r.next++

	ch := make(chan struct{}, 1)
	ch <- struct{}{}
	r.subs[id] = ch

	cancel := func() {
		r.watchMu.Lock()
		defer r.watchMu.Unlock()
		delete(r.subs, id)
	}
	return ch, cancel
}

func (r *Reloader) notify() {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()

	for _, ch := range r.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
