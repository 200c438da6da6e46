package cart

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// SessionTTL is how long an untouched cart lives before it is discarded.
	SessionTTL = 30 * time.Minute

	// CleanupInterval is how often idle sessions are swept.
	CleanupInterval = time.Minute
)

// Registry owns one Store per session. Stores never share state.
type Registry struct {
	mu     sync.RWMutex
	stores map[string]*Store
	opts   []Option
	ttl    time.Duration

	stopCleanup chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewRegistry(ttl, interval time.Duration, opts ...Option) *Registry {
	if ttl <= 0 {
		ttl = SessionTTL
	}
	if interval <= 0 {
		interval = CleanupInterval
	}
	r := &Registry{
		stores:      make(map[string]*Store),
		opts:        opts,
		ttl:         ttl,
		stopCleanup: make(chan struct{}),
	}

	r.wg.Add(1)
	go r.cleanupLoop(interval)

	return r
}

// Open starts a new session with an empty cart.
func (r *Registry) Open() *Store {
	store := NewStore(uuid.NewString(), r.opts...)

	r.mu.Lock()
	r.stores[store.ID()] = store
	r.mu.Unlock()

	return store
}

func (r *Registry) Get(sessionID string) (*Store, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	store, ok := r.stores[sessionID]
	return store, ok
}

// Close discards a session. Unknown ids are ignored.
func (r *Registry) Close(sessionID string) {
	r.mu.Lock()
	store, ok := r.stores[sessionID]
	delete(r.stores, sessionID)
	r.mu.Unlock()

	if ok {
		store.Close()
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.stores)
}

// Stop ends the cleanup loop and closes every store.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCleanup)
	})
	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()
	for id, store := range r.stores {
		store.Close()
		delete(r.stores, id)
	}
}

func (r *Registry) cleanupLoop(interval time.Duration) {
	defer r.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.expireSessions(time.Now())
		case <-r.stopCleanup:
			return
		}
	}
}

func (r *Registry) expireSessions(now time.Time) {
	r.mu.Lock()
	var expired []*Store
	for id, store := range r.stores {
		if now.Sub(store.idleSince()) > r.ttl {
			expired = append(expired, store)
			delete(r.stores, id)
		}
	}
	r.mu.Unlock()

	for _, store := range expired {
		store.Close()
	}
}
