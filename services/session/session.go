package session

import (
	"context"
	"sync"

	"mediatrack/clients/storage"
	"mediatrack/services/media"
)

// Registry hands out the per-user media engine. Each authenticated user gets
// one media.Service holding that user's projection, created lazily on first
// use with a full load, and dropped on sign-out or account removal.
type Registry struct {
	db storage.DocumentStore

	mu      sync.Mutex
	engines map[string]media.Service
}

func NewRegistry(db storage.DocumentStore) *Registry {
	return &Registry{
		db:      db,
		engines: make(map[string]media.Service),
	}
}

// For returns the engine for uid, loading the projection on first use. An
// engine is only cached after a successful initial load.
func (r *Registry) For(ctx context.Context, uid string) (media.Service, error) {
	r.mu.Lock()
	engine, ok := r.engines[uid]
	r.mu.Unlock()
	if ok {
		return engine, nil
	}

	engine = media.NewService(r.db)
	if err := engine.Load(ctx, uid); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.engines[uid]; ok {
		return existing, nil
	}
	r.engines[uid] = engine
	return engine, nil
}

// Drop discards a user's engine. The next For re-loads from the store.
func (r *Registry) Drop(uid string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.engines, uid)
}
