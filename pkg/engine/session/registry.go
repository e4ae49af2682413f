package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Commander is the surface a registry caller needs to drive a session.
// *Controller implements it.
type Commander interface {
	Start(ctx context.Context, mode Mode) error
	Stop()
	SendText(text string) error
	SwitchMode(mode Mode) error
	Status() Status
}

// Registry tracks live sessions by ID so callers holding only an
// identifier (a store row, a command argument) can reach the session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]Commander
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]Commander)}
}

// Register adds a session and returns its new ID.
func (r *Registry) Register(c Commander) string {
	id := uuid.NewString()
	r.mu.Lock()
	r.sessions[id] = c
	r.mu.Unlock()
	return id
}

// Get returns the session for id.
func (r *Registry) Get(id string) (Commander, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session: unknown id %q", id)
	}
	return c, nil
}

// Remove stops and forgets the session for id. Unknown IDs are ignored.
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	c := r.sessions[id]
	delete(r.sessions, id)
	r.mu.Unlock()
	if c != nil {
		c.Stop()
	}
}

// IDs returns the registered session IDs in no particular order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	return ids
}
