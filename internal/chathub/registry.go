package chathub

import (
	"log/slog"
	"sort"
	"sync"

	"babelbye/backend/internal/models"
)

// Registry maps each user id to its single live session. Sessions never talk
// to each other directly; every cross-session event goes through Send.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]Client
	log     *slog.Logger

	// Serializes session arrival and departure hooks, never held by Send.
	lifecycle sync.Mutex
}

func NewRegistry(log *slog.Logger) *Registry {
	return &Registry{
		clients: make(map[string]Client),
		log:     log,
	}
}

// Register inserts c, replacing any session already held for the same user.
// The replaced session is not closed here.
func (r *Registry) Register(c Client) {
	r.mu.Lock()
	_, replaced := r.clients[c.GetUserID()]
	r.clients[c.GetUserID()] = c
	r.mu.Unlock()

	if replaced {
		r.log.Info("session replaced", "user_id", c.GetUserID())
	}
}

// Unregister removes whatever session is held for userID.
func (r *Registry) Unregister(userID string) {
	r.mu.Lock()
	delete(r.clients, userID)
	r.mu.Unlock()
}

// Release removes c only if it is still the registered session for its
// user, so a superseded session cannot evict its replacement.
func (r *Registry) Release(c Client) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.clients[c.GetUserID()]; ok && cur == c {
		delete(r.clients, c.GetUserID())
		return true
	}
	return false
}

// Attach registers c and runs onAttach before any other session can be
// attached or detached. Presence updates made in the hooks therefore land in
// the same order as the registry changes.
func (r *Registry) Attach(c Client, onAttach func()) {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	r.Register(c)
	if onAttach != nil {
		onAttach()
	}
}

// Detach releases c and, only if it was still the registered session, runs
// onDetach under the same ordering as Attach.
func (r *Registry) Detach(c Client, onDetach func()) bool {
	r.lifecycle.Lock()
	defer r.lifecycle.Unlock()

	if !r.Release(c) {
		return false
	}
	if onDetach != nil {
		onDetach()
	}
	return true
}

// Send hands evt to userID's session. A user without a session is a silent
// miss: nothing is queued for later.
func (r *Registry) Send(userID string, evt models.ServerEvent) bool {
	r.mu.RLock()
	c, ok := r.clients[userID]
	r.mu.RUnlock()

	if !ok {
		return false
	}
	return c.Deliver(evt)
}

// Online returns the ids of every user with a live session, sorted.
func (r *Registry) Online() []string {
	r.mu.RLock()
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	r.mu.RUnlock()

	sort.Strings(ids)
	return ids
}

// IsOnline reports whether userID currently holds a session.
func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.clients[userID]
	return ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// CloseAll closes every registered session. Used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.RLock()
	clients := make([]Client, 0, len(r.clients))
	for _, c := range r.clients {
		clients = append(clients, c)
	}
	r.mu.RUnlock()

	for _, c := range clients {
		c.Close()
	}
}
