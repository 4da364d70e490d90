// Package session manages live viewer sessions.
//
// A session pairs a generated id with a persisted viewer-state snapshot
// and an expiry. The HTTP server creates one session per connected
// viewer, replays its stored state into an in-process viewer on demand,
// and writes the state back after every mutation, so a session survives
// server restarts and can be shared between instances.
//
// Two backends implement [Store]: [MemoryStore] for single-instance and
// test use, and [MongoStore] for shared deployments.
//
// # Usage
//
//	sess := session.New("lysozyme", session.DefaultTTL)
//	if err := store.Put(ctx, sess); err != nil { ... }
//
//	sess, err := store.Get(ctx, id)
//	if errors.Is(err, session.ErrNotFound) { ... }
package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultTTL is how long a session lives without being touched.
const DefaultTTL = 24 * time.Hour

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist.
	ErrNotFound = errors.New("session not found")

	// ErrExpired is returned when a session exists but has expired.
	ErrExpired = errors.New("session expired")
)

// Session is one live viewer with its persisted state.
type Session struct {
	ID   string `bson:"_id" json:"id"`
	Name string `bson:"name" json:"name"`

	// State is the serialized state.ViewerState snapshot. Raw bytes so
	// the store never needs to understand the state format.
	State json.RawMessage `bson:"state,omitempty" json:"state,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
}

// New creates a session with a fresh uuid4 id.
func New(name string, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Expired reports whether the session's TTL has elapsed.
func (s *Session) Expired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Touch extends the expiry and bumps the update timestamp.
func (s *Session) Touch(ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := time.Now().UTC()
	s.UpdatedAt = now
	s.ExpiresAt = now.Add(ttl)
}

// Store is the interface for session storage backends.
type Store interface {
	// Get retrieves a session by id. Returns ErrNotFound if it does not
	// exist and ErrExpired if it exists but has expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Put stores or replaces a session.
	Put(ctx context.Context, s *Session) error

	// Delete removes a session. Deleting a missing session is not an
	// error.
	Delete(ctx context.Context, id string) error

	// List returns all live sessions, newest first.
	List(ctx context.Context) ([]*Session, error)

	// Cleanup removes expired sessions.
	Cleanup(ctx context.Context) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// MemoryStore is an in-memory Store for single-instance servers and
// tests.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Get retrieves a session by id.
func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.Expired() {
		return nil, ErrExpired
	}
	cp := *s
	return &cp, nil
}

// Put stores or replaces a session.
func (m *MemoryStore) Put(ctx context.Context, s *Session) error {
	cp := *s
	m.mu.Lock()
	m.sessions[s.ID] = &cp
	m.mu.Unlock()
	return nil
}

// Delete removes a session.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return nil
}

// List returns all live sessions, newest first.
func (m *MemoryStore) List(ctx context.Context) ([]*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		if s.Expired() {
			continue
		}
		cp := *s
		out = append(out, &cp)
	}
	sortSessions(out)
	return out, nil
}

// Cleanup removes expired sessions.
func (m *MemoryStore) Cleanup(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		if s.Expired() {
			delete(m.sessions, id)
		}
	}
	return nil
}

// Close is a no-op for the memory store.
func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func sortSessions(ss []*Session) {
	// Insertion sort: session lists are small.
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j].UpdatedAt.After(ss[j-1].UpdatedAt); j-- {
			ss[j], ss[j-1] = ss[j-1], ss[j]
		}
	}
}
