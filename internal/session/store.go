// ABOUTME: Session store holding the current user, backed by durable storage
// ABOUTME: Orders concurrent writes with monotonic tickets and notifies observers

package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

// DefaultKey is the storage key for the persisted session record
const DefaultKey = "auth-user"

// ErrStaleWrite is returned when a write carries a ticket older than the last
// applied write, or when a conditional clear finds a newer credential. The
// write is discarded.
var ErrStaleWrite = errors.New("stale session write discarded")

// Ticket orders writes to the store. Later tickets win.
type Ticket uint64

// Observer is called after each applied write with the new current session
// (nil after a clear). Observers run synchronously and must not write to the
// store.
type Observer func(current *Session)

type observerEntry struct {
	id int
	fn Observer
}

// Store is the single source of truth for the signed-in user
type Store struct {
	storage Storage
	key     string
	logger  *slog.Logger

	// writeMu serializes write+notify so observers see writes in order
	writeMu sync.Mutex

	mu      sync.RWMutex
	current *Session
	applied Ticket

	issued atomic.Uint64

	obsMu     sync.Mutex
	observers []observerEntry
	nextObsID int

	watchMu   sync.Mutex
	stopWatch func()
}

// Option configures a Store
type Option func(*Store)

// WithKey overrides the storage key
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger used for storage anomalies
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a store and rehydrates it from storage.
// A missing or malformed record leaves the store empty.
func New(storage Storage, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     DefaultKey,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.current = s.load()
	if s.current != nil {
		s.logger.Debug("Session rehydrated", "username", s.current.Username)
	}
	return s
}

// load reads and decodes the persisted record, treating any anomaly as absent
func (s *Store) load() *Session {
	raw, ok, err := s.storage.Get(s.key)
	if err != nil {
		s.logger.Warn("Session storage read failed", "error", err)
		return nil
	}
	if !ok {
		return nil
	}

	var sess Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil || sess.Username == "" {
		s.logger.Warn("Discarding malformed session record", "key", s.key, "error", err)
		if rmErr := s.storage.Remove(s.key); rmErr != nil {
			s.logger.Warn("Failed to remove malformed session record", "error", rmErr)
		}
		return nil
	}
	return &sess
}

// Current returns a copy of the cached session, or nil when signed out
func (s *Store) Current() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// IsAuthenticated returns true if a session is cached
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current != nil
}

// Ticket issues a new write ticket. Take it when an operation starts so a
// slow operation cannot overwrite the result of one that started later.
func (s *Store) Ticket() Ticket {
	return Ticket(s.issued.Add(1))
}

// Save persists sess with a fresh ticket; it always applies
func (s *Store) Save(sess *Session) error {
	return s.SaveAt(s.Ticket(), sess)
}

// Clear removes the session with a fresh ticket; it always applies
func (s *Store) Clear() error {
	return s.ClearAt(s.Ticket())
}

// SaveAt persists sess if t is newer than the last applied write
func (s *Store) SaveAt(t Ticket, sess *Session) error {
	if sess == nil {
		return s.ClearAt(t)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	return s.apply(t, sess.Clone(), func() error {
		return s.storage.Set(s.key, string(data))
	})
}

// ClearAt removes the session if t is newer than the last applied write
func (s *Store) ClearAt(t Ticket) error {
	return s.apply(t, nil, func() error {
		return s.storage.Remove(s.key)
	})
}

// ClearIf removes the session only while it still carries token, the
// credential a rejected request or failed validation was made with. A session
// saved since then is kept and ErrStaleWrite is returned. An empty store is
// cleared again so the durable record cannot linger.
func (s *Store) ClearIf(token string) error {
	return s.applyIf(s.Ticket(), func(current *Session) bool {
		return current == nil || current.Token == token
	}, nil, func() error {
		return s.storage.Remove(s.key)
	})
}

func (s *Store) apply(t Ticket, next *Session, write func() error) error {
	return s.applyIf(t, nil, next, write)
}

// applyIf applies a write when t is newer than the last applied write and
// cond, if set, accepts the current session
func (s *Store) applyIf(t Ticket, cond func(current *Session) bool, next *Session, write func() error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	s.mu.Lock()
	if t <= s.applied {
		applied := s.applied
		s.mu.Unlock()
		s.logger.Debug("Discarding stale session write", "ticket", t, "applied", applied)
		return ErrStaleWrite
	}
	if cond != nil && !cond(s.current) {
		s.mu.Unlock()
		s.logger.Debug("Keeping session saved with a newer credential")
		return ErrStaleWrite
	}
	if err := write(); err != nil {
		s.mu.Unlock()
		return fmt.Errorf("session storage write failed: %w", err)
	}
	s.current = next
	s.applied = t
	s.mu.Unlock()

	if next != nil {
		s.logger.Debug("Session saved", "username", next.Username)
	} else {
		s.logger.Debug("Session cleared")
	}
	s.notify(next)
	return nil
}

// Reload re-reads storage and applies it when it differs from the cache.
// Used when another process changed the durable record.
func (s *Store) Reload() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.load()

	s.mu.Lock()
	if s.current.Equal(next) {
		s.mu.Unlock()
		return
	}
	s.current = next
	s.applied = Ticket(s.issued.Add(1))
	s.mu.Unlock()

	s.logger.Debug("Session reloaded from storage", "authenticated", next != nil)
	s.notify(next.Clone())
}

// Subscribe registers an observer and returns a function that removes it
func (s *Store) Subscribe(fn Observer) func() {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()

	s.nextObsID++
	id := s.nextObsID
	s.observers = append(s.observers, observerEntry{id: id, fn: fn})

	return func() {
		s.obsMu.Lock()
		defer s.obsMu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify(current *Session) {
	s.obsMu.Lock()
	observers := make([]observerEntry, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.Unlock()

	for _, o := range observers {
		o.fn(current.Clone())
	}
}

// Close stops any file watcher and closes the storage
func (s *Store) Close() error {
	s.watchMu.Lock()
	if s.stopWatch != nil {
		s.stopWatch()
		s.stopWatch = nil
	}
	s.watchMu.Unlock()
	return s.storage.Close()
}
