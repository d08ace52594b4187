package session

import (
	"sync"
	"time"

	"github.com/trananhduc/event-assistant/internal/core/domain"
)

type sessionEntry struct {
	messages []domain.ChatMessage
	pending  *domain.PendingEvent
	lastSeen time.Time
}

type orderEntry struct {
	order    *domain.PendingOrder
	lastSeen time.Time
}

// Store holds per-session chat state and per-user pending orders in
// process memory. Entries untouched for longer than the TTL are swept.
// Callers serialize turns per key; the store guarantees only map safety.
type Store struct {
	mu       sync.RWMutex
	ttl      time.Duration
	sessions map[string]*sessionEntry
	orders   map[string]*orderEntry
	done     chan struct{}
	stopOnce sync.Once
}

func NewStore(ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	s := &Store{
		ttl:      ttl,
		sessions: make(map[string]*sessionEntry),
		orders:   make(map[string]*orderEntry),
		done:     make(chan struct{}),
	}
	go s.sweepLoop()
	return s
}

func (s *Store) Close() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Store) sweepLoop() {
	interval := s.ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.sweep(now)
		}
	}
}

func (s *Store) sweep(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, entry := range s.sessions {
		if now.Sub(entry.lastSeen) > s.ttl {
			delete(s.sessions, key)
		}
	}
	for key, entry := range s.orders {
		if now.Sub(entry.lastSeen) > s.ttl {
			delete(s.orders, key)
		}
	}
}

func (s *Store) History(key string) []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[key]
	if !ok {
		return nil
	}
	out := make([]domain.ChatMessage, len(entry.messages))
	copy(out, entry.messages)
	return out
}

func (s *Store) AppendMessage(key string, msg domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.session(key)
	entry.messages = append(entry.messages, msg)
	entry.lastSeen = time.Now()
}

func (s *Store) DeleteSession(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

func (s *Store) PendingEvent(key string) (*domain.PendingEvent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.sessions[key]
	if !ok || entry.pending == nil {
		return nil, false
	}
	return entry.pending, true
}

// SetPendingEvent overwrites any unresolved pending event for the key.
func (s *Store) SetPendingEvent(key string, pending *domain.PendingEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := s.session(key)
	entry.pending = pending
	entry.lastSeen = time.Now()
}

func (s *Store) ClearPendingEvent(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.sessions[key]; ok {
		entry.pending = nil
	}
}

func (s *Store) PendingOrder(userID string) (*domain.PendingOrder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.orders[userID]
	if !ok {
		return nil, false
	}
	return entry.order, true
}

func (s *Store) SetPendingOrder(userID string, pending *domain.PendingOrder) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders[userID] = &orderEntry{order: pending, lastSeen: time.Now()}
}

func (s *Store) ClearPendingOrder(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.orders, userID)
}

// session must be called with the write lock held.
func (s *Store) session(key string) *sessionEntry {
	entry, ok := s.sessions[key]
	if !ok {
		entry = &sessionEntry{lastSeen: time.Now()}
		s.sessions[key] = entry
	}
	return entry
}
