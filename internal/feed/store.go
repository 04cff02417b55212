// Package feed keeps the latest detection snapshot and notifies live subscribers.
package feed

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/marinedrive/phyto-backend/internal/models"
)

// Store holds the current detection array
type Store struct {
	mu     sync.RWMutex
	data   []models.Detection
	subs   map[string]func()
	logger *zap.Logger
}

// NewStore creates an empty store
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		data:   []models.Detection{},
		subs:   make(map[string]func()),
		logger: logger,
	}
}

// Get returns a copy of the current snapshot
func (s *Store) Get() []models.Detection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Detection, len(s.data))
	copy(out, s.data)
	return out
}

// Set replaces the snapshot and notifies every subscriber
func (s *Store) Set(items []models.Detection) {
	cp := make([]models.Detection, len(items))
	copy(cp, items)

	s.mu.Lock()
	s.data = cp
	fns := make([]func(), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		s.notify(fn)
	}
}

func (s *Store) notify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Warn("feed subscriber panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// Subscribe registers fn to be called after every Set.
// The returned function removes the subscription and is safe to call more than once.
func (s *Store) Subscribe(fn func()) func() {
	id := uuid.NewString()

	s.mu.Lock()
	s.subs[id] = fn
	s.mu.Unlock()
	s.logger.Debug("feed subscriber added", zap.String("id", id))

	return func() {
		s.mu.Lock()
		_, ok := s.subs[id]
		delete(s.subs, id)
		s.mu.Unlock()
		if ok {
			s.logger.Debug("feed subscriber removed", zap.String("id", id))
		}
	}
}

// Subscribers returns the number of active subscriptions
func (s *Store) Subscribers() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.subs)
}
