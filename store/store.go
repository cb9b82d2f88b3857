package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"shadow-ledger/ledger"
	"shadow-ledger/models"
)

// Memory holds ledger entries in memory, indexed by id and by account
type Memory struct {
	entries   map[string]models.Entry
	order     []string            // insertion order
	byAccount map[string][]string // account id -> entry ids, insertion order
	mutex     sync.RWMutex
}

// NewMemory returns an empty in-memory store
func NewMemory() *Memory {
	return &Memory{
		entries:   make(map[string]models.Entry),
		byAccount: make(map[string][]string),
	}
}

// Insert appends a valid entry. Ids must be unique.
func (s *Memory) Insert(_ context.Context, e models.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if _, exists := s.entries[e.ID]; exists {
		return fmt.Errorf("entry %s already exists", e.ID)
	}
	s.entries[e.ID] = e
	s.order = append(s.order, e.ID)
	seen := make(map[string]bool, 2)
	for _, acc := range e.Accounts() {
		if seen[acc] {
			continue
		}
		seen[acc] = true
		s.byAccount[acc] = append(s.byAccount[acc], e.ID)
	}
	return nil
}

// Get retrieves an entry by id
func (s *Memory) Get(_ context.Context, id string) (models.Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	e, exists := s.entries[id]
	if !exists {
		return models.Entry{}, ledger.ErrNotFound
	}
	return e, nil
}

// UpdateStatus changes the status (and posted time) of an existing entry
func (s *Memory) UpdateStatus(_ context.Context, id string, status models.Status, postedAt *time.Time) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	e, exists := s.entries[id]
	if !exists {
		return ledger.ErrNotFound
	}
	e.Status = status
	e.PostedAt = postedAt
	s.entries[id] = e
	return nil
}

// ListByAccount returns the entries touching accountID, newest first
func (s *Memory) ListByAccount(_ context.Context, accountID string) ([]models.Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.collect(s.byAccount[accountID]), nil
}

// List returns every entry, newest first
func (s *Memory) List(_ context.Context) ([]models.Entry, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.collect(s.order), nil
}

// Ping always succeeds
func (s *Memory) Ping(context.Context) error { return nil }

// Close is a no-op
func (s *Memory) Close() {}

func (s *Memory) collect(ids []string) []models.Entry {
	out := make([]models.Entry, 0, len(ids))
	for i := len(ids) - 1; i >= 0; i-- {
		out = append(out, s.entries[ids[i]])
	}
	return out
}
