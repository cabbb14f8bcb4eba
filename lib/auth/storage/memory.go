package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps the credential record in process memory. Used as the
// injectable stand-in for persistent storage in tests.
type MemoryStore struct {
	mu      sync.Mutex
	record  Record
	profile []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(ctx context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = record
	return nil
}

func (s *MemoryStore) Read(ctx context.Context) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record = Record{}
	s.profile = nil
	return nil
}

func (s *MemoryStore) SaveProfile(ctx context.Context, profile []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profile = append([]byte(nil), profile...)
	return nil
}

func (s *MemoryStore) ReadProfile(ctx context.Context) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

var _ Store = &MemoryStore{}
