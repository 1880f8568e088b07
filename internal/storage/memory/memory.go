package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/ButyrinIA/spacetraveling/internal/models"
	"github.com/ButyrinIA/spacetraveling/internal/storage"
)

var errEmptySlug = errors.New("snapshot slug is empty")

type MemoryStorage struct {
	snapshots map[string]models.Snapshot
	mu        sync.RWMutex
}

var _ storage.Storage = (*MemoryStorage)(nil)

func New() *MemoryStorage {
	return &MemoryStorage{
		snapshots: make(map[string]models.Snapshot),
	}
}

func (s *MemoryStorage) SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	if snapshot.Slug == "" {
		return errEmptySlug
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snapshot.Slug] = *snapshot
	return nil
}

func (s *MemoryStorage) GetSnapshot(ctx context.Context, slug string) (*models.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, exists := s.snapshots[slug]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return &snapshot, nil
}

func (s *MemoryStorage) DeleteSnapshot(ctx context.Context, slug string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, slug)
	return nil
}

// Close очищает хранилище
func (s *MemoryStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots = make(map[string]models.Snapshot)
	return nil
}
