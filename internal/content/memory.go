// Package content stores uploaded file bytes. Node metadata lives in the tree
// store; content is addressed only by an opaque content ID.
package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/YugenJarwal13/InternalDMS/internal/domain"
	docsysRepo "github.com/YugenJarwal13/InternalDMS/internal/domain/repositories/docsystem"
)

// MemoryStore keeps content in a map. Nothing survives a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: map[string][]byte{}}
}

var _ docsysRepo.ContentStore = (*MemoryStore)(nil)

func (s *MemoryStore) Write(ctx context.Context, id string, r io.Reader) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("read content %s: %w", id, err)
	}

	s.mu.Lock()
	s.blobs[id] = data
	s.mu.Unlock()
	return int64(len(data)), nil
}

func (s *MemoryStore) Open(ctx context.Context, id string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	data, ok := s.blobs[id]
	s.mu.RUnlock()

	if !ok {
		return nil, notFound(id)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.blobs, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) HealthCheck(context.Context) error {
	return nil
}

// Len reports the number of stored blobs.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

func notFound(id string) error {
	return &domain.NotFoundError{Message: fmt.Sprintf("content %s not found", id)}
}
