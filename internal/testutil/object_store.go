package testutil

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/yukikurage/solver-marketplace-api/internal/storage"
)

// MemoryObjectStore keeps uploads in memory.
type MemoryObjectStore struct {
	mu      sync.Mutex
	Objects map[string][]byte
	Err     error
}

func NewMemoryObjectStore() *MemoryObjectStore {
	return &MemoryObjectStore{Objects: make(map[string][]byte)}
}

func (m *MemoryObjectStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (*storage.Object, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) != size {
		return nil, errors.New("size mismatch")
	}

	m.mu.Lock()
	m.Objects[key] = data
	m.mu.Unlock()

	return &storage.Object{Key: key, URL: "memory://" + key, Size: size}, nil
}
