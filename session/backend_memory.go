package session

import (
	"context"
	"sync"
)

// MemoryBackend keeps the blob in process memory. It is the reference backend
// for tests and for clients that do not need sessions to survive restarts.
type MemoryBackend struct {
	mu      sync.Mutex
	data    []byte
	present bool
	puts    int
	deletes int
}

// NewMemoryBackend returns an empty MemoryBackend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// NewMemoryBackendWith returns a MemoryBackend pre-seeded with data.
func NewMemoryBackendWith(data []byte) *MemoryBackend {
	b := &MemoryBackend{}
	b.data = append([]byte(nil), data...)
	b.present = true
	return b
}

func (b *MemoryBackend) Get(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.present {
		return nil, ErrRecordNotFound
	}
	return append([]byte(nil), b.data...), nil
}

func (b *MemoryBackend) Put(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = append(b.data[:0], data...)
	b.present = true
	b.puts++
	return nil
}

func (b *MemoryBackend) Delete(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data = nil
	b.present = false
	b.deletes++
	return nil
}

// Writes returns how many Put and Delete calls the backend has served.
func (b *MemoryBackend) Writes() (puts, deletes int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.puts, b.deletes
}
