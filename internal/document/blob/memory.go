package blob

import (
	"context"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"campusbourses/pkg/platform/sentinel"
)

// Memory keeps blobs in a map for tests and local runs.
type Memory struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{blobs: make(map[string][]byte)}
}

func (m *Memory) Save(_ context.Context, filename string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	handle := uuid.NewString() + strings.ToLower(filepath.Ext(filename))
	m.blobs[handle] = append([]byte(nil), data...)
	return handle, nil
}

func (m *Memory) Delete(_ context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.blobs[handle]; !ok {
		return sentinel.ErrNotFound
	}
	delete(m.blobs, handle)
	return nil
}

func (m *Memory) Size(_ context.Context, handle string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.blobs[handle]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	return int64(len(data)), nil
}

// Len reports the number of stored blobs. Test helper.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.blobs)
}
