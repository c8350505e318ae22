package remote

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process ObjectStore used by tests and dry runs. Errors can
// be injected per operation to exercise failure paths.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte

	FailRead  error
	FailWrite error
}

var _ ObjectStore = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{objects: make(map[string][]byte)}
}

func (m *Memory) Exists(ctx context.Context, path string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != nil {
		return false, m.FailRead
	}
	_, ok := m.objects[path]
	return ok, nil
}

func (m *Memory) ReadBytes(ctx context.Context, path string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailRead != nil {
		return nil, m.FailRead
	}
	b, ok := m.objects[path]
	if !ok {
		return nil, fmt.Errorf("memory read %s: %w", path, ErrNotFound)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

func (m *Memory) WriteBytes(ctx context.Context, path string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite != nil {
		return m.FailWrite
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[path] = cp
	return nil
}

func (m *Memory) EnsureDirectory(ctx context.Context, path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWrite != nil {
		return m.FailWrite
	}
	return nil
}

// Snapshot returns a copy of the stored objects, for test assertions.
func (m *Memory) Snapshot() map[string][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string][]byte, len(m.objects))
	for k, v := range m.objects {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}
