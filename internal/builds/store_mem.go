package builds

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemStore keeps builds in memory; used by the CLI without a database and by tests.
type MemStore struct {
	mu     sync.RWMutex
	builds map[string]Build
}

func NewMemStore() *MemStore {
	return &MemStore{builds: map[string]Build{}}
}

func (m *MemStore) Insert(_ context.Context, b Build) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.builds[b.ID]; ok {
		return fmt.Errorf("build %s already exists", b.ID)
	}
	m.builds[b.ID] = b
	return nil
}

func (m *MemStore) Get(_ context.Context, id string) (Build, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.builds[id]
	if !ok {
		return Build{}, ErrNotFound
	}
	return b, nil
}

func (m *MemStore) List(_ context.Context, opts ListOpts) ([]Build, error) {
	m.mu.RLock()
	out := make([]Build, 0, len(m.builds))
	for _, b := range m.builds {
		if opts.Version == "" || b.ScormVersion == opts.Version {
			out = append(out, b)
		}
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	off := max(opts.Offset, 0)
	if off >= len(out) {
		return []Build{}, nil
	}
	out = out[off:]
	if n := clampLimit(opts.Limit); len(out) > n {
		out = out[:n]
	}
	return out, nil
}
