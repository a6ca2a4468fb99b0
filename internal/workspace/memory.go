package workspace

import (
	"context"
	"sync"
	"time"

	"github.com/in-nis/smartschedule-back/internal/models"
)

type Memory struct {
	mu    sync.Mutex
	items map[string]*models.Workspace
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]*models.Workspace)}
}

func (m *Memory) lookup(id string) *models.Workspace {
	w, ok := m.items[id]
	if !ok {
		w = models.NewWorkspace(id)
		m.items[id] = w
	}
	return w
}

func (m *Memory) Get(_ context.Context, id string) (models.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lookup(id).Clone(), nil
}

func (m *Memory) Update(_ context.Context, id string, fn UpdateFunc) (models.Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.lookup(id)
	draft := current.Clone()
	if err := fn(&draft); err != nil {
		return current.Clone(), err
	}
	touch(&draft)
	m.items[id] = &draft
	return draft.Clone(), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *Memory) Sweep(_ context.Context, idle time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().UTC().Add(-idle)
	removed := 0
	for id, w := range m.items {
		if w.Busy || w.UpdatedAt.After(cutoff) {
			continue
		}
		delete(m.items, id)
		removed++
	}
	return removed, nil
}
