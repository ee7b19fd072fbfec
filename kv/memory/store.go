package memory

import (
	"context"
	"sync"

	"github.com/restoflow/restoflow-mobile/kv"
)

type memory struct {
	sync.RWMutex

	values map[string]string
}

func NewInMemory() kv.Store {
	return &memory{
		values: make(map[string]string),
	}
}

func (m *memory) reset() {
	m.Lock()
	defer m.Unlock()

	m.values = make(map[string]string)
}

func (m *memory) Get(_ context.Context, key string) (string, error) {
	m.RLock()
	defer m.RUnlock()

	value, ok := m.values[key]
	if !ok {
		return "", kv.ErrNotFound
	}

	return value, nil
}

func (m *memory) Set(_ context.Context, key, value string) error {
	m.Lock()
	defer m.Unlock()

	m.values[key] = value
	return nil
}

func (m *memory) SetMany(_ context.Context, entries map[string]string) error {
	m.Lock()
	defer m.Unlock()

	for key, value := range entries {
		m.values[key] = value
	}

	return nil
}

func (m *memory) Delete(_ context.Context, keys ...string) error {
	m.Lock()
	defer m.Unlock()

	for _, key := range keys {
		delete(m.values, key)
	}

	return nil
}
