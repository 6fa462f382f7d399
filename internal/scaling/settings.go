package scaling

import (
	"context"
	"sync"
)

// LearnedFactorsKey is the settings key holding the learned-factor blob.
const LearnedFactorsKey = "scaling_factors.learned_factors"

// Settings is a string key-value store. The store package provides the
// database-backed implementation.
type Settings interface {
	// GetSetting returns the value for key, or ok=false if unset.
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)

	// PutSetting stores value under key, replacing any previous value.
	PutSetting(ctx context.Context, key, value string) error
}

// MemorySettings is an in-process Settings implementation.
type MemorySettings struct {
	mu     sync.Mutex
	values map[string]string
}

// NewMemorySettings returns an empty MemorySettings.
func NewMemorySettings() *MemorySettings {
	return &MemorySettings{values: make(map[string]string)}
}

func (m *MemorySettings) GetSetting(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemorySettings) PutSetting(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}
