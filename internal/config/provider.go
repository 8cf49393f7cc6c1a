package config

import (
	"sync"
	"sync/atomic"

	"github.com/harunnryd/lcaflow/internal/environ"
)

// LoadFunc produces Settings for a Provider.
type LoadFunc func() (*Settings, error)

// SnapshotLoader loads from snap and creates the configured directories.
func SnapshotLoader(snap *environ.Snapshot) LoadFunc {
	return func() (*Settings, error) {
		return LoadAndPrepare(snap)
	}
}

// Provider memoizes Settings. Concurrent first calls run load at most once;
// later calls are a single atomic load. Failed loads are not cached.
type Provider struct {
	load LoadFunc

	mu      sync.Mutex
	current atomic.Pointer[Settings]
}

// NewProvider wraps load.
func NewProvider(load LoadFunc) *Provider {
	return &Provider{load: load}
}

// Settings returns the cached Settings, loading them on first use.
func (p *Provider) Settings() (*Settings, error) {
	if s := p.current.Load(); s != nil {
		return s, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if s := p.current.Load(); s != nil {
		return s, nil
	}
	s, err := p.load()
	if err != nil {
		return nil, err
	}
	p.current.Store(s)
	return s, nil
}

// Invalidate drops the cached Settings; the next call reloads.
func (p *Provider) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current.Store(nil)
}
