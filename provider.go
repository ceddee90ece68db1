package orm

import (
	"context"
	"sync"
)

// Provider hands out one shared Manager, connecting lazily on the first call
// to Instance. A failed connect leaves nothing behind, so a later call
// starts over with a fresh set of attempts.
type Provider struct {
	mu   sync.Mutex
	cfg  Config
	opts []Option
	m    *Manager
}

func NewProvider(cfg Config, opts ...Option) *Provider {
	return &Provider{cfg: cfg, opts: opts}
}

func (p *Provider) Instance(ctx context.Context) (*Manager, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.m != nil {
		return p.m, nil
	}

	m, err := Connect(ctx, p.cfg, p.opts...)
	if err != nil {
		return nil, err
	}
	p.m = m
	return m, nil
}

// Close closes the shared Manager, if any. The next Instance reconnects.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.m == nil {
		return nil
	}
	err := p.m.Close()
	p.m = nil
	return err
}
