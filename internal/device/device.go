// Package device supplies the stable per-installation identity and the
// monotonic sync counter used for conflict tie-breaking.
package device

import (
	"sync"

	"PromptKeeper/internal/prefs"

	"github.com/google/uuid"
)

// Provider hands out the device id and sync counter. The id is created once
// and persisted; if the preferences store is unavailable the provider falls
// back to a fresh identity for the current run only, which degrades
// tie-breaking but never blocks a sync.
type Provider struct {
	store prefs.Store

	mu        sync.Mutex
	ephemeral string
}

func NewProvider(store prefs.Store) *Provider {
	return &Provider{store: store}
}

// DeviceID returns the persisted device identifier, creating it on first use.
func (p *Provider) DeviceID() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	d, err := p.store.Get()
	if err != nil {
		return p.ephemeralID()
	}
	if d.DeviceID != "" {
		return d.DeviceID
	}
	d.DeviceID = uuid.NewString()
	if err := p.store.Set(d); err != nil {
		return p.ephemeralID()
	}
	return d.DeviceID
}

// NextSyncCount returns last persisted count + 1. This is an optimistic
// counter, not a CAS: the caller persists it back only after a successful
// sync.
func (p *Provider) NextSyncCount() int64 {
	d, err := p.store.Get()
	if err != nil {
		return 1
	}
	return d.SyncCount + 1
}

// ephemeralID is stable within one process so retries in the same run keep
// a consistent identity. Caller holds p.mu.
func (p *Provider) ephemeralID() string {
	if p.ephemeral == "" {
		p.ephemeral = uuid.NewString()
	}
	return p.ephemeral
}
