package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/five82/homedash/internal/cache"
	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/hosts"
	"github.com/five82/homedash/internal/state"
)

// poller turns cache changes into store snapshots and keeps the registry in
// step with the polled device list. Fetching itself is done by the cache
// loops; the poller only reacts.
type poller struct {
	cache *cache.Cache
	reg   *hosts.Registry
	store *state.Store
	log   zerolog.Logger

	// FetchedAt of the primary status entry at the last sync. Only a new
	// primary status result counts as a poll for the failure counter.
	lastPrimary time.Time
}

func newPoller(c *cache.Cache, reg *hosts.Registry, store *state.Store, log zerolog.Logger) *poller {
	return &poller{cache: c, reg: reg, store: store, log: log}
}

// run syncs after every cache change until ctx is cancelled.
func (p *poller) run(ctx context.Context) error {
	changes := p.cache.Changes()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			p.sync()
		}
	}
}

func (p *poller) sync() {
	p.syncDevices()

	snap, primaryErr := state.Build(p.cache, p.reg)

	status := p.cache.Peek(cache.KindStatus, p.reg.Primary())
	if status.FetchedAt.IsZero() || status.FetchedAt.Equal(p.lastPrimary) {
		p.store.Refresh(snap)
		return
	}
	p.lastPrimary = status.FetchedAt

	if primaryErr != nil {
		// Other hosts may still have news; the failure only bumps the counter.
		p.store.Refresh(snap)
		p.store.Update(snap, primaryErr)
		p.log.Warn().Err(primaryErr).Msg("primary status poll failed")
		return
	}
	p.store.Update(snap, nil)
}

// syncDevices applies the last good device list. A failed device poll
// leaves the registry untouched.
func (p *poller) syncDevices() {
	e := p.cache.Peek(cache.KindDevices, p.reg.Primary())
	if e.Absent() {
		return
	}
	devices, ok := e.Data.([]homeapi.Device)
	if !ok {
		return
	}
	change := p.reg.SyncDevices(devices)
	for _, h := range change.Added {
		p.log.Info().Str("host", h.ID).Str("address", h.Address).Msg("device registered")
	}
	for _, h := range change.Removed {
		p.log.Info().Str("host", h.ID).Str("address", h.Address).Msg("device unregistered")
	}
}
