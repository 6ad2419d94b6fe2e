package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/five82/homedash/internal/hosts"
)

// maxLoadAttempts bounds how often Load re-joins after its fetch was
// discarded by a concurrent invalidation.
const maxLoadAttempts = 3

// errDiscarded marks a fetch whose result was dropped because the host left
// the registry or the entry was invalidated while the request was running.
var errDiscarded = errors.New("fetch result discarded")

// Fetcher retrieves the current value of one kind from one host.
type Fetcher interface {
	Fetch(ctx context.Context, kind Kind, host hosts.Host) (any, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, kind Kind, host hosts.Host) (any, error)

// Fetch implements Fetcher.
func (f FetcherFunc) Fetch(ctx context.Context, kind Kind, host hosts.Host) (any, error) {
	return f(ctx, kind, host)
}

// Clock abstracts time so freshness can be tested without sleeping.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithLogger sets the logger used for fetch failures and membership changes.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Cache) { c.log = log }
}

// WithKinds restricts the kinds polled by Start. Get and Load accept any kind.
func WithKinds(kinds ...Kind) Option {
	return func(c *Cache) {
		if len(kinds) > 0 {
			c.kinds = append([]Kind(nil), kinds...)
		}
	}
}

type entry struct {
	Entry
	gen       uint64 // unique across the cache, renewed by every invalidation
	flightGen uint64 // gen the in-flight request was started under
}

// Cache holds one entry per (kind, host) pair, fetches entries when they go
// stale and runs the polling loops that keep them fresh. It is safe for
// concurrent use.
type Cache struct {
	reg     *hosts.Registry
	fetcher Fetcher
	clock   Clock
	log     zerolog.Logger
	kinds   []Kind

	group   singleflight.Group
	changes chan struct{}

	mu      sync.Mutex
	lastGen uint64
	entries map[Key]*entry
	loops   map[Key]context.CancelFunc
	kicks   map[Key]chan struct{}
	baseCtx context.Context
	running bool
	wg      sync.WaitGroup
}

// New builds a cache over the hosts of reg. Host removals are observed
// immediately, even before Start is called.
func New(reg *hosts.Registry, fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		reg:     reg,
		fetcher: fetcher,
		clock:   realClock{},
		log:     zerolog.Nop(),
		kinds:   append([]Kind(nil), AllKinds...),
		changes: make(chan struct{}, 1),
		entries: make(map[Key]*entry),
		loops:   make(map[Key]context.CancelFunc),
		kicks:   make(map[Key]chan struct{}),
		baseCtx: context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	reg.Subscribe(c.onMembership)
	return c
}

// Changes delivers a coalesced notification whenever cached data, freshness
// or membership changed.
func (c *Cache) Changes() <-chan struct{} {
	return c.changes
}

// Get returns a copy of the entry for (kind, host). When the entry was never
// fetched, or is older than the kind's interval and nothing is in flight, a
// background fetch is scheduled. Hosts outside the registry yield an empty
// entry.
func (c *Cache) Get(ctx context.Context, kind Kind, host hosts.Host) Entry {
	key, h, ok := c.resolve(kind, host)
	if !ok {
		return Entry{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	e := c.entryLocked(key)
	if c.dueLocked(key, e) {
		c.launchLocked(ctx, key, h, e)
	}
	return e.Entry
}

// Peek returns the entry without scheduling anything.
func (c *Cache) Peek(kind Kind, host hosts.Host) Entry {
	key, _, ok := c.resolve(kind, host)
	if !ok {
		return Entry{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.Entry
	}
	return Entry{}
}

// Load is the blocking form of Get: it joins the pending fetch for the key,
// or starts one when the entry is stale, and returns once it resolved. A
// fresh entry is returned immediately. The returned error is the entry's
// fetch error, if any.
func (c *Cache) Load(ctx context.Context, kind Kind, host hosts.Host) (Entry, error) {
	for attempt := 0; attempt < maxLoadAttempts; attempt++ {
		key, h, ok := c.resolve(kind, host)
		if !ok {
			return Entry{}, fmt.Errorf("load %s/%s: %w", kind, host.ID, hosts.ErrUnknownHost)
		}

		c.mu.Lock()
		e := c.entryLocked(key)
		var ch <-chan singleflight.Result
		switch {
		case e.InFlight:
			// The pending call is registered until its commit clears InFlight.
			ch = c.group.DoChan(flightKey(key, e.flightGen), c.fetchFunc(ctx, key, h, e.flightGen))
		case c.dueLocked(key, e):
			ch = c.launchLocked(ctx, key, h, e)
		default:
			snap := e.Entry
			c.mu.Unlock()
			return snap, snap.Err
		}
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return Entry{}, ctx.Err()
		case res := <-ch:
			if errors.Is(res.Err, errDiscarded) {
				continue
			}
			snap := res.Val.(Entry)
			return snap, snap.Err
		}
	}
	return Entry{}, fmt.Errorf("load %s/%s: %w", kind, host.ID, errDiscarded)
}

// Invalidate marks the targeted entries stale: FetchedAt is reset, any
// in-flight result is prevented from committing and the polling loops are
// woken so the next read re-fetches immediately.
func (c *Cache) Invalidate(targets ...Target) {
	c.mu.Lock()
	var kicked []chan struct{}
	for _, t := range targets {
		for _, key := range c.keysLocked(t) {
			e := c.entryLocked(key)
			e.gen = c.nextGenLocked()
			e.FetchedAt = time.Time{}
			e.InFlight = false
			if kick, ok := c.kicks[key]; ok {
				kicked = append(kicked, kick)
			}
		}
	}
	c.mu.Unlock()

	for _, kick := range kicked {
		signal(kick)
	}
	c.notify()
}

// Start launches one polling loop per (kind, host) for the configured kinds
// and keeps the set in step with the registry until ctx is cancelled.
func (c *Cache) Start(ctx context.Context) {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.baseCtx = ctx
	c.mu.Unlock()

	for _, h := range c.reg.Hosts() {
		c.startLoops(h)
	}

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
	}()
}

// Wait blocks until every polling loop has exited.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) resolve(kind Kind, host hosts.Host) (Key, hosts.Host, bool) {
	if kind.Shared() {
		return Key{Kind: kind, HostID: hosts.PrimaryID}, c.reg.Primary(), true
	}
	h, ok := c.reg.Lookup(host.ID)
	if !ok {
		return Key{}, hosts.Host{}, false
	}
	return Key{Kind: kind, HostID: h.ID}, h, true
}

func (c *Cache) entryLocked(key Key) *entry {
	e, ok := c.entries[key]
	if !ok {
		e = &entry{gen: c.nextGenLocked()}
		c.entries[key] = e
	}
	return e
}

// nextGenLocked hands out generations that are never reused, so a flight
// started for a dropped entry can neither be joined by nor commit into the
// entry that replaces it.
func (c *Cache) nextGenLocked() uint64 {
	c.lastGen++
	return c.lastGen
}

func (c *Cache) dueLocked(key Key, e *entry) bool {
	if e.InFlight {
		return false
	}
	if e.FetchedAt.IsZero() {
		return true
	}
	return c.clock.Now().Sub(e.FetchedAt) >= key.Kind.Interval()
}

// launchLocked marks e in flight and registers the fetch with the
// singleflight group while c.mu is held, so a concurrent Load always finds
// the call it is meant to join.
func (c *Cache) launchLocked(ctx context.Context, key Key, h hosts.Host, e *entry) <-chan singleflight.Result {
	e.InFlight = true
	e.flightGen = e.gen
	return c.group.DoChan(flightKey(key, e.gen), c.fetchFunc(ctx, key, h, e.gen))
}

// fetchFunc must be called with c.mu held.
func (c *Cache) fetchFunc(ctx context.Context, key Key, h hosts.Host, gen uint64) func() (any, error) {
	fetchCtx := c.baseCtx
	if ctx != nil {
		fetchCtx = context.WithoutCancel(ctx)
	}
	return func() (any, error) {
		data, err := c.fetcher.Fetch(fetchCtx, key.Kind, h)
		return c.commit(key, gen, data, err)
	}
}

// commit stores a fetch result unless the host left the registry or the
// entry was invalidated after the request started.
func (c *Cache) commit(key Key, gen uint64, data any, fetchErr error) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok || !c.reg.Contains(key.HostID) {
		delete(c.entries, key)
		c.mu.Unlock()
		c.log.Debug().Str("key", key.String()).Msg("dropping result for removed host")
		return nil, errDiscarded
	}
	if e.gen != gen {
		c.mu.Unlock()
		c.log.Debug().Str("key", key.String()).Msg("dropping result invalidated in flight")
		return nil, errDiscarded
	}

	wasErr := e.Err != nil
	e.InFlight = false
	e.FetchedAt = c.clock.Now()
	if fetchErr != nil {
		e.Err = fetchErr
	} else {
		e.Data = data
		e.Err = nil
	}
	snap := e.Entry
	kick := c.kicks[key]
	c.mu.Unlock()

	switch {
	case fetchErr != nil && !wasErr:
		c.log.Warn().Str("kind", key.Kind.String()).Str("host", key.HostID).Err(fetchErr).Msg("poll failed")
	case fetchErr != nil:
		c.log.Debug().Str("kind", key.Kind.String()).Str("host", key.HostID).Err(fetchErr).Msg("poll still failing")
	case wasErr:
		c.log.Info().Str("kind", key.Kind.String()).Str("host", key.HostID).Msg("poll recovered")
	}

	if kick != nil {
		signal(kick)
	}
	c.notify()
	return snap, nil
}

func (c *Cache) keysLocked(t Target) []Key {
	if t.Kind.Shared() {
		return []Key{{Kind: t.Kind, HostID: hosts.PrimaryID}}
	}
	if !t.AllHosts {
		if !c.reg.Contains(t.HostID) {
			return nil
		}
		return []Key{{Kind: t.Kind, HostID: t.HostID}}
	}
	hostList := c.reg.Hosts()
	keys := make([]Key, 0, len(hostList))
	for _, h := range hostList {
		keys = append(keys, Key{Kind: t.Kind, HostID: h.ID})
	}
	return keys
}

func (c *Cache) onMembership(change hosts.Change) {
	for _, h := range change.Removed {
		c.dropHost(h)
	}

	c.mu.Lock()
	running := c.running
	c.mu.Unlock()
	if running {
		for _, h := range change.Added {
			c.startLoops(h)
		}
	}

	c.log.Info().Int("added", len(change.Added)).Int("removed", len(change.Removed)).Msg("host membership changed")
	c.notify()
}

func (c *Cache) dropHost(h hosts.Host) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.HostID == h.ID {
			delete(c.entries, key)
		}
	}
	for key, cancel := range c.loops {
		if key.HostID == h.ID {
			cancel()
			delete(c.loops, key)
			delete(c.kicks, key)
		}
	}
}

func (c *Cache) startLoops(h hosts.Host) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.running {
		return
	}
	for _, kind := range c.kinds {
		if kind.Shared() && !h.IsPrimary() {
			continue
		}
		key := Key{Kind: kind, HostID: h.ID}
		if _, ok := c.loops[key]; ok {
			continue
		}
		ctx, cancel := context.WithCancel(c.baseCtx)
		kick := make(chan struct{}, 1)
		c.loops[key] = cancel
		c.kicks[key] = kick
		c.wg.Add(1)
		go c.poll(ctx, kind, h, kick)
	}
}

// poll keeps one entry fresh. It re-reads the entry every interval and wakes
// early on invalidation or completion of the in-flight fetch.
func (c *Cache) poll(ctx context.Context, kind Kind, h hosts.Host, kick <-chan struct{}) {
	defer c.wg.Done()
	for {
		c.Get(ctx, kind, h)

		timer := time.NewTimer(c.untilDue(kind, h))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-kick:
			timer.Stop()
		case <-timer.C:
		}
	}
}

func (c *Cache) untilDue(kind Kind, h hosts.Host) time.Duration {
	key, _, ok := c.resolve(kind, h)
	if !ok {
		return kind.Interval()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.InFlight || e.FetchedAt.IsZero() {
		return kind.Interval()
	}
	wait := kind.Interval() - c.clock.Now().Sub(e.FetchedAt)
	if wait < 0 {
		return 0
	}
	return wait
}

func (c *Cache) notify() {
	select {
	case c.changes <- struct{}{}:
	default:
	}
}

func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func flightKey(key Key, gen uint64) string {
	return key.String() + "#" + strconv.FormatUint(gen, 10)
}
