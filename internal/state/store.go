package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/five82/homedash/internal/cache"
	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/hosts"
)

// HostView is the health of one registered host as seen by its status poll.
type HostView struct {
	Host      hosts.Host `json:"host"`
	Hostname  string     `json:"hostname,omitempty"`
	Online    bool       `json:"online"`
	Error     string     `json:"error,omitempty"`
	FetchedAt time.Time  `json:"fetched_at"`
}

// Snapshot represents the latest data available to the UI.
type Snapshot struct {
	Hosts      []HostView                          `json:"hosts"`
	Statuses   []cache.Tagged[homeapi.NodeStatus]  `json:"statuses"`
	Containers []cache.Tagged[homeapi.Container]   `json:"containers"`
	Services   []cache.Tagged[homeapi.SystemdUnit] `json:"services"`
	Pinned     []homeapi.PinnedService             `json:"pinned"`
	Links      []homeapi.Link                      `json:"links"`
	Todos      []cache.Tagged[homeapi.Todo]        `json:"todos"`
	Weather    []homeapi.Weather                   `json:"weather"`
	Devices    []homeapi.Device                    `json:"devices"`

	// LinksStale is set while the link list is invalidated and its refetch
	// has not landed, so Links still holds the order from before the last
	// link mutation.
	LinksStale bool `json:"links_stale"`

	LastUpdated         time.Time `json:"last_updated"`
	LastError           error     `json:"-"`
	ConsecutiveFailures int       `json:"consecutive_failures"` // Number of consecutive primary poll failures
}

// IsOffline returns true when the primary host has been unreachable for
// multiple polls.
func (s Snapshot) IsOffline() bool {
	return s.ConsecutiveFailures >= 2
}

// IsPinned reports whether unit is pinned on the host reached at address.
func (s Snapshot) IsPinned(address, unit string) bool {
	for _, p := range s.Pinned {
		if p.Host == address && p.Name == unit {
			return true
		}
	}
	return false
}

// Store coordinates concurrent updates to the snapshot. The zero value is
// ready to use.
type Store struct {
	mu       sync.RWMutex
	snapshot Snapshot
	changes  chan struct{}
}

// Update replaces the stored snapshot. When err is non-nil the previous data
// is kept but the error is recorded for visibility.
func (s *Store) Update(snap Snapshot, err error) {
	s.mu.Lock()
	if err != nil {
		s.snapshot.LastError = err
		s.snapshot.LastUpdated = time.Now()
		s.snapshot.ConsecutiveFailures++
	} else {
		next := clone(snap)
		next.LastError = nil
		next.LastUpdated = time.Now()
		next.ConsecutiveFailures = 0
		s.snapshot = next
	}
	ch := s.changesLocked()
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
	default:
	}
}

// Refresh replaces the stored data but leaves the error state alone. It is
// used for changes that did not come from a new primary status poll.
func (s *Store) Refresh(snap Snapshot) {
	s.mu.Lock()
	next := clone(snap)
	next.LastError = s.snapshot.LastError
	next.ConsecutiveFailures = s.snapshot.ConsecutiveFailures
	next.LastUpdated = time.Now()
	s.snapshot = next
	ch := s.changesLocked()
	s.mu.Unlock()

	select {
	case ch <- struct{}{}:
	default:
	}
}

// Snapshot returns a copy of the current snapshot.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := clone(s.snapshot)
	if s.snapshot.LastError != nil {
		snap.LastError = fmt.Errorf("%w", s.snapshot.LastError)
	}
	return snap
}

// Changes receives a value after updates. Notifications coalesce, so a
// receiver only learns that something changed since its last read.
func (s *Store) Changes() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changesLocked()
}

func (s *Store) changesLocked() chan struct{} {
	if s.changes == nil {
		s.changes = make(chan struct{}, 1)
	}
	return s.changes
}

func clone(s Snapshot) Snapshot {
	s.Hosts = cloneSlice(s.Hosts)
	s.Statuses = cloneSlice(s.Statuses)
	s.Containers = cloneSlice(s.Containers)
	s.Services = cloneSlice(s.Services)
	s.Pinned = cloneSlice(s.Pinned)
	s.Links = cloneSlice(s.Links)
	s.Todos = cloneSlice(s.Todos)
	s.Weather = cloneSlice(s.Weather)
	s.Devices = cloneSlice(s.Devices)
	return s
}

func cloneSlice[T any](items []T) []T {
	if len(items) == 0 {
		return nil
	}
	dup := make([]T, len(items))
	copy(dup, items)
	return dup
}
