// Package hosts tracks the set of machines the dashboard polls: the primary
// host, which is always present, and the devices registered on it.
package hosts

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/five82/homedash/internal/homeapi"
)

// PrimaryID is the registry id of the primary host. Device ids are derived
// from backend ids with a "device-" prefix and can never collide with it.
const PrimaryID = "primary"

var (
	ErrPrimaryHost   = errors.New("primary host cannot be added or removed")
	ErrDuplicateHost = errors.New("host already registered")
	ErrUnknownHost   = errors.New("host not registered")
)

// Host is one monitored machine. Requests are routed by Address, membership
// is keyed by ID.
type Host struct {
	ID      string `json:"id"`
	Address string `json:"address"`
}

// IsPrimary reports whether h is the primary host.
func (h Host) IsPrimary() bool {
	return h.ID == PrimaryID
}

// DeviceID returns the registry id for a backend device id.
func DeviceID(id int) string {
	return "device-" + strconv.Itoa(id)
}

// FromDevice converts a polled device record into a Host.
func FromDevice(d homeapi.Device) Host {
	return Host{ID: DeviceID(d.ID), Address: strings.TrimSpace(d.Hostname)}
}

// Change describes one membership update.
type Change struct {
	Added   []Host
	Removed []Host
}

// Empty reports whether the change carries no membership difference.
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

// Registry is the single owner of host membership. It is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	primary   Host
	devices   []Host
	listeners []func(Change)
}

// New creates a registry holding only the primary host.
func New(primaryAddress string) *Registry {
	return &Registry{
		primary: Host{ID: PrimaryID, Address: strings.TrimSpace(primaryAddress)},
	}
}

// Primary returns the primary host.
func (r *Registry) Primary() Host {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.primary
}

// Hosts returns the primary followed by the devices in insertion order.
func (r *Registry) Hosts() []Host {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Host, 0, len(r.devices)+1)
	out = append(out, r.primary)
	out = append(out, r.devices...)
	return out
}

// Len returns the number of hosts including the primary.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.devices) + 1
}

// Lookup returns the host registered under id.
func (r *Registry) Lookup(id string) (Host, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if id == PrimaryID {
		return r.primary, true
	}
	if i := r.indexOf(id); i >= 0 {
		return r.devices[i], true
	}
	return Host{}, false
}

// Contains reports whether id is currently registered.
func (r *Registry) Contains(id string) bool {
	_, ok := r.Lookup(id)
	return ok
}

// Add registers a device.
func (r *Registry) Add(h Host) error {
	if h.ID == PrimaryID {
		return ErrPrimaryHost
	}
	if strings.TrimSpace(h.ID) == "" {
		return fmt.Errorf("add host: empty id")
	}

	r.mu.Lock()
	if r.indexOf(h.ID) >= 0 {
		r.mu.Unlock()
		return fmt.Errorf("add %s: %w", h.ID, ErrDuplicateHost)
	}
	r.devices = append(r.devices, h)
	listeners := r.listeners
	r.mu.Unlock()

	notify(listeners, Change{Added: []Host{h}})
	return nil
}

// Remove unregisters a device.
func (r *Registry) Remove(id string) error {
	if id == PrimaryID {
		return ErrPrimaryHost
	}

	r.mu.Lock()
	i := r.indexOf(id)
	if i < 0 {
		r.mu.Unlock()
		return fmt.Errorf("remove %s: %w", id, ErrUnknownHost)
	}
	removed := r.devices[i]
	r.devices = append(r.devices[:i:i], r.devices[i+1:]...)
	listeners := r.listeners
	r.mu.Unlock()

	notify(listeners, Change{Removed: []Host{removed}})
	return nil
}

// SyncDevices reconciles the registered devices with the polled device list.
// Devices missing from the list are removed, new ones are appended in list
// order. A device whose address changed is removed and added again so every
// cache entry keyed on it is rebuilt.
func (r *Registry) SyncDevices(devices []homeapi.Device) Change {
	wanted := make(map[string]Host, len(devices))
	order := make([]Host, 0, len(devices))
	for _, d := range devices {
		h := FromDevice(d)
		if h.Address == "" {
			continue
		}
		if _, dup := wanted[h.ID]; dup {
			continue
		}
		wanted[h.ID] = h
		order = append(order, h)
	}

	r.mu.Lock()
	var change Change
	kept := make([]Host, 0, len(r.devices))
	present := make(map[string]bool, len(r.devices))
	for _, cur := range r.devices {
		want, ok := wanted[cur.ID]
		if !ok || want.Address != cur.Address {
			change.Removed = append(change.Removed, cur)
			continue
		}
		kept = append(kept, cur)
		present[cur.ID] = true
	}
	for _, h := range order {
		if present[h.ID] {
			continue
		}
		kept = append(kept, h)
		change.Added = append(change.Added, h)
	}
	r.devices = kept
	listeners := r.listeners
	r.mu.Unlock()

	if !change.Empty() {
		notify(listeners, change)
	}
	return change
}

// Subscribe registers fn to be called after every membership change. The
// callback runs on the goroutine that made the change, outside the lock.
func (r *Registry) Subscribe(fn func(Change)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) indexOf(id string) int {
	for i, h := range r.devices {
		if h.ID == id {
			return i
		}
	}
	return -1
}

func notify(listeners []func(Change), c Change) {
	for _, fn := range listeners {
		fn(c)
	}
}
