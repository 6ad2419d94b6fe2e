package cache

import (
	"fmt"
	"time"
)

// Kind is a category of polled data. Each kind has a fixed refresh interval
// and is either fetched from every host or only from the primary.
type Kind int

const (
	KindStatus Kind = iota
	KindServices
	KindTodos
	KindDevices
	KindLinks
	KindWeather
	KindPinned
)

// AllKinds lists every kind in display order.
var AllKinds = []Kind{KindStatus, KindServices, KindTodos, KindDevices, KindLinks, KindWeather, KindPinned}

type kindSpec struct {
	name     string
	interval time.Duration
	shared   bool
}

var kindSpecs = map[Kind]kindSpec{
	KindStatus:   {name: "status", interval: 5 * time.Second},
	KindServices: {name: "services", interval: 10 * time.Second},
	KindTodos:    {name: "todos", interval: 30 * time.Second},
	KindDevices:  {name: "devices", interval: 15 * time.Second, shared: true},
	KindLinks:    {name: "links", interval: 30 * time.Second, shared: true},
	KindWeather:  {name: "weather", interval: 10 * time.Minute, shared: true},
	KindPinned:   {name: "pinned", interval: 10 * time.Second, shared: true},
}

func (k Kind) String() string {
	if s, ok := kindSpecs[k]; ok {
		return s.name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Interval is how long a fetched value stays fresh.
func (k Kind) Interval() time.Duration {
	return kindSpecs[k].interval
}

// Shared reports whether the kind is host independent. Shared kinds are
// fetched from the primary host only.
func (k Kind) Shared() bool {
	return kindSpecs[k].shared
}

// Key addresses one cache entry.
type Key struct {
	Kind   Kind
	HostID string
}

func (k Key) String() string {
	return k.Kind.String() + "/" + k.HostID
}

// Entry is a copy of one cache slot. A zero FetchedAt means the slot was
// never fetched or has been invalidated.
type Entry struct {
	Data      any
	FetchedAt time.Time
	InFlight  bool
	Err       error
}

// Absent reports whether the entry has nothing displayable: no data yet or
// the last fetch failed.
func (e Entry) Absent() bool {
	return e.Data == nil || e.Err != nil
}
