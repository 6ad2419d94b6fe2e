package cache

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
)

// Target selects the entries an invalidation applies to. Shared kinds
// ignore the host selection.
type Target struct {
	Kind     Kind
	HostID   string
	AllHosts bool
}

// AllHostsFor targets every host's entry of kind.
func AllHostsFor(kind Kind) Target {
	return Target{Kind: kind, AllHosts: true}
}

// HostTarget targets a single host's entry of kind.
func HostTarget(kind Kind, hostID string) Target {
	return Target{Kind: kind, HostID: hostID}
}

// Mutation identifies a write made against the backend.
type Mutation int

const (
	MutationAddDevice Mutation = iota
	MutationRemoveDevice
	MutationPinService
	MutationUnpinService
	MutationContainerAction
	MutationAddLink
	MutationDeleteLink
	MutationReorderLink
	MutationAddTodo
	MutationDeleteTodo
	MutationAddCity
	MutationDeleteCity
	MutationRefreshAll
)

var mutationNames = map[Mutation]string{
	MutationAddDevice:       "add-device",
	MutationRemoveDevice:    "remove-device",
	MutationPinService:      "pin-service",
	MutationUnpinService:    "unpin-service",
	MutationContainerAction: "container-action",
	MutationAddLink:         "add-link",
	MutationDeleteLink:      "delete-link",
	MutationReorderLink:     "reorder-link",
	MutationAddTodo:         "add-todo",
	MutationDeleteTodo:      "delete-todo",
	MutationAddCity:         "add-city",
	MutationDeleteCity:      "delete-city",
	MutationRefreshAll:      "refresh-all",
}

func (m Mutation) String() string {
	if s, ok := mutationNames[m]; ok {
		return s
	}
	return fmt.Sprintf("mutation(%d)", int(m))
}

// TargetsFor returns the entries made stale by m. hostID is the host the
// mutation was sent to and only matters for host-scoped mutations.
func TargetsFor(m Mutation, hostID string) []Target {
	switch m {
	case MutationAddDevice, MutationRemoveDevice, MutationRefreshAll:
		out := make([]Target, 0, len(AllKinds))
		for _, k := range AllKinds {
			out = append(out, AllHostsFor(k))
		}
		return out
	case MutationPinService, MutationUnpinService:
		return []Target{AllHostsFor(KindServices), AllHostsFor(KindPinned)}
	case MutationContainerAction:
		return []Target{HostTarget(KindStatus, hostID)}
	case MutationAddLink, MutationDeleteLink, MutationReorderLink:
		return []Target{AllHostsFor(KindLinks)}
	case MutationAddTodo, MutationDeleteTodo:
		return []Target{HostTarget(KindTodos, hostID)}
	case MutationAddCity, MutationDeleteCity:
		return []Target{AllHostsFor(KindWeather)}
	default:
		return nil
	}
}

// Invalidator is implemented by *Cache.
type Invalidator interface {
	Invalidate(targets ...Target)
}

// Bus turns completed mutations into cache invalidations.
type Bus struct {
	cache Invalidator
	log   zerolog.Logger
}

// NewBus returns a bus publishing into c.
func NewBus(c Invalidator, log zerolog.Logger) *Bus {
	return &Bus{cache: c, log: log}
}

// Publish invalidates the targets of m. Callers publish only after the
// mutation succeeded.
func (b *Bus) Publish(m Mutation, hostID string) {
	targets := TargetsFor(m, hostID)
	if len(targets) == 0 {
		return
	}
	b.log.Debug().Str("mutation", m.String()).Str("host", hostID).Int("targets", len(targets)).Msg("invalidating")
	b.cache.Invalidate(targets...)
}

// Do runs fn and publishes m when it succeeds. A failed mutation leaves the
// cache untouched and its error is returned wrapped with the mutation name.
func (b *Bus) Do(ctx context.Context, m Mutation, hostID string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		b.log.Warn().Str("mutation", m.String()).Str("host", hostID).Err(err).Msg("mutation failed")
		return fmt.Errorf("%s: %w", m, err)
	}
	b.Publish(m, hostID)
	return nil
}
