package cache

import (
	"context"
	"fmt"

	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/hosts"
)

// APIFetcher fetches kinds from the host API through a client pool.
type APIFetcher struct {
	pool *homeapi.Pool
}

var _ Fetcher = (*APIFetcher)(nil)

// NewAPIFetcher routes every fetch to the pooled client for the host address.
func NewAPIFetcher(pool *homeapi.Pool) *APIFetcher {
	return &APIFetcher{pool: pool}
}

// Fetch implements Fetcher. Status is stored as *homeapi.NodeStatus, every
// other kind as a slice of its wire type.
func (f *APIFetcher) Fetch(ctx context.Context, kind Kind, host hosts.Host) (any, error) {
	client, err := f.pool.Client(host.Address)
	if err != nil {
		return nil, fmt.Errorf("client for %s: %w", host.ID, err)
	}

	switch kind {
	case KindStatus:
		return client.FetchStatus(ctx)
	case KindServices:
		return client.FetchServices(ctx)
	case KindTodos:
		return client.FetchTodos(ctx)
	case KindDevices:
		return client.FetchDevices(ctx)
	case KindLinks:
		return client.FetchLinks(ctx)
	case KindWeather:
		return client.FetchWeather(ctx)
	case KindPinned:
		return client.FetchPinned(ctx)
	default:
		return nil, fmt.Errorf("fetch %s: unsupported kind", kind)
	}
}

// Forget drops the pooled client of a host that left the registry.
func (f *APIFetcher) Forget(host hosts.Host) {
	f.pool.Forget(host.Address)
}
