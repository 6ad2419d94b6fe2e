package app

import (
	"context"
	"fmt"

	"github.com/five82/homedash/internal/cache"
	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/hosts"
	"github.com/five82/homedash/internal/reorder"
	"github.com/five82/homedash/internal/ui"
)

// actions sends mutations to the host API and publishes the matching
// invalidations once they succeed.
type actions struct {
	reg  *hosts.Registry
	pool *homeapi.Pool
	bus  *cache.Bus
}

var _ ui.Actions = (*actions)(nil)

func (a *actions) client(hostID string) (*homeapi.Client, error) {
	h, ok := a.reg.Lookup(hostID)
	if !ok {
		return nil, fmt.Errorf("host %s: %w", hostID, hosts.ErrUnknownHost)
	}
	return a.pool.Client(h.Address)
}

func (a *actions) primary() (*homeapi.Client, error) {
	return a.pool.Client(a.reg.Primary().Address)
}

// RefreshAll drops every cached entry.
func (a *actions) RefreshAll() {
	a.bus.Publish(cache.MutationRefreshAll, "")
}

// CommitOrder moves a link on the primary host.
func (a *actions) CommitOrder(ctx context.Context, c reorder.Commit) error {
	return a.onPrimary(ctx, cache.MutationReorderLink, func(ctx context.Context, client *homeapi.Client) error {
		return client.ReorderLink(ctx, c.LinkOrder())
	})
}

func (a *actions) ContainerAction(ctx context.Context, hostID, containerID string, action homeapi.ContainerAction) error {
	return a.bus.Do(ctx, cache.MutationContainerAction, hostID, func(ctx context.Context) error {
		client, err := a.client(hostID)
		if err != nil {
			return err
		}
		return client.ContainerAction(ctx, containerID, action)
	})
}

// SetPinned pins or unpins a unit. Pins live on the primary host.
func (a *actions) SetPinned(ctx context.Context, pin homeapi.PinnedService, pinned bool) error {
	m := cache.MutationUnpinService
	if pinned {
		m = cache.MutationPinService
	}
	return a.onPrimary(ctx, m, func(ctx context.Context, client *homeapi.Client) error {
		if pinned {
			return client.PinService(ctx, pin)
		}
		return client.UnpinService(ctx, pin)
	})
}

func (a *actions) DeleteLink(ctx context.Context, id int) error {
	return a.onPrimary(ctx, cache.MutationDeleteLink, func(ctx context.Context, client *homeapi.Client) error {
		return client.DeleteLink(ctx, id)
	})
}

func (a *actions) DeleteTodo(ctx context.Context, hostID string, id int) error {
	return a.bus.Do(ctx, cache.MutationDeleteTodo, hostID, func(ctx context.Context) error {
		client, err := a.client(hostID)
		if err != nil {
			return err
		}
		return client.DeleteTodo(ctx, id)
	})
}

func (a *actions) AddDevice(ctx context.Context, hostname string) error {
	return a.onPrimary(ctx, cache.MutationAddDevice, func(ctx context.Context, c *homeapi.Client) error {
		return c.PutDevice(ctx, homeapi.PutDevice{Hostname: hostname})
	})
}

func (a *actions) RemoveDevice(ctx context.Context, id int) error {
	return a.onPrimary(ctx, cache.MutationRemoveDevice, func(ctx context.Context, c *homeapi.Client) error {
		return c.DeleteDevice(ctx, id)
	})
}

func (a *actions) AddLink(ctx context.Context, link homeapi.PutLink) error {
	return a.onPrimary(ctx, cache.MutationAddLink, func(ctx context.Context, c *homeapi.Client) error {
		return c.PutLink(ctx, link)
	})
}

func (a *actions) AddTodo(ctx context.Context, hostID, content string) error {
	return a.bus.Do(ctx, cache.MutationAddTodo, hostID, func(ctx context.Context) error {
		client, err := a.client(hostID)
		if err != nil {
			return err
		}
		return client.PutTodo(ctx, homeapi.PutTodo{Content: content})
	})
}

func (a *actions) AddCity(ctx context.Context, name string) error {
	return a.onPrimary(ctx, cache.MutationAddCity, func(ctx context.Context, c *homeapi.Client) error {
		return c.PutCity(ctx, homeapi.PutCity{Name: name})
	})
}

func (a *actions) DeleteCity(ctx context.Context, id int) error {
	return a.onPrimary(ctx, cache.MutationDeleteCity, func(ctx context.Context, c *homeapi.Client) error {
		return c.DeleteCity(ctx, id)
	})
}

func (a *actions) onPrimary(ctx context.Context, m cache.Mutation, fn func(context.Context, *homeapi.Client) error) error {
	return a.bus.Do(ctx, m, hosts.PrimaryID, func(ctx context.Context) error {
		client, err := a.primary()
		if err != nil {
			return err
		}
		return fn(ctx, client)
	})
}
