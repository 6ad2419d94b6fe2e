package state

import (
	"context"
	"errors"
	"testing"

	"github.com/five82/homedash/internal/cache"
	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/hosts"
)

func TestBuild_MergesHostsAndFlattensContainers(t *testing.T) {
	reg := hosts.New("127.0.0.1:5000")
	if err := reg.Add(hosts.Host{ID: hosts.DeviceID(1), Address: "10.0.0.1:5000"}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}
	if err := reg.Add(hosts.Host{ID: hosts.DeviceID(2), Address: "10.0.0.2:5000"}); err != nil {
		t.Fatalf("Add returned error: %v", err)
	}

	down := errors.New("connection refused")
	c := cache.New(reg, cache.FetcherFunc(func(_ context.Context, kind cache.Kind, h hosts.Host) (any, error) {
		switch {
		case kind == cache.KindStatus && h.ID == hosts.DeviceID(2):
			return nil, down
		case kind == cache.KindStatus:
			return &homeapi.NodeStatus{
				Network: homeapi.NetworkStatus{Hostname: "host-" + h.ID},
				Docker:  []homeapi.Container{{ID: "c-" + h.ID, Name: "web"}},
			}, nil
		case kind == cache.KindLinks:
			return []homeapi.Link{{ID: 1, Name: "router"}}, nil
		default:
			return nil, nil
		}
	}))

	ctx := context.Background()
	for _, h := range reg.Hosts() {
		_, _ = c.Load(ctx, cache.KindStatus, h)
	}
	_, _ = c.Load(ctx, cache.KindLinks, reg.Primary())

	snap, err := Build(c, reg)
	if err != nil {
		t.Fatalf("Build error = %v, want nil for a healthy primary", err)
	}
	if len(snap.Hosts) != 3 {
		t.Fatalf("hosts = %d, want 3", len(snap.Hosts))
	}
	if !snap.Hosts[0].Online || snap.Hosts[0].Hostname != "host-primary" {
		t.Fatalf("primary view = %#v", snap.Hosts[0])
	}
	if snap.Hosts[2].Online || snap.Hosts[2].Error != down.Error() {
		t.Fatalf("failing host view = %#v", snap.Hosts[2])
	}
	if len(snap.Containers) != 2 || snap.Containers[1].Host.ID != hosts.DeviceID(1) {
		t.Fatalf("containers = %#v, want one per healthy host", snap.Containers)
	}
	if len(snap.Links) != 1 || snap.Links[0].Name != "router" {
		t.Fatalf("links = %#v", snap.Links)
	}
	if snap.Services != nil || snap.Weather != nil {
		t.Fatalf("unfetched kinds should be empty: %#v %#v", snap.Services, snap.Weather)
	}
}

func TestBuild_ReportsPrimaryFailure(t *testing.T) {
	reg := hosts.New("127.0.0.1:5000")
	c := cache.New(reg, cache.FetcherFunc(func(context.Context, cache.Kind, hosts.Host) (any, error) {
		return nil, homeapi.ErrHostUnreachable
	}))
	_, _ = c.Load(context.Background(), cache.KindStatus, reg.Primary())

	snap, err := Build(c, reg)
	if !errors.Is(err, homeapi.ErrHostUnreachable) {
		t.Fatalf("Build error = %v, want ErrHostUnreachable", err)
	}
	if snap.Hosts[0].Online {
		t.Fatal("primary reported online")
	}
}

func TestBuild_MarksInvalidatedLinksStale(t *testing.T) {
	reg := hosts.New("127.0.0.1:5000")
	c := cache.New(reg, cache.FetcherFunc(func(context.Context, cache.Kind, hosts.Host) (any, error) {
		return []homeapi.Link{{ID: 1, Name: "router"}, {ID: 2, Name: "nas"}}, nil
	}))

	snap, _ := Build(c, reg)
	if !snap.LinksStale {
		t.Fatal("never fetched links should be stale")
	}

	_, _ = c.Load(context.Background(), cache.KindLinks, reg.Primary())
	snap, _ = Build(c, reg)
	if snap.LinksStale || len(snap.Links) != 2 {
		t.Fatalf("fetched links: stale=%v links=%#v", snap.LinksStale, snap.Links)
	}

	c.Invalidate(cache.AllHostsFor(cache.KindLinks))
	snap, _ = Build(c, reg)
	if !snap.LinksStale {
		t.Fatal("invalidated links should be stale")
	}
	if len(snap.Links) != 2 {
		t.Fatalf("invalidated links should keep old data, got %#v", snap.Links)
	}
}
