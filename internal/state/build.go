package state

import (
	"github.com/five82/homedash/internal/cache"
	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/hosts"
)

// Build assembles a snapshot from whatever the cache currently holds. It
// never fetches. The returned error is the primary host's status failure,
// which is what counts towards IsOffline.
func Build(c *cache.Cache, reg *hosts.Registry) (Snapshot, error) {
	var snap Snapshot
	var primaryErr error

	for _, h := range reg.Hosts() {
		e := c.Peek(cache.KindStatus, h)
		view := HostView{Host: h, FetchedAt: e.FetchedAt, Online: !e.Absent()}
		if e.Err != nil {
			view.Error = e.Err.Error()
			if h.IsPrimary() {
				primaryErr = e.Err
			}
		}
		snap.Hosts = append(snap.Hosts, view)
	}

	snap.Statuses = cache.Collect[homeapi.NodeStatus](c, cache.KindStatus)
	for _, st := range snap.Statuses {
		for i := range snap.Hosts {
			if snap.Hosts[i].Host.ID == st.Host.ID {
				snap.Hosts[i].Hostname = st.Item.Network.Hostname
			}
		}
		for _, ct := range st.Item.Docker {
			snap.Containers = append(snap.Containers, cache.Tagged[homeapi.Container]{Host: st.Host, Item: ct})
		}
	}

	snap.Services = cache.Collect[homeapi.SystemdUnit](c, cache.KindServices)
	snap.Todos = cache.Collect[homeapi.Todo](c, cache.KindTodos)
	snap.Pinned = cache.Items(cache.Collect[homeapi.PinnedService](c, cache.KindPinned))
	snap.Links = cache.Items(cache.Collect[homeapi.Link](c, cache.KindLinks))
	snap.LinksStale = c.Peek(cache.KindLinks, reg.Primary()).FetchedAt.IsZero()
	snap.Weather = cache.Items(cache.Collect[homeapi.Weather](c, cache.KindWeather))
	snap.Devices = cache.Items(cache.Collect[homeapi.Device](c, cache.KindDevices))

	return snap, primaryErr
}
