// Package cache keeps one entry per (kind, host) pair of polled dashboard
// data and merges those entries into host-tagged collections.
//
// # Entries
//
// An entry is fetched on first read and re-fetched once it is older than
// its kind's interval. At most one request per entry is outstanding; readers
// that arrive while it runs join it through a singleflight group.
//
// Every invalidation bumps the entry's generation. A fetch only commits when
// the generation it started under is still current and its host is still
// registered, so results that raced an invalidation or a host removal are
// dropped.
//
// Failed fetches keep the previous data but set Err. Collect treats such
// entries as absent.
//
// # Polling
//
// Start runs one goroutine per (kind, host) that re-reads its entry at the
// kind's interval and wakes early when the entry is invalidated. Shared kinds
// (devices, links, weather, pinned) are only polled on the primary host.
//
// # Invalidation
//
// Bus maps backend mutations to the entries they make stale:
//
//	device add/remove, refresh   every kind, every host
//	pin/unpin service            services on every host, pinned
//	container action             status of the affected host
//	link add/delete/reorder      links
//	todo add/delete              todos of the affected host
//	city add/delete              weather
package cache
