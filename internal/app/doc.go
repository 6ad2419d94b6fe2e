// Package app is the composition root of homedash.
//
// Run loads the configuration, sets up logging and builds the object graph:
//
//	hosts.Registry ──> cache.Cache ──> poller ──> state.Store ──> ui / feed
//	       ▲               ▲
//	       │               └── cache.Bus <── actions <── ui
//	       └── poller (device list)
//
// The cache runs one polling loop per (kind, host). The poller listens for
// cache changes, applies the polled device list to the registry and builds a
// new snapshot for the store. Only a fresh primary status result moves the
// store's failure counter, so the dashboard goes offline after two failed
// primary polls in a row rather than after two unrelated cache changes.
//
// Mutations from the UI, and from the one-shot commands of RunCommand, are
// sent through actions. Each one is routed to the client of its host and,
// once the host accepted it, published on the invalidation bus so the
// affected entries are fetched again.
//
// Background work (cache loops, poller, optional feed server) runs under an
// errgroup that is cancelled when the UI exits.
package app
