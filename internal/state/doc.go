// Package state provides thread-safe state management for the dashboard.
//
// # Overview
//
// This package holds the snapshot shared between the cache pump and its
// consumers (the TUI and the feed). The pump rebuilds a Snapshot from the
// cache with Build after every cache change and stores it here.
//
//	Producer (pump):               Consumers:
//	┌──────────────────┐          ┌──────────────────┐
//	│ cache.Changes()  │          │ UI refresh tick  │
//	│      ↓           │          │ feed broadcaster │
//	│ state.Build()    │          │      ↑           │
//	│      ↓           │          │ store.Snapshot() │
//	│ store.Update()   │─────────→│                  │
//	└──────────────────┘ (mutex)  └──────────────────┘
//
// # Update Semantics
//
// Update follows the primary host's status poll:
//
//	store.Update(snap, nil)   // replace data, clear error, reset failures
//	store.Update(snap, err)   // keep data, record err, count the failure
//
// Changes that did not come from a new primary status poll use Refresh,
// which replaces the data but leaves LastError and ConsecutiveFailures as
// they were. IsOffline reports two or more consecutive failures.
//
// # Defensive Copying
//
// Update and Snapshot copy every slice so consumers can never observe or
// cause a partial write. Error values are re-wrapped on read.
//
// Changes delivers a coalesced notification after each write. The zero
// Store is ready to use.
package state
