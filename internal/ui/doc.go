// Package ui is the terminal dashboard of homedash, built on Bubble Tea.
//
// The model reads immutable snapshots from state.Store on a fixed tick and
// never talks to the network itself. Mutations go through the Actions
// interface, which the app package implements on top of the invalidation
// bus, so every successful action is followed by a refetch of the affected
// cache keys.
//
// # Layout
//
// Two chrome rows (status header and command bar) are followed by the links
// box and one list panel. Links render as wrapped chips; the list panel shows
// whichever of Hosts, Containers, Services, Todos or Weather has focus.
//
// # Link reordering
//
// Chips can be dragged with the mouse. The chip positions computed for the
// last render are kept in a chipLayout, which doubles as the sampler of a
// reorder.Coordinator:
//
//  1. Left press on a chip calls Begin with its index.
//  2. Motion calls Move with the pointer converted to nominal pixels, and
//     the chips are laid out again in the previewed order.
//  3. Release calls End; a resulting Commit is sent in the background and
//     its outcome is fed back through Resolved. A rejected commit restores
//     the server order and shows the error on the status line until the
//     next key press.
//
// # Key Bindings
//
//   - tab / shift+tab: Cycle panels
//   - j/k, g/G: Move selection
//   - s/x/R: Start, stop or restart the selected container
//   - p: Pin or unpin the selected service
//   - d: Delete the selected link or todo
//   - r: Refresh every cached query
//   - esc: Cancel an active drag
//   - h or ?: Help
//   - e or ctrl+c: Exit
package ui
