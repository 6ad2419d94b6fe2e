// Package reorder implements pointer-driven reordering of a wrapped,
// multi-row collection.
//
// A Sampler measures item centers in the current layout, Resolve turns a
// pointer position into an insertion index and Coordinator runs the drag
// gesture from Begin through Move to End, producing at most one Commit per
// gesture. The displayed order is a preview of the server order while
// dragging, the optimistic order while a commit is pending and the server
// order again once the commit fails.
//
// Row detection compares center lines with a fixed RowEpsilon. This matches
// layouts whose items share a height and is not a general layout algorithm.
package reorder
