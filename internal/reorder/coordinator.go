package reorder

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/five82/homedash/internal/homeapi"
)

var (
	ErrSessionActive   = errors.New("drag session already active")
	ErrIndexOutOfRange = errors.New("drag index out of range")
)

// Identified items carry the backend id used in order commits.
type Identified interface {
	OrderID() int
}

// Phase is the state of a Coordinator.
type Phase int

const (
	// PhaseIdle: no drag and no pending commit.
	PhaseIdle Phase = iota
	// PhaseDragging: a drag is active but the pointer resolves to no slot.
	PhaseDragging
	// PhasePreviewing: a drag is active and a candidate slot is shown.
	PhasePreviewing
	// PhaseCommitted: the drag ended with a move that awaits Resolved.
	PhaseCommitted
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseDragging:
		return "dragging"
	case PhasePreviewing:
		return "previewing"
	case PhaseCommitted:
		return "committed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Session is one drag gesture.
type Session struct {
	DraggedIndex   int
	CandidateIndex int
	HasCandidate   bool
}

// Commit is the order mutation produced by a finished drag.
type Commit struct {
	ID    int
	Index int
}

// LinkOrder converts c into the wire payload.
func (c Commit) LinkOrder() homeapi.LinkOrder {
	return homeapi.LinkOrder{ID: c.ID, Index: c.Index}
}

// Committer sends a commit to the backend.
type Committer interface {
	CommitOrder(ctx context.Context, c Commit) error
}

// CommitterFunc adapts a function to Committer.
type CommitterFunc func(ctx context.Context, c Commit) error

// CommitOrder implements Committer.
func (f CommitterFunc) CommitOrder(ctx context.Context, c Commit) error { return f(ctx, c) }

// CommitError reports a rejected order commit. It matches
// homeapi.ErrMutationFailed as well as the underlying cause.
type CommitError struct {
	Commit Commit
	Err    error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("reorder item %d to %d: %v", e.Commit.ID, e.Commit.Index, e.Err)
}

func (e *CommitError) Unwrap() []error {
	return []error{homeapi.ErrMutationFailed, e.Err}
}

// Coordinator drives drag reordering of one collection: it holds the order
// last reported by the server, the active drag session and the optimistic
// order of a commit that has not been confirmed yet. Methods are safe for
// concurrent use.
type Coordinator[T Identified] struct {
	sampler Sampler

	mu      sync.Mutex
	server  []T
	session *Session
	pending []T
	commit  Commit
	err     error
}

// NewCoordinator returns an idle coordinator measuring layouts with sampler.
func NewCoordinator[T Identified](sampler Sampler) *Coordinator[T] {
	return &Coordinator[T]{sampler: sampler}
}

// SetServerOrder records the latest order reported by the backend.
func (c *Coordinator[T]) SetServerOrder(items []T) {
	c.mu.Lock()
	c.server = append([]T(nil), items...)
	c.mu.Unlock()
}

// Display returns the order to render: the preview while a candidate is
// shown, the optimistic order while a commit is pending and the server order
// otherwise.
func (c *Coordinator[T]) Display() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.displayLocked()...)
}

func (c *Coordinator[T]) displayLocked() []T {
	switch {
	case c.session != nil && c.session.HasCandidate:
		return Preview(c.server, c.session.DraggedIndex, c.session.CandidateIndex)
	case c.pending != nil:
		return c.pending
	default:
		return c.server
	}
}

// Phase returns the current state.
func (c *Coordinator[T]) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLocked()
}

func (c *Coordinator[T]) phaseLocked() Phase {
	switch {
	case c.session != nil && c.session.HasCandidate:
		return PhasePreviewing
	case c.session != nil:
		return PhaseDragging
	case c.pending != nil:
		return PhaseCommitted
	default:
		return PhaseIdle
	}
}

// Session returns the active drag session.
func (c *Coordinator[T]) Session() (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return Session{}, false
	}
	return *c.session, true
}

// Begin starts dragging the item at index of the server order. Only one
// drag or pending commit may exist at a time. Any previous commit error is
// cleared.
func (c *Coordinator[T]) Begin(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.phaseLocked() != PhaseIdle {
		return ErrSessionActive
	}
	if index < 0 || index >= len(c.server) {
		return fmt.Errorf("begin %d of %d: %w", index, len(c.server), ErrIndexOutOfRange)
	}
	c.session = &Session{DraggedIndex: index}
	c.err = nil
	return nil
}

// Move resolves the pointer against a fresh sample of the layout and stores
// the result as the candidate. Collections of fewer than two items never
// produce a candidate.
func (c *Coordinator[T]) Move(p Point) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil || len(c.server) < 2 {
		return 0, false
	}
	var samples []Sample
	if c.sampler != nil {
		samples = c.sampler.Sample()
	}
	index, ok := Resolve(samples, p)
	c.session.CandidateIndex = index
	c.session.HasCandidate = ok
	return index, ok
}

// End finishes the drag. The session is cleared in every case. A Commit is
// returned when the candidate differs from the dragged index, and the
// previewed order is kept as the optimistic display until Resolved.
func (c *Coordinator[T]) End() (Commit, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.session
	c.session = nil
	if s == nil || !s.HasCandidate || s.CandidateIndex == s.DraggedIndex {
		return Commit{}, false
	}

	c.pending = Preview(c.server, s.DraggedIndex, s.CandidateIndex)
	c.commit = Commit{ID: c.server[s.DraggedIndex].OrderID(), Index: s.CandidateIndex}
	return c.commit, true
}

// Cancel abandons the drag without committing.
func (c *Coordinator[T]) Cancel() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}

// Resolved reports the outcome of the pending commit. On success the
// optimistic order becomes the server order until the next SetServerOrder.
// On failure the display reverts to the server order and a *CommitError is
// returned and kept as Err.
func (c *Coordinator[T]) Resolved(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.pending == nil {
		return nil
	}
	pending := c.pending
	c.pending = nil
	if err == nil {
		c.server = pending
		return nil
	}
	cerr := &CommitError{Commit: c.commit, Err: err}
	c.err = cerr
	return cerr
}

// Err returns the last commit failure until it is cleared.
func (c *Coordinator[T]) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// ClearErr drops the last commit failure.
func (c *Coordinator[T]) ClearErr() {
	c.mu.Lock()
	c.err = nil
	c.mu.Unlock()
}

// Finish ends the drag and, if it produced a move, commits it synchronously.
func (c *Coordinator[T]) Finish(ctx context.Context, committer Committer) error {
	commit, ok := c.End()
	if !ok {
		return nil
	}
	return c.Resolved(committer.CommitOrder(ctx, commit))
}
