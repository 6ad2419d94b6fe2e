package reorder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/homedash/internal/cache"
	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/hosts"
)

type item struct {
	id   int
	name string
}

func (i item) OrderID() int { return i.id }

func names[T interface{ Name() string }](items []T) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name()
	}
	return out
}

func (i item) Name() string { return i.name }

// chips lays items out on one row, 40px apart starting at x=20.
func chips(n int) Sampler {
	return SamplerFunc(func() []Sample {
		out := make([]Sample, n)
		for i := range out {
			out[i] = Sample{Index: i, CenterX: 20 + float64(i)*40, CenterY: 8}
		}
		return out
	})
}

func abcd() []item {
	return []item{{1, "a"}, {2, "b"}, {3, "c"}, {4, "d"}}
}

func TestCoordinator_DragLifecycle(t *testing.T) {
	c := NewCoordinator[item](chips(4))
	c.SetServerOrder(abcd())
	assert.Equal(t, PhaseIdle, c.Phase())

	require.NoError(t, c.Begin(0))
	assert.Equal(t, PhaseDragging, c.Phase())
	assert.ErrorIs(t, c.Begin(1), ErrSessionActive)

	idx, ok := c.Move(Point{X: 95, Y: 8})
	require.True(t, ok)
	assert.Equal(t, 2, idx)
	assert.Equal(t, PhasePreviewing, c.Phase())
	assert.Equal(t, []string{"b", "c", "a", "d"}, names(c.Display()))

	s, active := c.Session()
	require.True(t, active)
	assert.Equal(t, Session{DraggedIndex: 0, CandidateIndex: 2, HasCandidate: true}, s)

	_, ok = c.Move(Point{X: 1000, Y: 1000})
	assert.False(t, ok)
	assert.Equal(t, PhaseDragging, c.Phase())
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(c.Display()))

	c.Move(Point{X: 95, Y: 8})
	commit, ok := c.End()
	require.True(t, ok)
	assert.Equal(t, Commit{ID: 1, Index: 2}, commit)
	assert.Equal(t, homeapi.LinkOrder{ID: 1, Index: 2}, commit.LinkOrder())
	assert.Equal(t, PhaseCommitted, c.Phase())
	assert.Equal(t, []string{"b", "c", "a", "d"}, names(c.Display()))
	assert.ErrorIs(t, c.Begin(0), ErrSessionActive)

	require.NoError(t, c.Resolved(nil))
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, []string{"b", "c", "a", "d"}, names(c.Display()))
}

func TestCoordinator_EndWithoutMoveDoesNotCommit(t *testing.T) {
	c := NewCoordinator[item](chips(4))
	c.SetServerOrder(abcd())

	require.NoError(t, c.Begin(1))
	_, ok := c.End()
	assert.False(t, ok)

	require.NoError(t, c.Begin(1))
	c.Move(Point{X: 55, Y: 8})
	_, ok = c.End()
	assert.False(t, ok, "candidate equal to dragged index")
	assert.Equal(t, PhaseIdle, c.Phase())

	require.NoError(t, c.Begin(1))
	c.Move(Point{X: 140, Y: 8})
	c.Cancel()
	assert.Equal(t, PhaseIdle, c.Phase())
	assert.Equal(t, []string{"a", "b", "c", "d"}, names(c.Display()))
}

func TestCoordinator_BeginValidatesIndex(t *testing.T) {
	c := NewCoordinator[item](chips(0))
	assert.ErrorIs(t, c.Begin(0), ErrIndexOutOfRange)

	c.SetServerOrder(abcd())
	assert.ErrorIs(t, c.Begin(-1), ErrIndexOutOfRange)
	assert.ErrorIs(t, c.Begin(4), ErrIndexOutOfRange)
}

func TestCoordinator_SingleItemIsNoOp(t *testing.T) {
	c := NewCoordinator[item](chips(1))
	c.SetServerOrder([]item{{1, "a"}})

	require.NoError(t, c.Begin(0))
	_, ok := c.Move(Point{X: 20, Y: 8})
	assert.False(t, ok)
	_, ok = c.End()
	assert.False(t, ok)
}

func TestCoordinator_FailedCommitRevertsDisplay(t *testing.T) {
	c := NewCoordinator[item](chips(4))
	c.SetServerOrder(abcd())
	before := c.Display()

	require.NoError(t, c.Begin(3))
	c.Move(Point{X: 5, Y: 8})
	cause := errors.New("backend said no")

	err := c.Finish(context.Background(), CommitterFunc(func(context.Context, Commit) error {
		return cause
	}))

	var cerr *CommitError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, Commit{ID: 4, Index: 0}, cerr.Commit)
	assert.ErrorIs(t, err, homeapi.ErrMutationFailed)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, before, c.Display())
	assert.Equal(t, PhaseIdle, c.Phase())

	assert.Equal(t, err, c.Err())
	assert.NoError(t, c.Resolved(errors.New("again")), "nothing pending")

	c.ClearErr()
	assert.NoError(t, c.Err())

	require.NoError(t, c.Begin(0))
	c.Cancel()
	assert.NoError(t, c.Err())
}

func TestCoordinator_ErrClearedByBegin(t *testing.T) {
	c := NewCoordinator[item](chips(4))
	c.SetServerOrder(abcd())

	require.NoError(t, c.Begin(0))
	c.Move(Point{X: 140, Y: 8})
	_, ok := c.End()
	require.True(t, ok)
	require.Error(t, c.Resolved(homeapi.ErrMutationFailed))
	require.Error(t, c.Err())

	require.NoError(t, c.Begin(0))
	assert.NoError(t, c.Err())
}

// linkBackend is an in-memory link list served over the host API.
type linkBackend struct {
	mu    sync.Mutex
	links []homeapi.Link
	fail  bool
}

func (b *linkBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch r.URL.Path {
	case "/api/link":
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(b.links)
	case "/api/link/order":
		if b.fail {
			http.Error(w, "rejected", http.StatusInternalServerError)
			return
		}
		var order homeapi.LinkOrder
		if err := json.NewDecoder(r.Body).Decode(&order); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for i, l := range b.links {
			if l.ID == order.ID {
				b.links = Preview(b.links, i, order.Index)
				break
			}
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.NotFound(w, r)
	}
}

func linkNames(links []homeapi.Link) []string {
	out := make([]string, len(links))
	for i, l := range links {
		out[i] = l.Name
	}
	return out
}

func TestCoordinator_CommitRoundTripsThroughCache(t *testing.T) {
	for _, fail := range []bool{false, true} {
		name := "accepted"
		if fail {
			name = "rejected"
		}
		t.Run(name, func(t *testing.T) {
			backend := &linkBackend{
				links: []homeapi.Link{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}},
				fail:  fail,
			}
			server := httptest.NewServer(backend)
			t.Cleanup(server.Close)

			address := strings.TrimPrefix(server.URL, "http://")
			reg := hosts.New(address)
			pool := homeapi.NewPool(time.Second)
			store := cache.New(reg, cache.NewAPIFetcher(pool))
			bus := cache.NewBus(store, zerolog.Nop())
			ctx := context.Background()

			load := func() []homeapi.Link {
				e, err := store.Load(ctx, cache.KindLinks, reg.Primary())
				require.NoError(t, err)
				return e.Data.([]homeapi.Link)
			}

			coord := NewCoordinator[homeapi.Link](chips(3))
			coord.SetServerOrder(load())
			before := coord.Display()

			require.NoError(t, coord.Begin(0))
			_, ok := coord.Move(Point{X: 70, Y: 8})
			require.True(t, ok)

			committer := CommitterFunc(func(ctx context.Context, c Commit) error {
				client, err := pool.Client(address)
				if err != nil {
					return err
				}
				return bus.Do(ctx, cache.MutationReorderLink, hosts.PrimaryID, func(ctx context.Context) error {
					return client.ReorderLink(ctx, c.LinkOrder())
				})
			})
			err := coord.Finish(ctx, committer)

			if fail {
				require.ErrorIs(t, err, homeapi.ErrMutationFailed)
				assert.Equal(t, before, coord.Display())
				assert.Equal(t, []string{"a", "b", "c"}, linkNames(load()))
				return
			}

			require.NoError(t, err)
			shown := coord.Display()
			fresh := load()
			assert.Equal(t, []string{"b", "c", "a"}, linkNames(fresh))
			assert.Equal(t, fresh, shown)

			coord.SetServerOrder(fresh)
			assert.Equal(t, fresh, coord.Display())
		})
	}
}
