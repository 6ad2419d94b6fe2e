package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/homedash/internal/cache"
	"github.com/five82/homedash/internal/config"
	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/hosts"
	"github.com/five82/homedash/internal/reorder"
)

const (
	waitFor = 2 * time.Second
	tick    = 10 * time.Millisecond
)

// fakeHome is a single host of the home API that records every mutation.
type fakeHome struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string][]byte
	failing  bool
	devices  []homeapi.Device
}

func (h *fakeHome) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	h.mu.Lock()
	defer h.mu.Unlock()
	if r.Method != http.MethodGet {
		key := r.Method + " " + r.URL.Path
		h.requests = append(h.requests, key)
		h.bodies[key] = body
		if h.failing {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/status":
		_, _ = w.Write([]byte(`{"services":[],"docker":[],"hardware":{},"network":{"hostname":"primary"}}`))
	case "/api/monitored_devices":
		_ = json.NewEncoder(w).Encode(h.devices)
	default:
		_, _ = w.Write([]byte(`[]`))
	}
}

func (h *fakeHome) mutations() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.requests...)
}

func (h *fakeHome) body(key string) []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.bodies[key]
}

func newFakeHome(t *testing.T) (*fakeHome, *httptest.Server) {
	t.Helper()
	home := &fakeHome{bodies: make(map[string][]byte)}
	srv := httptest.NewServer(home)
	t.Cleanup(srv.Close)
	return home, srv
}

func newTestDashboard(t *testing.T, srv *httptest.Server) *dashboard {
	t.Helper()
	return newDashboard(config.Config{Primary: srv.URL, RequestTimeout: time.Second})
}

func TestActions_CommitOrderPostsAndInvalidatesLinks(t *testing.T) {
	home, srv := newFakeHome(t)
	d := newTestDashboard(t, srv)
	ctx := context.Background()

	_, err := d.cache.Load(ctx, cache.KindLinks, d.reg.Primary())
	require.NoError(t, err)
	require.False(t, d.cache.Peek(cache.KindLinks, d.reg.Primary()).FetchedAt.IsZero())

	require.NoError(t, d.actions.CommitOrder(ctx, reorder.Commit{ID: 7, Index: 2}))

	assert.Equal(t, []string{"POST /api/link/order"}, home.mutations())
	assert.JSONEq(t, `{"id":7,"index":2}`, string(home.body("POST /api/link/order")))
	assert.True(t, d.cache.Peek(cache.KindLinks, d.reg.Primary()).FetchedAt.IsZero())
}

func TestActions_FailedMutationKeepsCache(t *testing.T) {
	home, srv := newFakeHome(t)
	home.failing = true
	d := newTestDashboard(t, srv)
	ctx := context.Background()

	_, err := d.cache.Load(ctx, cache.KindLinks, d.reg.Primary())
	require.NoError(t, err)

	err = d.actions.DeleteLink(ctx, 3)
	require.ErrorIs(t, err, homeapi.ErrMutationFailed)
	assert.Contains(t, err.Error(), "delete-link")
	assert.False(t, d.cache.Peek(cache.KindLinks, d.reg.Primary()).FetchedAt.IsZero())
}

func TestActions_ContainerActionUnknownHost(t *testing.T) {
	home, srv := newFakeHome(t)
	d := newTestDashboard(t, srv)

	err := d.actions.ContainerAction(context.Background(), "device-9", "abc", homeapi.ContainerStop)
	require.ErrorIs(t, err, hosts.ErrUnknownHost)
	assert.Empty(t, home.mutations())
}

func TestActions_ContainerActionInvalidatesHostStatusOnly(t *testing.T) {
	home, srv := newFakeHome(t)
	d := newTestDashboard(t, srv)
	ctx := context.Background()
	primary := d.reg.Primary()

	for _, kind := range []cache.Kind{cache.KindStatus, cache.KindLinks} {
		_, err := d.cache.Load(ctx, kind, primary)
		require.NoError(t, err)
	}

	require.NoError(t, d.actions.ContainerAction(ctx, hosts.PrimaryID, "abc", homeapi.ContainerRestart))
	assert.Equal(t, []string{"POST /api/docker/abc/restart"}, home.mutations())
	assert.True(t, d.cache.Peek(cache.KindStatus, primary).FetchedAt.IsZero())
	assert.False(t, d.cache.Peek(cache.KindLinks, primary).FetchedAt.IsZero())
}

func TestActions_SetPinnedTargetsPrimary(t *testing.T) {
	home, srv := newFakeHome(t)
	d := newTestDashboard(t, srv)
	ctx := context.Background()
	pin := homeapi.PinnedService{Name: "plex.service", Host: "nas.lan:5000"}

	require.NoError(t, d.actions.SetPinned(ctx, pin, true))
	require.NoError(t, d.actions.SetPinned(ctx, pin, false))

	assert.Equal(t, []string{"POST /api/services/pin", "POST /api/services/unpin"}, home.mutations())
}

func TestRunCommand_AddTodoOnDevice(t *testing.T) {
	primary, primarySrv := newFakeHome(t)
	device, deviceSrv := newFakeHome(t)
	primary.devices = []homeapi.Device{{ID: 4, Hostname: deviceSrv.URL}}

	d := newTestDashboard(t, primarySrv)
	run := commands["add-todo"].run
	require.NoError(t, run(context.Background(), d, []string{"device-4", "water", "plants"}, io.Discard))

	assert.Empty(t, primary.mutations())
	assert.Equal(t, []string{"PUT /api/todos"}, device.mutations())
	assert.JSONEq(t, `{"content":"water plants"}`, string(device.body("PUT /api/todos")))
}

func TestRunCommand_RejectsBadUsage(t *testing.T) {
	var out bytes.Buffer
	tests := [][]string{
		nil,
		{"launch-rockets"},
		{"add-link", "only-name"},
	}
	for _, args := range tests {
		err := RunCommand(context.Background(), Options{}, args, &out)
		assert.ErrorIs(t, err, ErrUsage, "args %v", args)
	}
	assert.Empty(t, out.String())

	_, err := parseID("x1")
	assert.ErrorIs(t, err, ErrUsage)
}

func TestShowLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "homedash.log")
	content := `{"level":"info","component":"app","message":"starting dashboard"}` + "\n" +
		`{"level":"info","component":"app","message":"dashboard stopped"}` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var out bytes.Buffer
	require.NoError(t, showLogs(path, 1, &out))
	assert.Contains(t, out.String(), "dashboard stopped")
	assert.NotContains(t, out.String(), "starting dashboard")

	assert.Error(t, showLogs(config.LogStderr, 1, &out))
}
