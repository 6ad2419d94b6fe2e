package cache

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/homedash/internal/homeapi"
	"github.com/five82/homedash/internal/hosts"
)

func TestAPIFetcher_RoutesKindsToEndpoints(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/status":
			_ = json.NewEncoder(w).Encode(homeapi.NodeStatus{Network: homeapi.NetworkStatus{Hostname: "pi"}})
		case "/api/link":
			_ = json.NewEncoder(w).Encode([]homeapi.Link{{ID: 3, Name: "nas"}})
		default:
			_, _ = w.Write([]byte("[]"))
		}
	}))
	t.Cleanup(server.Close)

	f := NewAPIFetcher(homeapi.NewPool(time.Second))
	host := hosts.Host{ID: hosts.PrimaryID, Address: strings.TrimPrefix(server.URL, "http://")}
	ctx := context.Background()

	status, err := f.Fetch(ctx, KindStatus, host)
	require.NoError(t, err)
	require.IsType(t, &homeapi.NodeStatus{}, status)
	assert.Equal(t, "pi", status.(*homeapi.NodeStatus).Network.Hostname)

	links, err := f.Fetch(ctx, KindLinks, host)
	require.NoError(t, err)
	assert.Equal(t, []homeapi.Link{{ID: 3, Name: "nas"}}, links)

	for _, k := range []Kind{KindServices, KindTodos, KindDevices, KindWeather, KindPinned} {
		_, err := f.Fetch(ctx, k, host)
		assert.NoError(t, err, k.String())
	}

	_, err = f.Fetch(ctx, Kind(77), host)
	assert.Error(t, err)
}
