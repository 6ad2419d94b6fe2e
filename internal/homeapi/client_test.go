package homeapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestParseBaseURL_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseBaseURL("")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Scheme != "http" {
		t.Fatalf("scheme = %q, want http", u.Scheme)
	}
	if u.Host != defaultAddress {
		t.Fatalf("host = %q, want %q", u.Host, defaultAddress)
	}

	u, err = parseBaseURL("http://example.com:1234/path?x=1#frag")
	if err != nil {
		t.Fatalf("parseBaseURL returned error: %v", err)
	}
	if u.Path != "/api/" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_FetchesEndpoints(t *testing.T) {
	t.Parallel()

	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/status":
			_ = json.NewEncoder(w).Encode(NodeStatus{
				Docker:  []Container{{ID: "abc", Name: "web", Running: true}},
				Network: NetworkStatus{Hostname: "pi"},
			})
		case "/api/services":
			_ = json.NewEncoder(w).Encode([]SystemdUnit{{Name: "ssh.service", State: "active"}})
		case "/api/monitored_devices":
			_ = json.NewEncoder(w).Encode([]Device{{ID: 3, Hostname: "10.0.0.3:5000"}})
		case "/api/link":
			_ = json.NewEncoder(w).Encode([]Link{{ID: 1, Name: "Router", URL: "http://router.lan"}})
		case "/api/todos":
			_ = json.NewEncoder(w).Encode([]Todo{{ID: 9, Content: "milk"}})
		case "/api/weather":
			_ = json.NewEncoder(w).Encode([]Weather{{ID: 2, City: "Oslo", Temperature: -3}})
		case "/api/services/pinned":
			_ = json.NewEncoder(w).Encode([]PinnedService{{Name: "ssh.service", Host: "pi"}})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	status, err := c.FetchStatus(ctx)
	if err != nil {
		t.Fatalf("FetchStatus returned error: %v", err)
	}
	if status.Network.Hostname != "pi" || len(status.Docker) != 1 {
		t.Fatalf("FetchStatus payload = %#v, want hostname pi and one container", status)
	}

	units, err := c.FetchServices(ctx)
	if err != nil || len(units) != 1 || units[0].Name != "ssh.service" {
		t.Fatalf("FetchServices = %#v, %v", units, err)
	}
	devices, err := c.FetchDevices(ctx)
	if err != nil || len(devices) != 1 || devices[0].ID != 3 {
		t.Fatalf("FetchDevices = %#v, %v", devices, err)
	}
	links, err := c.FetchLinks(ctx)
	if err != nil || len(links) != 1 || links[0].Name != "Router" {
		t.Fatalf("FetchLinks = %#v, %v", links, err)
	}
	todos, err := c.FetchTodos(ctx)
	if err != nil || len(todos) != 1 || todos[0].Content != "milk" {
		t.Fatalf("FetchTodos = %#v, %v", todos, err)
	}
	weather, err := c.FetchWeather(ctx)
	if err != nil || len(weather) != 1 || weather[0].City != "Oslo" {
		t.Fatalf("FetchWeather = %#v, %v", weather, err)
	}
	pinned, err := c.FetchPinned(ctx)
	if err != nil || len(pinned) != 1 || pinned[0].Host != "pi" {
		t.Fatalf("FetchPinned = %#v, %v", pinned, err)
	}

	if gotUserAgent == "" || !strings.HasPrefix(gotUserAgent, "homedash/") {
		t.Fatalf("User-Agent = %q, want homedash/*", gotUserAgent)
	}
}

func TestClient_MutationsSendBodiesAndRequestIDs(t *testing.T) {
	t.Parallel()

	type call struct {
		method    string
		path      string
		body      string
		requestID string
	}
	calls := make(chan call, 16)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		calls <- call{r.Method, r.URL.Path, strings.TrimSpace(string(body)), r.Header.Get("X-Request-ID")}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if err := c.ReorderLink(ctx, LinkOrder{ID: 4, Index: 1}); err != nil {
		t.Fatalf("ReorderLink returned error: %v", err)
	}
	got := <-calls
	if got.method != http.MethodPost || got.path != "/api/link/order" || got.body != `{"id":4,"index":1}` {
		t.Fatalf("ReorderLink call = %#v", got)
	}
	if got.requestID == "" {
		t.Fatalf("ReorderLink missing X-Request-ID")
	}

	if err := c.ContainerAction(ctx, "abc", ContainerRestart); err != nil {
		t.Fatalf("ContainerAction returned error: %v", err)
	}
	got = <-calls
	if got.path != "/api/docker/abc/restart" {
		t.Fatalf("ContainerAction path = %q", got.path)
	}

	if err := c.PinService(ctx, PinnedService{Name: "ssh.service", Host: "pi"}); err != nil {
		t.Fatalf("PinService returned error: %v", err)
	}
	got = <-calls
	if got.path != "/api/services/pin" || !strings.Contains(got.body, `"host":"pi"`) {
		t.Fatalf("PinService call = %#v", got)
	}

	if err := c.DeleteDevice(ctx, 7); err != nil {
		t.Fatalf("DeleteDevice returned error: %v", err)
	}
	got = <-calls
	if got.method != http.MethodDelete || got.path != "/api/monitored_devices/7" {
		t.Fatalf("DeleteDevice call = %#v", got)
	}
}

func TestClient_RejectsInvalidMutationsLocally(t *testing.T) {
	c, err := NewClient("127.0.0.1:1")
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if err := c.ContainerAction(ctx, "abc", ContainerAction("explode")); !errors.Is(err, ErrMutationFailed) {
		t.Fatalf("ContainerAction error = %v, want ErrMutationFailed", err)
	}
	if err := c.ReorderLink(ctx, LinkOrder{ID: 1, Index: -1}); !errors.Is(err, ErrMutationFailed) {
		t.Fatalf("ReorderLink error = %v, want ErrMutationFailed", err)
	}
	if err := c.PutDevice(ctx, PutDevice{Hostname: "  "}); !errors.Is(err, ErrMutationFailed) {
		t.Fatalf("PutDevice error = %v, want ErrMutationFailed", err)
	}
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/status":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte("{not-json"))
		case "/api/services":
			http.Error(w, "nope", http.StatusInternalServerError)
		case "/api/link/order":
			http.Error(w, "bad index", http.StatusUnprocessableEntity)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	_, err = c.FetchStatus(ctx)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("FetchStatus error = %v, want ErrDecode", err)
	}

	_, err = c.FetchServices(ctx)
	if !errors.Is(err, ErrHostUnreachable) || !strings.Contains(err.Error(), "returned status 500") {
		t.Fatalf("FetchServices error = %v, want ErrHostUnreachable with status 500", err)
	}

	err = c.ReorderLink(ctx, LinkOrder{ID: 1, Index: 0})
	if !errors.Is(err, ErrMutationFailed) || !strings.Contains(err.Error(), "422") {
		t.Fatalf("ReorderLink error = %v, want ErrMutationFailed with status 422", err)
	}
}

func TestClient_UnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := NewClientWithTimeout(addr, 500*time.Millisecond)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if _, err := c.FetchLinks(context.Background()); !errors.Is(err, ErrHostUnreachable) {
		t.Fatalf("FetchLinks error = %v, want ErrHostUnreachable", err)
	}
}

func TestPool_ReusesClientsPerAddress(t *testing.T) {
	p := NewPool(time.Second)

	a, err := p.Client("10.0.0.2:5000")
	if err != nil {
		t.Fatalf("Client returned error: %v", err)
	}
	b, err := p.Client(" 10.0.0.2:5000 ")
	if err != nil {
		t.Fatalf("Client returned error: %v", err)
	}
	if a != b {
		t.Fatalf("Client returned distinct clients for the same address")
	}

	p.Forget("10.0.0.2:5000")
	c, err := p.Client("10.0.0.2:5000")
	if err != nil {
		t.Fatalf("Client returned error: %v", err)
	}
	if c == a {
		t.Fatalf("Client reused a forgotten client")
	}
}
