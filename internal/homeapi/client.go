package homeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Error taxonomy shared by every host client. Callers match with errors.Is.
var (
	ErrHostUnreachable = errors.New("host unreachable")
	ErrDecode          = errors.New("decode response")
	ErrMutationFailed  = errors.New("mutation failed")
)

// StatusFetcher defines the read side of the home API.
// This interface is implemented by *Client and can be used for testing.
type StatusFetcher interface {
	FetchStatus(ctx context.Context) (*NodeStatus, error)
	FetchServices(ctx context.Context) ([]SystemdUnit, error)
	FetchTodos(ctx context.Context) ([]Todo, error)
	FetchDevices(ctx context.Context) ([]Device, error)
	FetchLinks(ctx context.Context) ([]Link, error)
	FetchWeather(ctx context.Context) ([]Weather, error)
	FetchPinned(ctx context.Context) ([]PinnedService, error)
}

// Ensure Client implements StatusFetcher at compile time.
var _ StatusFetcher = (*Client)(nil)

// Client talks to the home API of a single host.
type Client struct {
	address   string
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultAddress   = "127.0.0.1:5000"
	defaultUserAgent = "homedash/0.1"
	requestTimeout   = 5 * time.Second
)

// NewClient builds a Client for the host reachable at address (host:port).
func NewClient(address string) (*Client, error) {
	return NewClientWithTimeout(address, requestTimeout)
}

// NewClientWithTimeout is NewClient with an explicit per-request timeout.
func NewClientWithTimeout(address string, timeout time.Duration) (*Client, error) {
	base, err := parseBaseURL(address)
	if err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = requestTimeout
	}
	return &Client{
		address: address,
		baseURL: base,
		http: &http.Client{
			Timeout: timeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// Address returns the host address the client was built for.
func (c *Client) Address() string {
	return c.address
}

// FetchStatus retrieves the hardware, network, docker and service snapshot.
func (c *Client) FetchStatus(ctx context.Context) (*NodeStatus, error) {
	var payload NodeStatus
	if err := c.query(ctx, "status", &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

// FetchServices retrieves the systemd units of the host.
func (c *Client) FetchServices(ctx context.Context) ([]SystemdUnit, error) {
	var payload []SystemdUnit
	if err := c.query(ctx, "services", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchTodos retrieves the todos stored on the host.
func (c *Client) FetchTodos(ctx context.Context) ([]Todo, error) {
	var payload []Todo
	if err := c.query(ctx, "todos", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchDevices retrieves the registered devices.
func (c *Client) FetchDevices(ctx context.Context) ([]Device, error) {
	var payload []Device
	if err := c.query(ctx, "monitored_devices", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchLinks retrieves the links sorted by their server-side order.
func (c *Client) FetchLinks(ctx context.Context) ([]Link, error) {
	var payload []Link
	if err := c.query(ctx, "link", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchWeather retrieves the tracked cities.
func (c *Client) FetchWeather(ctx context.Context) ([]Weather, error) {
	var payload []Weather
	if err := c.query(ctx, "weather", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchPinned retrieves the pinned services across all hosts.
func (c *Client) FetchPinned(ctx context.Context) ([]PinnedService, error) {
	var payload []PinnedService
	if err := c.query(ctx, "services/pinned", &payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// PutDevice registers a new device.
func (c *Client) PutDevice(ctx context.Context, device PutDevice) error {
	if strings.TrimSpace(device.Hostname) == "" {
		return fmt.Errorf("%w: hostname required", ErrMutationFailed)
	}
	return c.mutate(ctx, http.MethodPut, "monitored_devices", device)
}

// DeleteDevice unregisters a device.
func (c *Client) DeleteDevice(ctx context.Context, id int) error {
	return c.mutate(ctx, http.MethodDelete, "monitored_devices/"+strconv.Itoa(id), nil)
}

// PutLink adds a link.
func (c *Client) PutLink(ctx context.Context, link PutLink) error {
	if strings.TrimSpace(link.Name) == "" || strings.TrimSpace(link.URL) == "" {
		return fmt.Errorf("%w: name and url required", ErrMutationFailed)
	}
	return c.mutate(ctx, http.MethodPut, "link", link)
}

// DeleteLink removes a link.
func (c *Client) DeleteLink(ctx context.Context, id int) error {
	return c.mutate(ctx, http.MethodDelete, "link/"+strconv.Itoa(id), nil)
}

// ReorderLink moves a link to index.
func (c *Client) ReorderLink(ctx context.Context, order LinkOrder) error {
	if order.ID < 0 || order.Index < 0 {
		return fmt.Errorf("%w: negative id or index", ErrMutationFailed)
	}
	return c.mutate(ctx, http.MethodPost, "link/order", order)
}

// PinService pins a service of the given host.
func (c *Client) PinService(ctx context.Context, pin PinnedService) error {
	return c.mutate(ctx, http.MethodPost, "services/pin", pin)
}

// UnpinService removes a pin.
func (c *Client) UnpinService(ctx context.Context, pin PinnedService) error {
	return c.mutate(ctx, http.MethodPost, "services/unpin", pin)
}

// ContainerAction starts, stops or restarts a container on this host.
func (c *Client) ContainerAction(ctx context.Context, containerID string, action ContainerAction) error {
	if !action.Valid() {
		return fmt.Errorf("%w: unknown container action %q", ErrMutationFailed, action)
	}
	if strings.TrimSpace(containerID) == "" {
		return fmt.Errorf("%w: container id required", ErrMutationFailed)
	}
	path := "docker/" + containerID + "/" + string(action)
	return c.mutate(ctx, http.MethodPost, path, nil)
}

// PutTodo adds a todo on this host.
func (c *Client) PutTodo(ctx context.Context, todo PutTodo) error {
	return c.mutate(ctx, http.MethodPut, "todos", todo)
}

// DeleteTodo removes a todo from this host.
func (c *Client) DeleteTodo(ctx context.Context, id int) error {
	return c.mutate(ctx, http.MethodDelete, "todos/"+strconv.Itoa(id), nil)
}

// PutCity starts tracking weather for a city.
func (c *Client) PutCity(ctx context.Context, city PutCity) error {
	return c.mutate(ctx, http.MethodPut, "weather", city)
}

// DeleteCity stops tracking a city.
func (c *Client) DeleteCity(ctx context.Context, id int) error {
	return c.mutate(ctx, http.MethodDelete, "weather/"+strconv.Itoa(id), nil)
}

func (c *Client) query(ctx context.Context, path string, dest any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	resp, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrHostUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: api %s returned status %d", ErrHostUnreachable, path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	return nil
}

func (c *Client) mutate(ctx context.Context, method, path string, body any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMutationFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: api %s %s returned status %d", ErrMutationFailed, method, path, resp.StatusCode)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	rel := &url.URL{Path: path}
	reqURL := c.baseURL.ResolveReference(rel)

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	return resp, nil
}

func parseBaseURL(address string) (*url.URL, error) {
	trimmed := strings.TrimSpace(address)
	if trimmed == "" {
		trimmed = defaultAddress
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse host address %q: %w", address, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse host address %q: missing host", address)
	}
	u.Path = "/api/"
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
