package homeapi

import (
	"strings"
	"sync"
	"time"
)

// Pool hands out one Client per host address, creating them lazily.
type Pool struct {
	timeout time.Duration

	mu      sync.Mutex
	clients map[string]*Client
}

// NewPool builds an empty pool whose clients use the given request timeout.
// A zero timeout uses the client default.
func NewPool(timeout time.Duration) *Pool {
	return &Pool{
		timeout: timeout,
		clients: make(map[string]*Client),
	}
}

// Client returns the client for address, creating it on first use.
func (p *Pool) Client(address string) (*Client, error) {
	key := strings.TrimSpace(address)

	p.mu.Lock()
	defer p.mu.Unlock()

	if c, ok := p.clients[key]; ok {
		return c, nil
	}
	c, err := NewClientWithTimeout(key, p.timeout)
	if err != nil {
		return nil, err
	}
	p.clients[key] = c
	return c, nil
}

// Forget drops the client for address. Used when a device is unregistered.
func (p *Pool) Forget(address string) {
	p.mu.Lock()
	delete(p.clients, strings.TrimSpace(address))
	p.mu.Unlock()
}
