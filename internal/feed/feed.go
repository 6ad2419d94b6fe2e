// Package feed publishes the dashboard snapshot to external consumers over
// HTTP and WebSocket.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/five82/homedash/internal/state"
)

const (
	writeTimeout    = 5 * time.Second
	shutdownTimeout = 2 * time.Second
)

// Payload is the wire form of a snapshot.
type Payload struct {
	state.Snapshot
	Error   string `json:"error,omitempty"`
	Offline bool   `json:"offline"`
}

// NewPayload converts a snapshot for the wire.
func NewPayload(snap state.Snapshot) Payload {
	p := Payload{Snapshot: snap, Offline: snap.IsOffline()}
	if snap.LastError != nil {
		p.Error = snap.LastError.Error()
	}
	return p
}

type client struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *client) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// Server serves /api/snapshot and /ws from a state store.
type Server struct {
	store    *state.Store
	log      zerolog.Logger
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}
}

// New creates a feed server reading from store.
func New(store *state.Store, log zerolog.Logger) *Server {
	return &Server{
		store: store,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Handler returns the HTTP routes of the feed.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Run serves on addr and broadcasts store changes until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go s.Broadcast(ctx)
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		s.closeAll()
	}()

	s.log.Info().Str("address", addr).Msg("feed listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Broadcast pushes the snapshot to every connected client whenever the
// store changes. It returns when ctx is cancelled.
func (s *Server) Broadcast(ctx context.Context) {
	changes := s.store.Changes()
	for {
		select {
		case <-ctx.Done():
			return
		case <-changes:
			s.publish()
		}
	}
}

// Clients returns the number of connected WebSocket clients.
func (s *Server) Clients() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.clients)
}

func (s *Server) publish() {
	data, err := json.Marshal(NewPayload(s.store.Snapshot()))
	if err != nil {
		s.log.Error().Err(err).Msg("encode snapshot")
		return
	}

	s.mu.RLock()
	targets := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		targets = append(targets, c)
	}
	s.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			s.log.Debug().Err(err).Msg("dropping websocket client")
			s.remove(c)
		}
	}
}

func (s *Server) handleSnapshot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(NewPayload(s.store.Snapshot())); err != nil {
		s.log.Error().Err(err).Msg("write snapshot")
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	c := &client{conn: conn}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket client connected")

	if data, err := json.Marshal(NewPayload(s.store.Snapshot())); err == nil {
		if err := c.write(data); err != nil {
			s.remove(c)
			return
		}
	}

	// Reads only detect the disconnect; clients never send anything useful.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	s.remove(c)
	s.log.Debug().Str("remote", r.RemoteAddr).Msg("websocket client disconnected")
}

func (s *Server) remove(c *client) {
	s.mu.Lock()
	_, ok := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if ok {
		_ = c.conn.Close()
	}
}

func (s *Server) closeAll() {
	s.mu.Lock()
	clients := s.clients
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()
	for c := range clients {
		_ = c.conn.Close()
	}
}
