// Package observer serves the live simulation state over HTTP: a JSON
// snapshot endpoint for polling and a websocket feed pushing one snapshot
// per step.
package observer

import (
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/gridhaul/sim"
)

// Server publishes world snapshots to HTTP and websocket clients. The
// simulation loop calls Publish after every step; clients only ever see
// completed steps.
type Server struct {
	log *slog.Logger

	latest atomic.Pointer[sim.Snapshot]

	mu   sync.Mutex
	subs map[chan *sim.Snapshot]struct{}

	upgrader websocket.Upgrader
}

// NewServer creates a server with no published state yet.
func NewServer(log *slog.Logger) *Server {
	return &Server{
		log:  log,
		subs: make(map[chan *sim.Snapshot]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// Publish makes a snapshot the current state and wakes websocket feeds. A
// slow client skips steps rather than stalling the simulation.
func (s *Server) Publish(snap *sim.Snapshot) {
	s.latest.Store(snap)
	s.mu.Lock()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
		}
	}
	s.mu.Unlock()
}

// Handler returns the HTTP mux serving /state and /ws.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/state", s.stateHandler)
	mux.HandleFunc("/ws", s.wsHandler)
	return mux
}

// ListenAndServe serves on addr until the context is canceled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()
	s.log.Info("observer listening", "addr", addr)
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) stateHandler(rw http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		rw.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	snap := s.latest.Load()
	if snap == nil {
		http.Error(rw, "no state yet", http.StatusServiceUnavailable)
		return
	}
	rw.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(rw).Encode(snap)
}

func (s *Server) wsHandler(rw http.ResponseWriter, r *http.Request) {
	if !isLoopbackRemote(r.RemoteAddr) {
		http.Error(rw, "forbidden", http.StatusForbidden)
		return
	}
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ch := make(chan *sim.Snapshot, 1)
	s.mu.Lock()
	s.subs[ch] = struct{}{}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		delete(s.subs, ch)
		s.mu.Unlock()
	}()

	// Reader goroutine: only there to notice the client going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Send the current state immediately so clients do not wait a step.
	if snap := s.latest.Load(); snap != nil {
		if err := s.writeSnapshot(conn, snap); err != nil {
			return
		}
	}

	for {
		select {
		case <-done:
			return
		case snap := <-ch:
			if err := s.writeSnapshot(conn, snap); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn, snap *sim.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, data)
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}
