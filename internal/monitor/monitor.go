// ABOUTME: Websocket fan-out of session progress snapshots
// ABOUTME: Maintains a client registry and drops slow consumers
package monitor

import (
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Snapshot is one progress update broadcast to every connected client.
type Snapshot struct {
	SessionID string  `json:"session"`
	State     string  `json:"state"`
	Progress  float64 `json:"progress"`
	FPS       float64 `json:"fps"`
	Frames    int64   `json:"frames"`
	Samples   int64   `json:"samples"`
	Timestamp int64   `json:"ts"`
}

type client struct {
	id       string
	conn     *websocket.Conn
	sendChan chan Snapshot
}

// Server accepts websocket connections on /progress and pushes every
// published snapshot to all of them. A client whose send buffer is full
// misses that snapshot; progress is monotone so the next one supersedes it.
type Server struct {
	addr     string
	mux      *http.ServeMux
	upgrader websocket.Upgrader
	listener net.Listener
	httpSrv  *http.Server

	clientsMu sync.RWMutex
	clients   map[string]*client

	wg sync.WaitGroup
}

// New creates a monitor server listening on addr.
func New(addr string) *Server {
	mux := http.NewServeMux()
	s := &Server{
		addr: addr,
		mux:  mux,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Monitoring is meant for trusted local networks.
				return true
			},
		},
		clients: make(map[string]*client),
	}
	mux.HandleFunc("/progress", s.handleWebSocket)
	return s
}

// Start begins accepting connections. Non-blocking.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("monitor listen: %w", err)
	}
	s.listener = ln
	s.httpSrv = &http.Server{Handler: s.mux}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.httpSrv.Serve(ln); err != nil && err != http.ErrServerClosed {
			log.Printf("Monitor server error: %v", err)
		}
	}()

	log.Printf("Monitor listening on %s", ln.Addr())
	return nil
}

// Addr returns the bound address, useful when addr used port 0.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Publish broadcasts a snapshot to all connected clients.
func (s *Server) Publish(snap Snapshot) {
	snap.Timestamp = time.Now().UnixMilli()

	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	for _, c := range s.clients {
		select {
		case c.sendChan <- snap:
		default:
			// Slow consumer: skip this snapshot rather than block.
		}
	}
}

// Stop closes the listener and disconnects all clients.
func (s *Server) Stop() {
	if s.httpSrv != nil {
		s.httpSrv.Close()
	}

	s.clientsMu.Lock()
	for id, c := range s.clients {
		close(c.sendChan)
		delete(s.clients, id)
	}
	s.clientsMu.Unlock()

	s.wg.Wait()
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Monitor upgrade failed: %v", err)
		return
	}

	c := &client{
		id:       uuid.New().String(),
		conn:     conn,
		sendChan: make(chan Snapshot, 16),
	}

	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()
	log.Printf("Monitor client connected: %s", c.id)

	s.wg.Add(1)
	go s.clientWriter(c)

	// Reader loop only detects disconnect; clients never send payloads.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.dropClient(c)
				return
			}
		}
	}()
}

func (s *Server) clientWriter(c *client) {
	defer s.wg.Done()
	for snap := range c.sendChan {
		if err := c.conn.WriteJSON(snap); err != nil {
			s.dropClient(c)
			return
		}
	}
	c.conn.Close()
}

func (s *Server) dropClient(c *client) {
	s.clientsMu.Lock()
	if _, ok := s.clients[c.id]; ok {
		delete(s.clients, c.id)
		close(c.sendChan)
		log.Printf("Monitor client disconnected: %s", c.id)
	}
	s.clientsMu.Unlock()
	c.conn.Close()
}
