package transport

import (
	"net/http"
	"sync"
	"time"

	"micviz/internal/analysis"
	applog "micviz/internal/log"

	"github.com/gorilla/websocket"
)

// WebSocketSink implements the Sink interface for WebSocket clients.
// It broadcasts results as JSON from its own goroutine so Publish never
// waits on the network.
//
// Rate Limiting:
//   - Enforces a minimum interval between broadcasts
//   - Drops results that arrive sooner, and results that find the
//     broadcast queue full
type WebSocketSink struct {
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	clientsMu sync.Mutex
	broadcast chan analysis.Result
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server

	minSendInterval time.Duration
	lastSend        time.Time
}

// NewWebSocketSink creates a sink and starts its broadcast goroutine. Serve
// it with ListenAndServe or mount Handler on an existing server.
func NewWebSocketSink(minSendInterval time.Duration) *WebSocketSink {
	s := &WebSocketSink{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local visualizer, allow all origins
			},
		},
		clients:         make(map[*websocket.Conn]bool),
		broadcast:       make(chan analysis.Result, 256),
		done:            make(chan struct{}),
		minSendInterval: minSendInterval,
	}

	go s.handleBroadcasts()
	return s
}

// Handler returns the HTTP handler serving the /ws endpoint.
func (s *WebSocketSink) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	return mux
}

// ListenAndServe starts an HTTP server for the sink on addr in its own goroutine.
func (s *WebSocketSink) ListenAndServe(addr string) {
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}

	go func() {
		applog.Infof("WebSocketSink: Starting WebSocket server on %s", addr)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			applog.Errorf("WebSocketSink: Server error: %v", err)
		}
	}()
}

// handleWebSocket upgrades HTTP connections to WebSocket
func (s *WebSocketSink) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketSink: Upgrade error: %v", err)
		return
	}

	s.clientsMu.Lock()
	s.clients[conn] = true
	total := len(s.clients)
	s.clientsMu.Unlock()
	applog.Infof("WebSocketSink: Client connected, total: %d", total)

	// Clients never send anything; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				s.removeClient(conn)
				return
			}
		}
	}()
}

func (s *WebSocketSink) removeClient(conn *websocket.Conn) {
	s.clientsMu.Lock()
	if s.clients[conn] {
		delete(s.clients, conn)
		conn.Close()
		applog.Infof("WebSocketSink: Client disconnected, total: %d", len(s.clients))
	}
	s.clientsMu.Unlock()
}

// handleBroadcasts sends queued results to all connected clients.
func (s *WebSocketSink) handleBroadcasts() {
	for {
		select {
		case r := <-s.broadcast:
			s.clientsMu.Lock()
			for client := range s.clients {
				if err := client.WriteJSON(r); err != nil {
					applog.Warnf("WebSocketSink: Error sending to client: %v", err)
					client.Close()
					delete(s.clients, client)
				}
			}
			s.clientsMu.Unlock()
		case <-s.done:
			return
		}
	}
}

// ClientCount returns the number of connected clients.
func (s *WebSocketSink) ClientCount() int {
	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	return len(s.clients)
}

// Publish queues r for broadcast unless it arrives within the minimum send
// interval or the broadcast queue is full.
func (s *WebSocketSink) Publish(r analysis.Result) error {
	now := time.Now()
	if now.Sub(s.lastSend) < s.minSendInterval {
		return nil
	}

	select {
	case s.broadcast <- r:
		s.lastSend = now
	default:
		// Channel full, drop result
	}
	return nil
}

// Close shuts down the server and disconnects all clients.
func (s *WebSocketSink) Close() error {
	var err error
	s.closeOnce.Do(func() {
		applog.Infof("WebSocketSink: Closing")
		close(s.done)

		s.clientsMu.Lock()
		for client := range s.clients {
			client.Close()
		}
		s.clients = make(map[*websocket.Conn]bool)
		s.clientsMu.Unlock()

		if s.server != nil {
			err = s.server.Close()
		}
	})
	return err
}

// Ensure WebSocketSink satisfies the interface
var _ Sink = (*WebSocketSink)(nil)
