package eventsink

import (
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// queueDepth bounds how many pending events a single client connection can
// have queued before the oldest is dropped in favor of the newest.
const queueDepth = 64

// WebSocketSink fans out events to every connected dashboard client over a
// websocket server bound to addr (127.0.0.1:3001 per the external
// interface contract).
type WebSocketSink struct {
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}
}

type client struct {
	conn  *websocket.Conn
	queue chan Event
}

// NewWebSocketSink builds a sink; call Start to bind and begin serving.
func NewWebSocketSink() *WebSocketSink {
	return &WebSocketSink{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[*client]struct{}),
	}
}

// Start binds addr and returns once bound, so a caller sees a bind failure
// (e.g. the port already in use) synchronously. Serving happens in a
// background goroutine for the lifetime of the process.
func (s *WebSocketSink) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleConn)
	go func() {
		if err := http.Serve(ln, mux); err != nil {
			slog.Error("eventsink: serve", "error", err)
		}
	}()
	return nil
}

func (s *WebSocketSink) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("eventsink: upgrade", "error", err)
		return
	}
	c := &client{conn: conn, queue: make(chan Event, queueDepth)}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	go s.writeLoop(c)
}

func (s *WebSocketSink) writeLoop(c *client) {
	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		c.conn.Close()
	}()
	for ev := range c.queue {
		data, err := json.Marshal(ev)
		if err != nil {
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
}

// Emit fans an event out to every connected client without blocking. For
// any client whose queue is currently full, the oldest queued event is
// dropped to make room for this one.
func (s *WebSocketSink) Emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.queue <- ev:
		default:
			select {
			case old := <-c.queue:
				slog.Warn("eventsink: client queue full, dropping oldest event", "type", old.Type)
			default:
			}
			select {
			case c.queue <- ev:
			default:
			}
		}
	}
}
