package sink

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hazyhaar/vlypick/picker/message"
)

// ErrNoHost is returned by WebSocket.Post when no host is connected.
var ErrNoHost = errors.New("sink: no host connected")

// InboundFunc receives raw inbound payloads from the host.
type InboundFunc func(ctx context.Context, data []byte)

// WebSocket is a single parent/child channel over a websocket. One host is
// connected at a time: a new connection replaces the previous one. Inbound
// frames are handed to the inbound func; selections are written back.
type WebSocket struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	onInbound InboundFunc

	writeMu sync.Mutex
}

// NewWebSocket creates a WebSocket channel. onInbound may be set later with
// SetInbound.
func NewWebSocket(onInbound InboundFunc, logger *slog.Logger) *WebSocket {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocket{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		logger:    logger,
		onInbound: onInbound,
	}
}

// SetInbound replaces the inbound handler.
func (ws *WebSocket) SetInbound(fn InboundFunc) {
	ws.mu.Lock()
	ws.onInbound = fn
	ws.mu.Unlock()
}

// Connected reports whether a host is attached.
func (ws *WebSocket) Connected() bool {
	ws.mu.Lock()
	defer ws.mu.Unlock()
	return ws.conn != nil
}

// ServeHTTP upgrades the request and reads inbound frames until the host
// disconnects.
func (ws *WebSocket) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := ws.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ws.logger.Warn("websocket: upgrade failed", "error", err)
		return
	}

	ws.mu.Lock()
	prev := ws.conn
	ws.conn = conn
	ws.mu.Unlock()
	if prev != nil {
		ws.logger.Info("websocket: host replaced", "remote_addr", r.RemoteAddr)
		prev.Close()
	} else {
		ws.logger.Info("websocket: host connected", "remote_addr", r.RemoteAddr)
	}

	// The request context ends with the handler; inbound work must not.
	ctx := context.Background()
	defer ws.drop(conn)
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				ws.logger.Warn("websocket: read", "error", err)
			}
			return
		}
		ws.mu.Lock()
		fn := ws.onInbound
		ws.mu.Unlock()
		if fn != nil {
			fn(ctx, data)
		}
	}
}

func (ws *WebSocket) drop(conn *websocket.Conn) {
	ws.mu.Lock()
	if ws.conn == conn {
		ws.conn = nil
	}
	ws.mu.Unlock()
	conn.Close()
}

func (ws *WebSocket) Post(_ context.Context, sel message.Selection) error {
	ws.mu.Lock()
	conn := ws.conn
	ws.mu.Unlock()
	if conn == nil {
		return ErrNoHost
	}

	sel.Type = message.TypeElementSelected
	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(sel)
}

func (ws *WebSocket) Close() error {
	ws.mu.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()
	if conn != nil {
		return conn.Close()
	}
	return nil
}
