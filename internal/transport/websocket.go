package transport

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vmihailenco/msgpack/v5"

	"spectrogram/internal/log"
)

const (
	writeWait        = 2 * time.Second
	broadcastBacklog = 256
	clientBacklog    = 16
)

// Supported encodings.
const (
	EncodingMsgpack = "msgpack"
	EncodingJSON    = "json"
)

// client is one websocket connection with its own outgoing queue.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// WebSocketTransport broadcasts messages to every client connected on /ws.
//
// Thread Safety:
// - Send never blocks; a full broadcast queue drops the message
// - Each client has its own queue; a slow client loses messages, others do not
// - Uses a mutex for the client map
type WebSocketTransport struct {
	encoding    string
	messageType int
	upgrader    websocket.Upgrader

	clients   map[*client]struct{}
	clientsMu sync.Mutex

	broadcast chan Message
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	server   *http.Server
	listener net.Listener

	dropped atomic.Uint64
}

// NewWebSocketTransport creates a transport using the given encoding
// ("msgpack" or "json") and starts its broadcast loop. Call Start to listen,
// or mount Handler on an existing server.
func NewWebSocketTransport(encoding string) (*WebSocketTransport, error) {
	t := &WebSocketTransport{
		encoding: encoding,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Local visualizers connect from any origin
			},
		},
		clients:   make(map[*client]struct{}),
		broadcast: make(chan Message, broadcastBacklog),
		done:      make(chan struct{}),
	}
	switch encoding {
	case EncodingMsgpack:
		t.messageType = websocket.BinaryMessage
	case EncodingJSON:
		t.messageType = websocket.TextMessage
	default:
		return nil, fmt.Errorf("unknown websocket encoding: '%s'", encoding)
	}

	t.wg.Add(1)
	go t.handleBroadcasts()
	return t, nil
}

// Handler returns the HTTP handler serving the /ws endpoint.
func (t *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", t.handleWebSocket)
	return mux
}

// Start listens on addr and serves the handler in the background.
func (t *WebSocketTransport) Start(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	t.listener = ln
	t.server = &http.Server{Handler: t.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Infof("WebSocketTransport: serving %s frames on ws://%s/ws", t.encoding, ln.Addr())
		if err := t.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("WebSocketTransport: server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the listening address once started.
func (t *WebSocketTransport) Addr() net.Addr {
	if t.listener == nil {
		return nil
	}
	return t.listener.Addr()
}

// handleWebSocket upgrades HTTP connections and registers the client.
func (t *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := t.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnf("WebSocketTransport: upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBacklog)}
	t.clientsMu.Lock()
	select {
	case <-t.done:
		t.clientsMu.Unlock()
		conn.Close()
		return
	default:
	}
	t.clients[c] = struct{}{}
	// Registered under the lock so Close cannot reach wg.Wait first.
	t.wg.Add(2)
	count := len(t.clients)
	t.clientsMu.Unlock()
	log.Infof("WebSocketTransport: client %s connected, total: %d", conn.RemoteAddr(), count)

	go t.writeLoop(c)
	go t.readLoop(c)
}

// readLoop discards client input and unregisters the client on disconnect.
func (t *WebSocketTransport) readLoop(c *client) {
	defer t.wg.Done()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			t.remove(c)
			return
		}
	}
}

// writeLoop sends queued payloads until the client is removed.
func (t *WebSocketTransport) writeLoop(c *client) {
	defer t.wg.Done()
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(t.messageType, data); err != nil {
			log.Debugf("WebSocketTransport: write to %s failed: %v", c.conn.RemoteAddr(), err)
			t.remove(c)
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// remove unregisters c and closes its queue. It is safe to call more than once.
func (t *WebSocketTransport) remove(c *client) {
	t.clientsMu.Lock()
	defer t.clientsMu.Unlock()
	if _, ok := t.clients[c]; !ok {
		return
	}
	delete(t.clients, c)
	close(c.send)
	c.conn.Close()
	log.Infof("WebSocketTransport: client %s disconnected, total: %d", c.conn.RemoteAddr(), len(t.clients))
}

// handleBroadcasts encodes each message once and queues it for every client.
func (t *WebSocketTransport) handleBroadcasts() {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case msg := <-t.broadcast:
			data, err := t.encode(msg)
			if err != nil {
				log.Errorf("WebSocketTransport: encode error: %v", err)
				continue
			}
			t.clientsMu.Lock()
			for c := range t.clients {
				select {
				case c.send <- data:
				default:
					t.dropped.Add(1)
				}
			}
			t.clientsMu.Unlock()
		}
	}
}

func (t *WebSocketTransport) encode(msg Message) ([]byte, error) {
	if t.encoding == EncodingJSON {
		return json.Marshal(msg)
	}
	return msgpack.Marshal(msg)
}

// Send queues msg for broadcast. It never blocks; when the queue is full the
// message is dropped.
func (t *WebSocketTransport) Send(msg Message) error {
	select {
	case <-t.done:
		return errors.New("websocket transport is closed")
	default:
	}
	select {
	case t.broadcast <- msg:
	default:
		t.dropped.Add(1)
	}
	return nil
}

// ClientCount returns the number of connected clients.
func (t *WebSocketTransport) ClientCount() int {
	t.clientsMu.Lock()
	defer t.clientsMu.Unlock()
	return len(t.clients)
}

// Dropped returns how many messages or per-client deliveries were dropped.
func (t *WebSocketTransport) Dropped() uint64 { return t.dropped.Load() }

// Close disconnects every client and shuts the server down. It is idempotent.
func (t *WebSocketTransport) Close() error {
	var err error
	t.closeOnce.Do(func() {
		log.Infof("WebSocketTransport: closing (%d dropped)", t.dropped.Load())
		t.clientsMu.Lock()
		close(t.done)
		t.clientsMu.Unlock()

		if t.server != nil {
			err = t.server.Close()
		}

		t.clientsMu.Lock()
		for c := range t.clients {
			delete(t.clients, c)
			close(c.send)
			c.conn.Close()
		}
		t.clientsMu.Unlock()

		t.wg.Wait()
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
