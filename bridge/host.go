package bridge

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrNoDocument is returned by Post when no document is connected.
var ErrNoDocument = errors.New("no document connected")

// Host serves the message channel endpoint to the embedded document and
// pumps inbound messages into the dispatcher. At most one document owns
// the channel at a time; a newly connected page supersedes the old one,
// matching a WebView navigating to fresh content.
type Host struct {
	Upgrader websocket.Upgrader
	Log      Logger

	dispatcher *Dispatcher

	activeMu sync.RWMutex
	active   *docConn

	Port int
	Addr string
	Path string

	sendBuffer   int
	pingInterval time.Duration
	pingTimeout  time.Duration

	readTimeout  time.Duration
	writeTimeout time.Duration
	idleTimeout  time.Duration
}

// NewHost creates a Host wired to the given dispatcher with the provided options.
func NewHost(d *Dispatcher, opts ...Option) *Host {
	h := &Host{
		Upgrader:     websocket.Upgrader{EnableCompression: true},
		Log:          defaultLogger(),
		dispatcher:   d,
		Addr:         "127.0.0.1",
		Port:         0,
		Path:         "/bridge",
		sendBuffer:   128,
		readTimeout:  15 * time.Second,
		writeTimeout: 15 * time.Second,
		idleTimeout:  60 * time.Second,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Serve starts the HTTP server and begins accepting document connections.
// It blocks until the server fails or is shut down.
func (h *Host) Serve() error {
	mux := http.NewServeMux()
	mux.HandleFunc(h.Path, h.wsHandler)

	addr := h.Addr + ":" + strconv.Itoa(h.Port)
	httpSrv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  h.readTimeout,
		WriteTimeout: h.writeTimeout,
		IdleTimeout:  h.idleTimeout,
	}

	h.Log.Info("bridge channel listen", "addr", addr, "path", h.Path)
	return httpSrv.ListenAndServe()
}

// Handler exposes the channel endpoint for hosts that run their own HTTP
// server (for instance alongside a local content server).
func (h *Host) Handler() http.HandlerFunc { return h.wsHandler }

// Post forwards a message to the currently connected document. Posting
// with no document connected returns ErrNoDocument; engines treat the
// channel as fire-and-forget and only log such failures.
func (h *Host) Post(typeName string, payload any) error {
	h.activeMu.RLock()
	conn := h.active
	h.activeMu.RUnlock()
	if conn == nil {
		return ErrNoDocument
	}
	return conn.Post(typeName, payload)
}

// Connected reports whether a document currently owns the channel.
func (h *Host) Connected() bool {
	h.activeMu.RLock()
	defer h.activeMu.RUnlock()
	return h.active != nil
}

// wsHandler upgrades the request, installs the connection as the active
// document, and runs the inbound read loop.
func (h *Host) wsHandler(w http.ResponseWriter, r *http.Request) {
	h.Log.Debug("received request", "method", r.Method, "path", r.URL.Path)

	c, err := h.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Error("upgrade failed", "error", err)
		return
	}

	id := uuid.NewString()
	conn := newDocConn(id, c, h.sendBuffer, h.pingInterval, h.pingTimeout)

	if h.pingInterval > 0 {
		pongWait := h.pingTimeout
		if pongWait <= 0 {
			pongWait = 5 * time.Second
		}
		pongReadDeadline := h.pingInterval + pongWait
		c.SetPongHandler(func(string) error {
			return c.SetReadDeadline(time.Now().Add(pongReadDeadline))
		})
		_ = c.SetReadDeadline(time.Now().Add(pongReadDeadline))
	}

	h.installActive(conn)
	go conn.writePump()

	defer func() {
		conn.Close()
		h.removeActive(conn)
	}()

	ctx := WithDocumentID(r.Context(), id)
	for {
		mt, data, err := c.ReadMessage()
		if err != nil {
			if !isNormalDisconnect(err) {
				h.Log.Error("channel read error", "id", id, "err", err)
			}
			return
		}
		if mt != websocket.TextMessage {
			h.Log.Debug("ignoring non-text channel frame", "id", id)
			continue
		}
		h.dispatcher.Dispatch(ctx, data)
	}
}

// installActive makes conn the channel owner, closing any superseded page.
func (h *Host) installActive(conn *docConn) {
	h.activeMu.Lock()
	old := h.active
	h.active = conn
	h.activeMu.Unlock()

	if old != nil {
		h.Log.Info("document superseded", "old", old.ID, "new", conn.ID)
		old.Close()
	}
	h.Log.Info("document connected", "id", conn.ID)
}

// removeActive clears the active slot if conn still owns it.
func (h *Host) removeActive(conn *docConn) {
	h.activeMu.Lock()
	if h.active == conn {
		h.active = nil
	}
	h.activeMu.Unlock()
	h.Log.Info("document disconnected", "id", conn.ID)
}

// isNormalDisconnect checks if an error represents a normal WebSocket
// disconnection that doesn't require error logging.
func isNormalDisconnect(err error) bool {
	if err == nil {
		return false
	}

	if websocket.IsCloseError(err,
		websocket.CloseNormalClosure,
		websocket.CloseGoingAway,
		websocket.CloseNoStatusReceived,
		websocket.CloseAbnormalClosure,
	) {
		return true
	}

	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) {
		return true
	}

	var ne *net.OpError
	if errors.As(err, &ne) {
		return true
	}

	if errors.Is(err, syscall.EPIPE) {
		return true
	}

	msg := err.Error()
	if strings.Contains(msg, "use of closed network connection") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "unexpected EOF") {
		return true
	}

	return false
}

// ctx helper kept close to the read loop so handlers can tell which
// document produced a message after a supersede race.
type ctxKey string

const ctxKeyDocumentID ctxKey = "documentID"

// WithDocumentID returns a child context that carries the document id.
func WithDocumentID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKeyDocumentID, id)
}

// DocumentIDFrom extracts the document id from context.
func DocumentIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(ctxKeyDocumentID).(string)
	return v, ok
}
