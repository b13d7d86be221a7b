package bridge

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quillcart/bridge/messages"
)

// ErrSendBufferFull is returned when a document's send buffer is at capacity.
var ErrSendBufferFull = errors.New("document send buffer full")

// Poster is the native→document half of the channel. Posting is
// fire-and-forget: there is no acknowledgement protocol, every response is
// an independently delivered fresh message.
type Poster interface {
	Post(typeName string, payload any) error
}

// PosterFunc adapts a function to the Poster interface, useful when the
// eventual Poster is constructed after the components that send through it.
type PosterFunc func(typeName string, payload any) error

// Post calls the wrapped function.
func (f PosterFunc) Post(typeName string, payload any) error {
	return f(typeName, payload)
}

// docConn is one connected document's end of the message channel. Outbound
// messages are buffered and written by a single pump goroutine.
type docConn struct {
	ID   string
	Conn *websocket.Conn

	sendCh    chan []byte
	closeOnce sync.Once

	pingInterval time.Duration
	pingTimeout  time.Duration
}

func newDocConn(id string, conn *websocket.Conn, buf int, pingInterval, pingTimeout time.Duration) *docConn {
	return &docConn{
		ID:           id,
		Conn:         conn,
		sendCh:       make(chan []byte, buf),
		pingInterval: pingInterval,
		pingTimeout:  pingTimeout,
	}
}

// Post serializes a payload into an envelope and queues it for the
// document. Returns ErrSendBufferFull if the send buffer is at capacity.
func (c *docConn) Post(typeName string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	env := messages.Envelope{Type: typeName, Payload: data}
	b, err := json.Marshal(env)
	if err != nil {
		return err
	}
	select {
	case c.sendCh <- b:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// writePump drains the send channel into the WebSocket connection and
// sends periodic pings when configured.
func (c *docConn) writePump() {
	if c.pingInterval > 0 {
		pingTimeout := c.pingTimeout
		if pingTimeout == 0 {
			pingTimeout = 5 * time.Second
		}

		t := time.NewTicker(c.pingInterval)
		defer t.Stop()

		for {
			select {
			case msg, ok := <-c.sendCh:
				if !ok {
					_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
					return
				}
				if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			case <-t.C:
				deadline := time.Now().Add(pingTimeout)
				_ = c.Conn.WriteControl(websocket.PingMessage, nil, deadline)
			}
		}
	}

	for {
		msg, ok := <-c.sendCh
		if !ok {
			_ = c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		}
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Close safely closes the send channel and the underlying connection.
func (c *docConn) Close() {
	c.closeOnce.Do(func() {
		close(c.sendCh)
		_ = c.Conn.Close()
	})
}
