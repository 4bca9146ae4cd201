package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/streamkit/core/codec"
	"github.com/dmitrymomot/streamkit/core/streaming"
	"github.com/dmitrymomot/streamkit/pkg/logger"
)

const (
	writeWait      = 10 * time.Second
	defaultOutSize = 64
)

// Envelope frames one server-to-client event on the socket: which streaming
// method it belongs to and the codec-encoded payload.
type Envelope struct {
	Method  string          `json:"method"`
	Payload json.RawMessage `json:"payload"`
}

// Conn adapts one websocket to the stream-handle interface the streaming
// layer consumes. All writes funnel through a single pump goroutine, since
// gorilla connections permit only one concurrent writer.
type Conn struct {
	connID string
	sock   *websocket.Conn
	codec  codec.Codec
	log    *slog.Logger

	out       chan []byte
	closeOnce sync.Once
	closed    chan struct{}
}

func newConn(connID string, sock *websocket.Conn, c codec.Codec, log *slog.Logger) *Conn {
	conn := &Conn{
		connID: connID,
		sock:   sock,
		codec:  c,
		log:    log,
		out:    make(chan []byte, defaultOutSize),
		closed: make(chan struct{}),
	}
	go conn.writePump()
	return conn
}

// ConnectionID returns the logical connection id the socket authenticated
// with.
func (c *Conn) ConnectionID() string { return c.connID }

// Stream returns a stream handle bound to one method identity, suitable for
// streaming.Repository.Register.
func (c *Conn) Stream(method streaming.Method) streaming.Stream {
	return &methodStream{conn: c, method: method}
}

// send frames and enqueues one event. Blocks only when the outbound buffer
// is full; a closed connection fails with ErrConnClosed.
func (c *Conn) send(ctx context.Context, method streaming.Method, v any) error {
	payload, err := c.codec.Marshal(v)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(Envelope{Method: string(method), Payload: payload})
	if err != nil {
		return err
	}

	select {
	case c.out <- frame:
		return nil
	case <-c.closed:
		return ErrConnClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Conn) writePump() {
	for {
		select {
		case frame := <-c.out:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.sock.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.log.Debug("websocket write failed",
					logger.ConnectionID(c.connID), logger.Error(err))
				c.close()
				return
			}
		case <-c.closed:
			_ = c.sock.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.sock.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// close shuts the write pump down and closes the socket. Idempotent.
func (c *Conn) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.sock.Close()
	})
}

// methodStream is a Conn scoped to one streaming method.
type methodStream struct {
	conn   *Conn
	method streaming.Method
}

func (s *methodStream) Send(ctx context.Context, v any) error {
	return s.conn.send(ctx, s.method, v)
}

func (s *methodStream) ConnectionID() string {
	return s.conn.connID
}
