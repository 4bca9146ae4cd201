package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/streamkit/core/codec"
	"github.com/dmitrymomot/streamkit/core/connection"
	"github.com/dmitrymomot/streamkit/pkg/logger"
)

// MessageHandler processes one inbound client frame. Returning an error
// drops the connection.
type MessageHandler func(ctx context.Context, conn *connection.Connection, sock *Conn, data []byte) error

// Server upgrades HTTP requests to websockets and binds each socket to a
// registered connection: the id comes from the request (the transport
// stand-in for call metadata), the socket drop fires the connection's close
// signal.
type Server struct {
	registry *connection.Registry
	handler  MessageHandler

	upgrader  websocket.Upgrader
	codec     codec.Codec
	log       *slog.Logger
	onConnect func(ctx context.Context, conn *connection.Connection, sock *Conn) error
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithCodec sets the payload codec for outbound events. Defaults to JSON.
// The envelope itself is JSON-framed, so the codec's output must be valid
// JSON.
func WithCodec(c codec.Codec) ServerOption {
	return func(s *Server) {
		if c != nil {
			s.codec = c
		}
	}
}

// WithLogger configures structured logging. Defaults to a discard logger.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithOriginCheck overrides the upgrader's origin policy.
func WithOriginCheck(fn func(r *http.Request) bool) ServerOption {
	return func(s *Server) {
		s.upgrader.CheckOrigin = fn
	}
}

// WithOnConnect registers a hook invoked after the connection is
// registered, before the read loop starts. Returning an error drops the
// connection.
func WithOnConnect(fn func(ctx context.Context, conn *connection.Connection, sock *Conn) error) ServerOption {
	return func(s *Server) {
		s.onConnect = fn
	}
}

// NewServer creates a websocket front for the given connection registry.
// Every inbound frame is passed to handler.
func NewServer(registry *connection.Registry, handler MessageHandler, opts ...ServerOption) *Server {
	s := &Server{
		registry: registry,
		handler:  handler,
		codec:    codec.JSON{},
		log:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	connID, ok := connection.FromPairs(connection.MetadataKey, r.URL.Query().Get(connection.MetadataKey))
	if !ok {
		connID, ok = connection.FromPairs(connection.MetadataKey, r.Header.Get(connection.MetadataKey))
	}
	if !ok {
		s.log.Debug("websocket request without connection id rejected")
		http.Error(w, ErrMissingConnectionID.Error(), http.StatusBadRequest)
		return
	}

	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", logger.Error(err))
		return
	}

	conn := s.registry.Register(connID)
	wsConn := newConn(connID, sock, s.codec, s.log)
	defer func() {
		wsConn.close()
		s.registry.Unregister(connID)
	}()

	s.log.Info("connection opened", logger.ConnectionID(connID))

	if s.onConnect != nil {
		if err := s.onConnect(r.Context(), conn, wsConn); err != nil {
			s.log.Warn("connect hook rejected connection",
				logger.ConnectionID(connID), logger.Error(err))
			return
		}
	}

	for {
		_, data, err := sock.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read failed",
					logger.ConnectionID(connID), logger.Error(err))
			}
			break
		}
		if err := s.handler(conn.Context(), conn, wsConn, data); err != nil {
			s.log.Warn("message handler failed, dropping connection",
				logger.ConnectionID(connID), logger.Error(err))
			break
		}
	}

	s.log.Info("connection closed", logger.ConnectionID(connID))
}
