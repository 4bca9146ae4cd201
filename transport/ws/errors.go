package ws

import "errors"

var (
	// ErrConnClosed is returned when sending on a websocket connection
	// whose write pump has shut down.
	ErrConnClosed = errors.New("websocket connection closed")

	// ErrMissingConnectionID is returned when an incoming websocket
	// request carries no readable connection id.
	ErrMissingConnectionID = errors.New("missing connection id")
)
