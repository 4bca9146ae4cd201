package chat

import "errors"

// ErrAlreadyJoined is returned when a connection that already holds a
// member in a room attempts to join it again.
var ErrAlreadyJoined = errors.New("connection already joined this room")
