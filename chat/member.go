package chat

import "github.com/dmitrymomot/streamkit/core/streaming"

// Streaming method identities for room events. A client subscribes to each
// event it cares about; the service fans values out through them.
const (
	EventJoin    streaming.Method = "chat.ChatRoom/OnJoin"
	EventLeave   streaming.Method = "chat.ChatRoom/OnLeave"
	EventMessage streaming.Method = "chat.ChatRoom/OnMessage"
)

// RoomMember is one participant in a room. Value type; identity is the ID.
type RoomMember struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Message is a chat message broadcast to room members.
type Message struct {
	Sender RoomMember `json:"sender"`
	Text   string     `json:"text"`
}

// RoomInfo is the serializable description of a room returned to clients.
type RoomInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
