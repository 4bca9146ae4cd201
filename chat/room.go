package chat

import (
	"context"

	"github.com/dmitrymomot/streamkit/core/broadcast"
	"github.com/dmitrymomot/streamkit/core/streaming"
)

// memberEntry is the room's broadcast-group entry shape.
type memberEntry = broadcast.Entry[string, RoomMember, *streaming.Repository]

// Room is a named broadcast group of members. It routes events to member
// streams but does not own them: each member's subscriptions live in that
// member's per-connection streaming repository.
//
// Rooms are not serializable; clients see RoomInfo.
type Room struct {
	id    string
	name  string
	group *broadcast.Group[string, RoomMember, *streaming.Repository]
}

// NewRoom creates an empty room.
func NewRoom(id, name string) *Room {
	return &Room{
		id:    id,
		name:  name,
		group: broadcast.NewGroup[string, RoomMember, *streaming.Repository](),
	}
}

// ID returns the generated room identifier.
func (r *Room) ID() string { return r.id }

// Name returns the display name the room was created under.
func (r *Room) Name() string { return r.name }

// MemberCount returns the live member count.
func (r *Room) MemberCount() int { return r.group.Len() }

// AddMember inserts a member routed through the given streaming repository.
func (r *Room) AddMember(m RoomMember, repo *streaming.Repository) {
	r.group.Add(m.ID, m, repo)
}

// RemoveMember removes a member. No-op if absent.
func (r *Room) RemoveMember(memberID string) {
	r.group.Remove(memberID)
}

// Member returns the member with the given id.
func (r *Room) Member(memberID string) (RoomMember, bool) {
	m, _, ok := r.group.Get(memberID)
	return m, ok
}

// Members returns a snapshot of current members.
func (r *Room) Members() []RoomMember {
	entries := r.group.All()
	out := make([]RoomMember, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Value)
	}
	return out
}

// BroadcastJoin announces a new member to everyone except the member
// itself.
func (r *Room) BroadcastJoin(ctx context.Context, joined RoomMember) error {
	return r.broadcastExcept(ctx, joined.ID, EventJoin, joined)
}

// BroadcastLeave announces a departure to everyone except the departed
// member.
func (r *Room) BroadcastLeave(ctx context.Context, left RoomMember) error {
	return r.broadcastExcept(ctx, left.ID, EventLeave, left)
}

// BroadcastMessage delivers a message to everyone except the sender.
func (r *Room) BroadcastMessage(ctx context.Context, sender RoomMember, text string) error {
	return r.broadcastExcept(ctx, sender.ID, EventMessage, Message{Sender: sender, Text: text})
}

func (r *Room) broadcastExcept(ctx context.Context, exceptID string, method streaming.Method, payload any) error {
	return r.group.BroadcastExcept(ctx, exceptID, func(ctx context.Context, e memberEntry) error {
		return e.Subscriptions.Write(ctx, method, payload)
	})
}

// Info returns the serializable room description.
func (r *Room) Info() RoomInfo {
	return RoomInfo{ID: r.id, Name: r.name}
}
