// Package broadcast provides a generic subscriber registry with
// fan-out-except semantics, the building block for pub/sub features like
// chat rooms.
//
// A Group maps a subscriber key to a subscriber value and its subscription
// handles. The group routes writes; it does not own the subscriptions —
// their lifetime belongs to the streaming layer.
//
//	group := broadcast.NewGroup[string, RoomMember, *streaming.Repository]()
//	group.Add(member.ID, member, repo)
//
//	err := group.BroadcastExcept(ctx, sender.ID,
//		func(ctx context.Context, e broadcast.Entry[string, RoomMember, *streaming.Repository]) error {
//			return e.Subscriptions.Write(ctx, EventMessage, msg)
//		})
//
// Broadcast targets run concurrently and independently: a slow or failed
// subscriber never delays the rest, and per-target errors come back joined.
// Mutation during a broadcast is safe; the broadcast works on a snapshot
// taken at call start.
package broadcast
