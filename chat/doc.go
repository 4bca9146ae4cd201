// Package chat implements room-based publish/subscribe on top of streamkit's
// connection, streaming, and broadcast layers.
//
// A Room is a broadcast group of members; a RoomRepository indexes rooms by
// generated id and by name with an atomic get-or-create; Service wires both
// to per-connection streaming repositories and exposes the operations a
// dispatcher maps to RPC methods.
//
// # Invariants
//
//   - one member per connection per room: a second join from the same
//     connection fails with ErrAlreadyJoined
//   - a room with zero members is removed from the repository
//   - a disconnecting member leaves all its rooms via the connection's
//     close signal; remaining members receive a Leave event
//   - event delivery excludes the acting member (the sender does not
//     receive its own message)
//
// # Usage
//
//	rooms := chat.NewRoomRepository()
//	svc := chat.NewService(rooms, chat.WithServiceLogger(log))
//
//	// streaming handler for one event stream:
//	sub, err := svc.RegisterStream(conn, chat.EventMessage, stream)
//	if err != nil {
//		return err
//	}
//	return sub.Wait(ctx)
//
//	// unary handlers:
//	info, err := svc.JoinOrCreateRoom(ctx, conn, "lobby", "Alice")
//	ok, err := svc.SendMessage(ctx, conn, info.ID, "hi")
package chat
