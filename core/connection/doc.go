// Package connection tracks live client sessions for a streaming RPC server.
//
// A Connection is the server-side identity of one long-lived client: an
// opaque id, a close signal that fires exactly once on disconnect, cleanup
// callbacks hooked to that signal, and a typed per-connection item bag for
// session state. A Registry is the process table of those connections,
// explicitly constructed and passed to the components that need it.
//
// # Basic Usage
//
// The transport registers a connection when the client announces itself and
// closes it on disconnect:
//
//	registry := connection.NewRegistry(
//		connection.WithLogger(log),
//	)
//
//	conn := registry.Register(connID)
//	defer registry.Unregister(connID)
//
// Per-call code resolves the connection from call metadata:
//
//	id, ok := connection.FromMetadata(md)
//	if !ok {
//		// missing or unreadable id; reject or treat as anonymous
//	}
//	conn, err := registry.Get(id)
//
// # Close Signal
//
// Close fires exactly once. Every callback registered via OnClose runs on
// its own goroutine so a blocking or panicking callback cannot starve the
// rest; Close waits for all of them up to a configurable timeout. Observers
// that just need the signal use Done or Context:
//
//	select {
//	case <-conn.Done():
//		// disconnected
//	}
//
// # Typed Item Bag
//
// Session state is stashed under typed keys rather than raw strings, so two
// features can never collide on a key name:
//
//	var roomMemberKey = connection.NewKey[string]("chat.room.member_id")
//
//	roomMemberKey.Set(conn, memberID)
//	id, ok := roomMemberKey.Get(conn)
//
// GetOrSet provides atomic lazy initialization, used by the streaming layer
// to memoize one subscription repository per connection.
package connection
