// Package streaming multiplexes long-lived server-to-client streams over one
// connection.
//
// A Repository is scoped to exactly one connection and tracks its
// subscriptions by method identity. It provides three guarantees:
//
//   - writes to one subscription are totally ordered (one writer at a time,
//     concurrent writers queue)
//   - completion is exactly-once, whether it comes from an explicit Complete
//     call or from connection teardown
//   - teardown never deadlocks a writer: a writer blocked on a subscription
//     lock observes disposal and returns
//
// # Server Side Flow
//
// A streaming handler registers its method and parks on the subscription:
//
//	sub, err := repo.Register(chat.EventMessage, stream)
//	if err != nil {
//		return err
//	}
//	return sub.Wait(ctx) // returns when completed or disconnected
//
// Other calls on the same connection push values into the stream:
//
//	if err := repo.Write(ctx, chat.EventMessage, msg); err != nil {
//		return err
//	}
//
// Writing to a method that was never registered is a no-op by default, so
// broadcast paths do not care which subscribers are attached; pass
// FailIfMissing to get ErrNotFound instead.
//
// # Per-Connection Memoization
//
// Services resolve one repository per connection lazily with ForConnection,
// keyed by a typed connection bag key. The factory is invoked at most once
// per connection.
package streaming
