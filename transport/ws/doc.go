// Package ws is a websocket transport front for streamkit's core.
//
// It implements the two interfaces the core consumes from a transport: a
// per-connection close signal (via the connection registry) and a
// stream-handle type for server-to-client events. The connection id travels
// as a query parameter or header named connection_id, the HTTP equivalent
// of the call-metadata key the core reads.
//
// Outbound events are framed as an Envelope carrying the streaming method
// identity and the codec-encoded payload, and serialized through a single
// write pump per socket. Inbound frames are handed to the application's
// MessageHandler, which plays the dispatcher role: decode the frame, pick
// the target connection-scoped operation, run it.
//
//	srv := ws.NewServer(registry, dispatch,
//		ws.WithLogger(log),
//		ws.WithCodec(codec.JSON{}),
//	)
//	http.ListenAndServe(addr, srv)
package ws
