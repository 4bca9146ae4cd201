// Package call provides the awaitable unary-call result used by generated
// proxies and dispatcher code.
//
// A Result[T] is either a value that is already known, or a pending remote
// call bound to a decoder. Both look identical to the caller:
//
//	func (s *service) RoomCount(ctx context.Context) *call.Result[int] {
//		return call.NewResult(s.rooms.Len()) // resolved locally, no round trip
//	}
//
//	res := client.RoomCount(ctx)
//	defer res.Close()
//	n, err := res.Await(ctx)
//
// For remote calls the transport hands over a RawCall and the codec supplies
// the decoder:
//
//	res := call.NewCallResult(rawCall, codec.DecoderFor[RoomInfo](codec.JSON{}))
//	info, err := res.Await(ctx)
//
// Response header and trailer metadata are only meaningful for call-backed
// results; value-backed results fail fast with ErrNoCall. Close cancels an
// unfinished call and is always safe to defer.
package call
