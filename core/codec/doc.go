// Package codec defines the serialization boundary between streamkit's core
// and the wire.
//
// The core never inspects payload bytes; it hands values to a Codec on the
// way out and raw bytes to a decoder on the way in. Two implementations are
// provided: Proto for protobuf wire traffic and JSON for demos and tooling.
//
//	enc := codec.Proto{}
//	data, err := enc.Marshal(msg)
//
// DecoderFor and ProtoDecoderFor adapt a codec to the typed decoder shape
// that core/call consumes:
//
//	dec := codec.ProtoDecoderFor[*chatpb.RoomInfo]()
//	res := call.NewCallResult(rawCall, dec)
package codec
