package codec

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
)

// Codec is the opaque serialization boundary between the core and the wire.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// JSON encodes values with encoding/json. Suited to demos and debugging.
type JSON struct{}

func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

func (JSON) Name() string { return "json" }

// Proto encodes protobuf messages. Values passed to Marshal and Unmarshal
// must implement proto.Message; anything else fails with ErrNotProtoMessage.
type Proto struct{}

func (Proto) Marshal(v any) ([]byte, error) {
	m, ok := v.(proto.Message)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotProtoMessage, v)
	}
	return proto.Marshal(m)
}

func (Proto) Unmarshal(data []byte, v any) error {
	m, ok := v.(proto.Message)
	if !ok {
		return fmt.Errorf("%w: %T", ErrNotProtoMessage, v)
	}
	return proto.Unmarshal(data, m)
}

func (Proto) Name() string { return "proto" }

// DecoderFor adapts a Codec to the typed decoder shape core/call expects.
// T must be a type the codec can unmarshal into via pointer, e.g. a struct
// for JSON. For protobuf messages use ProtoDecoderFor.
func DecoderFor[T any](c Codec) func([]byte) (T, error) {
	return func(data []byte) (T, error) {
		var v T
		if err := c.Unmarshal(data, &v); err != nil {
			var zero T
			return zero, err
		}
		return v, nil
	}
}

// ProtoDecoderFor returns a typed decoder for a generated protobuf message
// type. A fresh message is allocated per decode.
func ProtoDecoderFor[T proto.Message]() func([]byte) (T, error) {
	return func(data []byte) (T, error) {
		var zero T
		m := zero.ProtoReflect().New().Interface()
		if err := proto.Unmarshal(data, m); err != nil {
			return zero, err
		}
		return m.(T), nil
	}
}
