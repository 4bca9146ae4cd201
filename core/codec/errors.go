package codec

import "errors"

// ErrNotProtoMessage is returned when the Proto codec receives a value that
// does not implement proto.Message.
var ErrNotProtoMessage = errors.New("value is not a proto.Message")
