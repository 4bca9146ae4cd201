package connection

import (
	"strings"
	"unicode/utf8"

	"google.golang.org/grpc/metadata"
)

// MetadataKey is the well-known call-metadata key carrying the connection id.
const MetadataKey = "connection_id"

// FromMetadata extracts the connection id from call metadata. It reports
// ok == false when the key is missing, empty, or carries binary data where
// text is expected (a "-bin" suffixed key, or a value that is not valid
// UTF-8). Malformed input is treated as absent rather than an error; the
// dispatcher decides whether to reject the call or treat it as anonymous.
func FromMetadata(md metadata.MD) (string, bool) {
	if vals := md.Get(MetadataKey); len(vals) > 0 {
		id := vals[0]
		if id == "" || !utf8.ValidString(id) {
			return "", false
		}
		return id, true
	}
	// A binary-encoded id is unreadable here, not a hard failure.
	if len(md.Get(MetadataKey+"-bin")) > 0 {
		return "", false
	}
	return "", false
}

// FromPairs is a convenience for transports that surface metadata as plain
// key/value pairs (headers, query params) instead of metadata.MD.
func FromPairs(kv ...string) (string, bool) {
	for i := 0; i+1 < len(kv); i += 2 {
		if strings.EqualFold(kv[i], MetadataKey) {
			return FromMetadata(metadata.Pairs(MetadataKey, kv[i+1]))
		}
	}
	return "", false
}
