package remote

import (
	"encoding/json"

	"google.golang.org/grpc/encoding"
)

// CodecName is registered with google.golang.org/grpc/encoding and selected
// via grpc.CallContentSubtype on every call this package makes, so every
// byte of every RPC envelope — not just the actor message payload — stays
// JSON on the wire.
const CodecName = "json"

type jsonCodec struct{}

func (jsonCodec) Marshal(v interface{}) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec) Unmarshal(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}

func (jsonCodec) Name() string { return CodecName }

func init() {
	encoding.RegisterCodec(jsonCodec{})
}
