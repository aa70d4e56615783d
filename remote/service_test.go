package remote

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/encoding"
)

func TestJSONCodecRegistered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c, "jsonCodec must self-register via init()")
	assert.Equal(t, CodecName, c.Name())
}

func TestJSONCodecRoundTrip(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)

	in := &SendMessageRequest{TargetID: "a1", Type: "ping", SenderID: "s1", SenderNode: "node-a:9000"}
	data, err := c.Marshal(in)
	require.NoError(t, err)

	var out SendMessageRequest
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, *in, out)
}

func TestServiceDescriptorShape(t *testing.T) {
	assert.Equal(t, serviceName, serviceDesc.ServiceName)
	require.Len(t, serviceDesc.Methods, 3)
	require.Len(t, serviceDesc.Streams, 1)

	names := map[string]bool{}
	for _, m := range serviceDesc.Methods {
		names[m.MethodName] = true
	}
	assert.True(t, names["SendMessage"])
	assert.True(t, names["SpawnActor"])
	assert.True(t, names["StopActor"])
	assert.Equal(t, "WatchActor", serviceDesc.Streams[0].StreamName)
	assert.True(t, serviceDesc.Streams[0].ServerStreams)
}
