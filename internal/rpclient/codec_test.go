package rpclient

import (
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecByName(t *testing.T) {
	for name, want := range map[string]Codec{"": JSONCodec{}, "json": JSONCodec{}, "JSON": JSONCodec{}, "proto": ProtoCodec{}, "protobuf": ProtoCodec{}} {
		got, err := CodecByName(name)
		require.NoError(t, err, name)
		assert.IsType(t, want, got, name)
	}
	_, err := CodecByName("msgpack")
	assert.Error(t, err)
}

func TestCodecMessageTypes(t *testing.T) {
	assert.Equal(t, websocket.TextMessage, JSONCodec{}.MessageType())
	assert.Equal(t, websocket.BinaryMessage, ProtoCodec{}.MessageType())
}

func TestProtoCodecClassifiesLikeJSON(t *testing.T) {
	var codec ProtoCodec

	data, err := codec.Encode(Envelope{"requestId": uint64(12), "error": "busy"})
	require.NoError(t, err)
	f, err := codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, FrameReply, f.Kind)
	assert.Equal(t, RequestID(12), f.RequestID)
	assert.True(t, f.Failed)
	assert.Equal(t, "busy", f.Err)

	data, err = codec.Encode(Envelope{"type": "state", "tick": 4})
	require.NoError(t, err)
	f, err = codec.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, FramePush, f.Kind)
	assert.JSONEq(t, `{"type":"state","tick":4}`, string(f.Payload))
}

func TestProtoCodecRejectsGarbage(t *testing.T) {
	_, err := ProtoCodec{}.Decode([]byte{0xff, 0xff, 0xff})
	assert.ErrorIs(t, err, errMalformed)
}
