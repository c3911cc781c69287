package rpclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gorilla/websocket"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Codec переводит конверты в кадры WebSocket и обратно.
type Codec interface {
	Encode(env Envelope) ([]byte, error)
	Decode(data []byte) (Frame, error)
	// MessageType возвращает websocket.TextMessage или websocket.BinaryMessage.
	MessageType() int
}

// JSONCodec кодирует основной протокол в текстовые JSON-кадры.
type JSONCodec struct{}

func (JSONCodec) Encode(env Envelope) ([]byte, error) { return json.Marshal(env) }

func (JSONCodec) Decode(data []byte) (Frame, error) { return decodeFrame(data) }

func (JSONCodec) MessageType() int { return websocket.TextMessage }

// ProtoCodec несёт тот же плоский конверт как google.protobuf.Struct
// в бинарных кадрах. После декодирования кадр классифицируется так же, как JSON.
type ProtoCodec struct{}

func (ProtoCodec) Encode(env Envelope) ([]byte, error) {
	b, err := json.Marshal(env)
	if err != nil {
		return nil, err
	}
	s := &structpb.Struct{}
	if err := protojson.Unmarshal(b, s); err != nil {
		return nil, fmt.Errorf("envelope to struct: %w", err)
	}
	return proto.Marshal(s)
}

func (ProtoCodec) Decode(data []byte) (Frame, error) {
	s := &structpb.Struct{}
	if err := proto.Unmarshal(data, s); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	b, err := protojson.Marshal(s)
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	// protojson специально вставляет случайные пробелы
	var buf bytes.Buffer
	if err := json.Compact(&buf, b); err != nil {
		return Frame{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return decodeFrame(buf.Bytes())
}

func (ProtoCodec) MessageType() int { return websocket.BinaryMessage }

// CodecByName: "json" (или пусто) и "proto".
func CodecByName(name string) (Codec, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return JSONCodec{}, nil
	case "proto", "protobuf":
		return ProtoCodec{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q", name)
	}
}
