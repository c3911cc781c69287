package rpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// RequestID уникален в пределах жизни клиента и не переиспользуется.
type RequestID uint64

const (
	fieldCommand   = "command"
	fieldRequestID = "requestId"
	fieldError     = "error"
)

// Envelope хранит исходящее сообщение: command, (опционально) requestId и плоские опции.
type Envelope map[string]any

// newEnvelope раскладывает options (структура или map) в поля конверта.
// id == 0 означает команду без ответа.
func newEnvelope(command string, id RequestID, options any) (Envelope, error) {
	env := Envelope{}
	if options != nil {
		b, err := json.Marshal(options)
		if err != nil {
			return nil, fmt.Errorf("encode options for %s: %w", command, err)
		}
		b = bytes.TrimSpace(b)
		switch {
		case bytes.Equal(b, []byte("null")):
		case len(b) > 0 && b[0] == '{':
			dec := json.NewDecoder(bytes.NewReader(b))
			dec.UseNumber()
			if err := dec.Decode(&env); err != nil {
				return nil, fmt.Errorf("decode options for %s: %w", command, err)
			}
		default:
			return nil, fmt.Errorf("%s: %w (got %s)", command, ErrInvalidOptions, b)
		}
	}
	env[fieldCommand] = command
	if id != 0 {
		env[fieldRequestID] = uint64(id)
	} else {
		delete(env, fieldRequestID)
	}
	return env, nil
}

// FrameKind различает варианты входящего кадра.
type FrameKind int

const (
	FramePush FrameKind = iota
	FrameReply
)

func (k FrameKind) String() string {
	if k == FrameReply {
		return "reply"
	}
	return "push"
}

// Frame хранит разобранный входящий кадр.
//
// Для FrameReply Payload содержит объект ответа без requestId и error;
// Failed и Err заполнены, если поле error не null (пустая строка тоже ошибка).
// Для FramePush Payload содержит кадр целиком.
type Frame struct {
	Kind      FrameKind
	RequestID RequestID
	Failed    bool
	Err       string
	Payload   json.RawMessage
}

var errMalformed = errors.New("malformed frame")

// decodeFrame считает ответом не-null объект с полем requestId, всё остальное идёт как push.
func decodeFrame(data []byte) (Frame, error) {
	data = bytes.TrimSpace(data)
	if !json.Valid(data) {
		return Frame{}, errMalformed
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Frame{Kind: FramePush, Payload: json.RawMessage(data)}, nil
	}
	rawID, ok := fields[fieldRequestID]
	if !ok {
		return Frame{Kind: FramePush, Payload: json.RawMessage(data)}, nil
	}

	var id uint64
	if err := json.Unmarshal(rawID, &id); err != nil {
		return Frame{}, fmt.Errorf("%w: requestId %s: %v", errMalformed, rawID, err)
	}
	f := Frame{Kind: FrameReply, RequestID: RequestID(id)}
	delete(fields, fieldRequestID)

	if rawErr, ok := fields[fieldError]; ok {
		delete(fields, fieldError)
		if !bytes.Equal(rawErr, []byte("null")) {
			var msg string
			if err := json.Unmarshal(rawErr, &msg); err != nil {
				msg = string(rawErr)
			}
			f.Failed, f.Err = true, msg
		}
	}

	payload, err := json.Marshal(fields)
	if err != nil {
		return Frame{}, fmt.Errorf("re-encode reply %d: %w", id, err)
	}
	f.Payload = payload
	return f, nil
}

// Push описывает серверное событие без requestId. Raw хранит исходный JSON кадра.
type Push struct {
	Raw json.RawMessage
}

// Decode разбирает событие в v.
func (p Push) Decode(v any) error {
	return json.Unmarshal(p.Raw, v)
}

// Type возвращает строковое поле "type" события, если оно есть.
func (p Push) Type() string {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(p.Raw, &head); err != nil {
		return ""
	}
	return head.Type
}
