package rpclient

import (
	"log/slog"

	mapset "github.com/deckarep/golang-set/v2"
)

// StatusListener подписывается на смену статуса соединения.
// Подписка идентифицируется указателем на хэндл.
type StatusListener struct {
	fn func(Status)
}

func NewStatusListener(fn func(Status)) *StatusListener {
	return &StatusListener{fn: fn}
}

// MessageListener подписывается на push-события.
type MessageListener struct {
	fn func(Push)
}

func NewMessageListener(fn func(Push)) *MessageListener {
	return &MessageListener{fn: fn}
}

// registry хранит оба набора подписчиков. Порядок вызова не определён.
type registry struct {
	status   mapset.Set[*StatusListener]
	messages mapset.Set[*MessageListener]
	log      *slog.Logger
}

func newRegistry(log *slog.Logger) *registry {
	return &registry{
		status:   mapset.NewSet[*StatusListener](),
		messages: mapset.NewSet[*MessageListener](),
		log:      log,
	}
}

// Повторное добавление ничего не меняет, удаление незарегистрированного игнорируется.

func (c *Client) AddConnectionStatusListener(l *StatusListener) {
	if l == nil || l.fn == nil {
		return
	}
	c.listeners.status.Add(l)
}

func (c *Client) RemoveConnectionStatusListener(l *StatusListener) {
	c.listeners.status.Remove(l)
}

func (c *Client) AddMessageListener(l *MessageListener) {
	if l == nil || l.fn == nil {
		return
	}
	c.listeners.messages.Add(l)
}

func (c *Client) RemoveMessageListener(l *MessageListener) {
	c.listeners.messages.Remove(l)
}

func (r *registry) notifyStatus(s Status) {
	for _, l := range r.status.ToSlice() {
		r.callStatus(l, s)
	}
}

func (r *registry) notifyMessage(p Push) {
	for _, l := range r.messages.ToSlice() {
		r.callMessage(l, p)
	}
}

func (r *registry) callStatus(l *StatusListener, s Status) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("status listener panicked", "status", s.String(), "panic", p)
		}
	}()
	l.fn(s)
}

func (r *registry) callMessage(l *MessageListener, p Push) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("message listener panicked", "panic", rec)
		}
	}()
	l.fn(p)
}
