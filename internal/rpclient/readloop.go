package rpclient

import (
	"github.com/gorilla/websocket"
)

// readLoop работает в одной горутине на сокет, кадры обрабатываются строго по порядку.
func (c *Client) readLoop(conn *websocket.Conn) {
	defer c.wg.Done()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleDisconnect(conn, err)
			return
		}
		c.touchActivity()
		c.onFrame(data)
	}
}

// onFrame классифицирует кадр: ответ уходит ждущему запросу, push уходит всем
// подписчикам. Битые кадры и паники подписчиков не останавливают чтение.
func (c *Client) onFrame(data []byte) {
	f, err := c.codec.Decode(data)
	if err != nil {
		c.log.Warn("malformed frame dropped", "err", err, "bytes", len(data))
		return
	}
	switch f.Kind {
	case FrameReply:
		if !c.deliver(f) {
			c.log.Debug("reply without waiter dropped", "request_id", uint64(f.RequestID))
		}
	default:
		c.listeners.notifyMessage(Push{Raw: f.Payload})
	}
}
