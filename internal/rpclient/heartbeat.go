package rpclient

import (
	"errors"
	"time"
)

// heartbeatLoop шлёт HeartbeatCommand, если входящего трафика давно не было.
// Если ответа не дождались, считаем соединение подвисшим и рвём его,
// дальше переподключает супервизор.
func (c *Client) heartbeatLoop() {
	defer c.wg.Done()
	t := time.NewTicker(c.cfg.HeartbeatInterval)
	defer t.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-t.C:
			if c.Status() != Connected || c.sinceLastActivity() < c.cfg.HeartbeatIdle {
				continue
			}
			_, err := c.Request(c.ctx, c.cfg.HeartbeatCommand)
			if errors.Is(err, ErrTimeout) {
				c.log.Warn("heartbeat timed out, dropping connection", "command", c.cfg.HeartbeatCommand)
				c.abortConn()
			}
		}
	}
}
