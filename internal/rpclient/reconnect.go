package rpclient

import (
	"errors"
	"time"
)

// startBackground запускает супервизор переподключения и, если включён, heartbeat.
func (c *Client) startBackground() {
	c.wg.Add(1)
	go c.supervise()
	if c.cfg.HeartbeatInterval > 0 {
		c.wg.Add(1)
		go c.heartbeatLoop()
	}
}

// triggerReconnect не блокируется: повторные сигналы схлопываются в один.
func (c *Client) triggerReconnect() {
	if c.cfg.ReconnectAttempts < 0 {
		return
	}
	select {
	case c.kick <- struct{}{}:
	default:
	}
}

func (c *Client) supervise() {
	defer c.wg.Done()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-c.kick:
			c.reconnect()
		}
	}
}

// reconnect делает до ReconnectAttempts попыток connectAndWait и выходит
// после первой удачной. Если попытки кончились, клиент остаётся NotConnected.
func (c *Client) reconnect() {
	delay := c.cfg.ReconnectDelayMin
	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		if c.closed.Load() {
			return
		}
		if delay > 0 {
			select {
			case <-c.ctx.Done():
				return
			case <-time.After(delay):
			}
			delay *= 2
			if delay > c.cfg.ReconnectDelayMax {
				delay = c.cfg.ReconnectDelayMax
			}
		}

		err := c.connectAndWait(c.ctx)
		if err == nil {
			c.log.Info("reconnected", "attempt", attempt)
			return
		}
		if errors.Is(err, ErrClosed) || c.ctx.Err() != nil {
			return
		}
		c.log.Warn("reconnect attempt failed", "attempt", attempt, "max", c.cfg.ReconnectAttempts, "err", err)
	}
	c.log.Error("reconnect attempts exhausted", "attempts", c.cfg.ReconnectAttempts)
}
