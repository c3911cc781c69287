package rpclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
)

// Connect открывает соединение и ждёт статуса Connected не дольше ConnectTimeout.
// Если клиент уже подключён, ничего не делает.
func (c *Client) Connect(ctx context.Context) error {
	// под connMu, чтобы wg.Add не разошёлся с wg.Wait в Close
	c.connMu.Lock()
	if c.closed.Load() {
		c.connMu.Unlock()
		return ErrClosed
	}
	c.startOnce.Do(c.startBackground)
	c.connMu.Unlock()

	if c.Status() == Connected {
		return nil
	}
	return c.connectAndWait(ctx)
}

// connectAndWait используется и первым подключением, и супервизором.
func (c *Client) connectAndWait(ctx context.Context) error {
	c.dialMu.Lock()
	defer c.dialMu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}
	if c.Status() == Connected {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()

	c.setStatus(Connecting)
	c.log.Info("connecting", "url", c.cfg.URL)

	// DialContext прерывает и TCP-подключение, и handshake по ctx
	err := c.open(ctx)
	if err == nil {
		return nil
	}
	if c.Status() == Connecting {
		c.setStatus(NotConnected)
	}
	if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == context.DeadlineExceeded {
		return &TimeoutError{Op: "connect", After: c.cfg.ConnectTimeout}
	}
	return fmt.Errorf("connect %s: %w", c.cfg.URL, err)
}

// open устанавливает сокет и запускает для него горутину чтения.
func (c *Client) open(ctx context.Context) error {
	conn, _, err := c.dialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	conn.SetReadLimit(c.cfg.ReadLimit)

	c.connMu.Lock()
	if c.closed.Load() {
		c.connMu.Unlock()
		_ = conn.Close()
		return ErrClosed
	}
	c.conn = conn
	c.wg.Add(1)
	c.connMu.Unlock()

	c.touchActivity()
	c.setStatus(Connected)
	c.log.Info("connected", "url", c.cfg.URL)

	go c.readLoop(conn)
	return nil
}

// WaitConnected опрашивает статус каждые PollInterval, пока он не станет
// Connected или не истечёт ConnectTimeout.
func (c *Client) WaitConnected(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.ConnectTimeout)
	defer cancel()
	if err := c.waitStatus(ctx, Connected); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return &TimeoutError{Op: "connect", After: c.cfg.ConnectTimeout}
		}
		return err
	}
	return nil
}

func (c *Client) waitStatus(ctx context.Context, want Status) error {
	if c.Status() == want {
		return nil
	}
	t := time.NewTicker(c.cfg.PollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.ctx.Done():
			return ErrClosed
		case <-t.C:
			if c.Status() == want {
				return nil
			}
		}
	}
}

func (c *Client) currentConn() *websocket.Conn {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	return c.conn
}

// sendRaw пишет кадр в текущий сокет. Если сокета нет, кадр молча отбрасывается.
func (c *Client) sendRaw(ctx context.Context, data []byte) {
	if err := c.limiter.Wait(ctx); err != nil {
		c.log.Debug("frame dropped by limiter", "err", err)
		return
	}
	conn := c.currentConn()
	if conn == nil {
		c.log.Debug("not connected, frame dropped", "bytes", len(data))
		return
	}

	c.writeMu.Lock()
	_ = conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
	err := conn.WriteMessage(c.codec.MessageType(), data)
	c.writeMu.Unlock()

	if err != nil {
		// сеть упала: readLoop получит ошибку и запустит переподключение
		c.log.Warn("write failed, frame dropped", "err", err)
		_ = conn.Close()
	}
}

// dropConn забывает conn, если он всё ещё текущий.
func (c *Client) dropConn(conn *websocket.Conn) bool {
	c.connMu.Lock()
	defer c.connMu.Unlock()
	if c.conn != conn {
		return false
	}
	c.conn = nil
	return true
}

// abortConn рвёт текущий сокет, дальше работает обычный путь обрыва.
func (c *Client) abortConn() {
	if conn := c.currentConn(); conn != nil {
		_ = conn.Close()
	}
}

// handleDisconnect вызывается горутиной чтения при ошибке сокета.
func (c *Client) handleDisconnect(conn *websocket.Conn, err error) {
	if !c.dropConn(conn) {
		return
	}
	_ = conn.Close()
	if c.closed.Load() {
		return
	}
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.Info("connection closed by server", "err", err)
	} else {
		c.log.Warn("connection lost", "err", err)
	}
	c.setStatus(NotConnected)
	c.triggerReconnect()
}
